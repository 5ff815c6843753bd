package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paisaflow/paisaflow/internal/model"
)

// Prompter implements the interactive prompt for category corrections.
// It shows a transaction, offers the fixed candidate list, and returns
// the user's selection or skip.
type Prompter struct {
	reader *LineReader
	writer io.Writer
}

// NewPrompter creates a prompter over the given streams. Nil arguments
// default to stdin/stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

// ResolvePrompt asks the user to pick a category for one transaction.
func (p *Prompter) ResolvePrompt(ctx context.Context, txn model.Transaction, prompt model.FeedbackPrompt) (model.PromptOutcome, error) {
	select {
	case <-ctx.Done():
		return model.PromptOutcome{}, ctx.Err()
	default:
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox("Uncategorized Transaction", p.formatTransaction(txn))); err != nil {
		return model.PromptOutcome{}, fmt.Errorf("failed to write transaction box: %w", err)
	}

	candidates := prompt.Candidates
	if len(candidates) == 0 {
		candidates = model.CandidateCategories()
	}

	for i, c := range candidates {
		if _, err := fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, c.Label); err != nil {
			return model.PromptOutcome{}, fmt.Errorf("failed to write candidate: %w", err)
		}
	}
	if _, err := fmt.Fprintln(p.writer, SubtleStyle.Render("  [s] Skip")); err != nil {
		return model.PromptOutcome{}, fmt.Errorf("failed to write skip option: %w", err)
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("Category")); err != nil {
			return model.PromptOutcome{}, fmt.Errorf("failed to write prompt: %w", err)
		}

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return model.PromptOutcome{}, err
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		if choice == "s" || choice == "skip" {
			return model.PromptOutcome{Skipped: true}, nil
		}

		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(candidates) {
			selected := candidates[n-1]
			if _, err := fmt.Fprintln(p.writer, FormatSuccess("Filed under "+selected.Label)); err != nil {
				return model.PromptOutcome{}, fmt.Errorf("failed to write confirmation: %w", err)
			}
			return model.PromptOutcome{Category: selected.Value}, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Enter a number from the list, or s to skip")); err != nil {
			return model.PromptOutcome{}, fmt.Errorf("failed to write error: %w", err)
		}
	}
}

func (p *Prompter) formatTransaction(txn model.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %.2f %s", txn.Currency, txn.Amount, txn.Direction)
	if txn.Vendor != "" {
		fmt.Fprintf(&b, "  %s", txn.Vendor)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", txn.OccurredAt.Format("Jan 2, 2006 3:04 PM"))
	if txn.RawText != "" {
		b.WriteString(SubtleStyle.Render(txn.RawText))
	}

	return b.String()
}
