package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisaflow/paisaflow/internal/cli"
	"github.com/paisaflow/paisaflow/internal/common"
	"github.com/paisaflow/paisaflow/internal/feedback"
	"github.com/paisaflow/paisaflow/internal/ledger"
	"github.com/paisaflow/paisaflow/internal/service"
	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Resolve pending category prompts",
		Long: `Walk through transactions that were forwarded without a confident
category and file them properly. Corrections are patched to the ledger;
patching is idempotent, so a failed correction is retried here.`,
		RunE: runFeedback,
	}

	cmd.Flags().Bool("list", false, "list uncategorized transactions without prompting")
	cmd.Flags().Int("limit", 0, "maximum transactions to list")

	return cmd
}

func runFeedback(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if list, _ := cmd.Flags().GetBool("list"); list {
		limit, _ := cmd.Flags().GetInt("limit")
		return listUncategorized(ctx, limit)
	}

	ledgerClient, err := newLedgerClient(ctx)
	if err != nil {
		return err
	}

	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	coordinator := feedback.New(ledgerClient, feedback.WithStore(db))
	if err := coordinator.LoadPending(ctx); err != nil {
		return err
	}

	prompts, err := db.ListPendingPrompts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending prompts: %w", err)
	}
	if len(prompts) == 0 {
		fmt.Println("Nothing to categorize.")
		return nil
	}

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	resolved, skipped := 0, 0

	for _, prompt := range prompts {
		if ctx.Err() != nil {
			break
		}

		txn, getErr := db.GetTransaction(ctx, prompt.TransactionID)
		if getErr != nil {
			slog.Warn("Skipping prompt with no local record",
				"transaction_id", prompt.TransactionID, "error", getErr)
			continue
		}

		outcome, promptErr := prompter.ResolvePrompt(ctx, *txn, prompt)
		if errors.Is(promptErr, cli.ErrInputCancelled) {
			break
		}
		if promptErr != nil {
			return promptErr
		}

		if outcome.Skipped {
			if skipErr := coordinator.Skip(ctx, prompt.TransactionID); skipErr != nil {
				return skipErr
			}
			skipped++
			continue
		}

		// Patch is idempotent, so retrying a failed correction is safe.
		resolveErr := common.WithRetry(ctx, func() error {
			patchErr := coordinator.ResolveCategory(ctx, prompt.TransactionID, outcome.Category)
			if patchErr != nil && !ledger.IsUnauthenticated(patchErr) {
				return &common.RetryableError{Err: patchErr, Retryable: true}
			}
			return patchErr
		}, service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		})
		if resolveErr != nil {
			return fmt.Errorf("failed to apply correction for %s: %w", prompt.TransactionID, resolveErr)
		}
		resolved++
	}

	fmt.Printf("Done: %d categorized, %d skipped, %d remaining\n",
		resolved, skipped, coordinator.PendingCount())
	return nil
}

func listUncategorized(ctx context.Context, limit int) error {
	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	txns, err := db.ListUncategorized(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list uncategorized transactions: %w", err)
	}
	if len(txns) == 0 {
		fmt.Println("Nothing uncategorized.")
		return nil
	}

	for _, txn := range txns {
		vendor := txn.Vendor
		if vendor == "" {
			vendor = "(unknown vendor)"
		}
		fmt.Printf("%s  %s %8.2f %-6s %s\n",
			txn.OccurredAt.Format("2006-01-02"), txn.Currency, txn.Amount,
			txn.Direction, vendor)
	}
	fmt.Printf("%d uncategorized\n", len(txns))
	return nil
}
