package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/paisaflow/paisaflow/internal/feedback"
	"github.com/paisaflow/paisaflow/internal/pipeline"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replay an exported message dump",
		Long: `Replay a message export (JSON lines, one message per line) through the
pipeline. Each detected transaction is submitted once; failures are
reported and skipped rather than retried, so re-running an import can
duplicate entries unless your ledger deduplicates by reference id.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ledgerClient, err := newLedgerClient(ctx)
	if err != nil {
		return err
	}

	senderFilter, err := newSenderFilter()
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

	engine := pipeline.New(senderFilter, ledgerClient,
		pipeline.WithStore(db),
		pipeline.WithFeedback(coordinator))

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open message file: %w", err)
	}
	defer func() { _ = f.Close() }()

	lines, err := countLines(args[0])
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(lines,
		progressbar.OptionSetDescription("Importing messages"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, parseErr := pipeline.ParseMessageLine(scanner.Text())
		if parseErr != nil {
			slog.Debug("Skipping malformed message line", "error", parseErr)
			_ = bar.Add(1)
			continue
		}

		if _, processErr := engine.Process(ctx, msg); processErr != nil {
			slog.Error("Failed to deliver transaction", "error", processErr)
		}
		_ = bar.Add(1)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read message file: %w", err)
	}

	stats := engine.Stats()
	fmt.Printf("Imported %d messages: %d submitted, %d noise, %d filtered, %d failed, %d awaiting feedback\n",
		stats.Received, stats.Submitted, stats.Noise, stats.Filtered, stats.Failed, stats.Prompted)

	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open message file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
