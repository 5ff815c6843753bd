package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/paisaflow/paisaflow/internal/feedback"
	"github.com/paisaflow/paisaflow/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the message pipeline",
		Long: `Run the ingestion pipeline against a stream of messages.

Messages arrive as JSON lines on stdin (or from --file), one object per
line: {"sender": "VM-HDFCBK", "body": "...", "received_at": "..."}.
Detected transactions are forwarded to the ledger; anything forwarded
without a confident category is queued for feedback (see 'paisa feedback').`,
		RunE: runRun,
	}

	cmd.Flags().StringP("file", "f", "", "read messages from a file instead of stdin")
	cmd.Flags().Int("queue-size", 0, "bounded queue size between arrival and classification")
	cmd.Flags().Int("workers", 0, "delivery worker count")

	_ = viper.BindPFlag("pipeline.file", cmd.Flags().Lookup("file"))
	_ = viper.BindPFlag("pipeline.queue_size", cmd.Flags().Lookup("queue-size"))
	_ = viper.BindPFlag("pipeline.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ledgerClient, err := newLedgerClient(ctx)
	if err != nil {
		return err
	}

	senderFilter, err := newSenderFilter()
	if err != nil {
		return err
	}
	if senderFilter.Empty() {
		slog.Warn("No sender patterns configured, accepting all senders")
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
		pipeline.WithFeedback(coordinator),
		pipeline.WithConfig(pipeline.Config{
			QueueSize:       viper.GetInt("pipeline.queue_size"),
			DeliveryWorkers: viper.GetInt("pipeline.workers"),
		}))

	input := os.Stdin
	if path := viper.GetString("pipeline.file"); path != "" {
		f, openErr := os.Open(path)
		if openErr != nil {
			return fmt.Errorf("failed to open message file: %w", openErr)
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	err = engine.Run(ctx, pipeline.NewReaderSource(input))
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
