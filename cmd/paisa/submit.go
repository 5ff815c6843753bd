package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/spf13/cobra"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a transaction manually",
		Long: `Submit a single transaction directly to the ledger, bypassing message
extraction. Manual entries are never auto-classified and never prompt
for feedback.`,
		RunE: runSubmit,
	}

	cmd.Flags().String("name", "", "merchant or counterparty name (required)")
	cmd.Flags().Float64("amount", 0, "transaction amount (required)")
	cmd.Flags().String("category", model.CategoryOther, "category")
	cmd.Flags().String("direction", string(model.DirectionDebit), "credit or debit")
	cmd.Flags().String("method", "", "payment method (UPI, Card, Cash, NetBanking, Wallet)")
	cmd.Flags().String("note", "", "free-form note")
	cmd.Flags().String("reference", "", "reference id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	name, _ := cmd.Flags().GetString("name")
	amount, _ := cmd.Flags().GetFloat64("amount")
	category, _ := cmd.Flags().GetString("category")
	direction, _ := cmd.Flags().GetString("direction")
	method, _ := cmd.Flags().GetString("method")
	note, _ := cmd.Flags().GetString("note")
	reference, _ := cmd.Flags().GetString("reference")

	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if !model.IsValidCategory(category) {
		return fmt.Errorf("unknown category %q, see 'paisa categories'", category)
	}
	if direction != string(model.DirectionCredit) && direction != string(model.DirectionDebit) {
		return fmt.Errorf("direction must be credit or debit")
	}

	ledgerClient, err := newLedgerClient(ctx)
	if err != nil {
		return err
	}

	txn := model.Transaction{
		Amount:        amount,
		Currency:      model.DefaultCurrency,
		Direction:     model.Direction(direction),
		Category:      category,
		Vendor:        name,
		PaymentMethod: model.PaymentMethod(method),
		ReferenceID:   reference,
		RawText:       note,
		OccurredAt:    time.Now(),
		Source:        model.SourceManual,
		IsAuto:        false,
	}

	ledgerID, err := ledgerClient.Submit(ctx, txn)
	if err != nil {
		return fmt.Errorf("failed to submit transaction: %w", err)
	}

	txn.ID = ledgerID
	if db, dbErr := openStorage(ctx); dbErr == nil {
		if saveErr := db.SaveTransaction(ctx, &txn); saveErr != nil {
			slog.Warn("Failed to record transaction locally", "error", saveErr)
		}
		_ = db.Close()
	}

	fmt.Printf("Submitted %s %.2f as %s (id %s)\n", txn.Currency, txn.Amount, txn.Category, ledgerID)
	return nil
}
