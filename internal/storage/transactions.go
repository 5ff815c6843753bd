package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paisaflow/paisaflow/internal/common"
	"github.com/paisaflow/paisaflow/internal/model"
)

// SaveTransaction records a submitted transaction by its ledger id.
// Saving the same id again overwrites the previous record, which keeps
// replays idempotent at this layer.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("transaction cannot be nil")
	}
	if txn.ID == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO transactions (
			id, raw_text, amount, currency, direction, category, vendor,
			payment_method, reference_id, source, is_auto, confidence,
			satisfaction, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID, txn.RawText, txn.Amount, txn.Currency, string(txn.Direction),
		txn.Category, txn.Vendor, string(txn.PaymentMethod), txn.ReferenceID,
		string(txn.Source), txn.IsAuto, txn.Confidence, txn.Satisfaction,
		txn.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// GetTransaction fetches one record by ledger id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, raw_text, amount, currency, direction, category, vendor,
			payment_method, reference_id, source, is_auto, confidence,
			satisfaction, occurred_at
		FROM transactions WHERE id = ?
	`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// ListUncategorized returns transactions still filed under the default
// category, newest first.
func (s *SQLiteStorage) ListUncategorized(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, raw_text, amount, currency, direction, category, vendor,
			payment_method, reference_id, source, is_auto, confidence,
			satisfaction, occurred_at
		FROM transactions
		WHERE category = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`, model.CategoryOther, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		txns = append(txns, *txn)
	}

	return txns, rows.Err()
}

// UpdateTransactionCategory applies a category correction locally.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, id, category string) error {
	return s.updateField(ctx, id, "category", category)
}

// UpdateTransactionSatisfaction records a satisfaction rating locally.
func (s *SQLiteStorage) UpdateTransactionSatisfaction(ctx context.Context, id string, rating int) error {
	return s.updateField(ctx, id, "satisfaction", rating)
}

func (s *SQLiteStorage) updateField(ctx context.Context, id, column string, value any) error {
	// column is always a compile-time constant from the callers above.
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE transactions SET %s = ? WHERE id = ?", column),
		value, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", column, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var direction, method, source string
	var occurredAt time.Time

	err := row.Scan(&txn.ID, &txn.RawText, &txn.Amount, &txn.Currency,
		&direction, &txn.Category, &txn.Vendor, &method, &txn.ReferenceID,
		&source, &txn.IsAuto, &txn.Confidence, &txn.Satisfaction, &occurredAt)
	if err != nil {
		return nil, err
	}

	txn.Direction = model.Direction(direction)
	txn.PaymentMethod = model.PaymentMethod(method)
	txn.Source = model.TransactionSource(source)
	txn.OccurredAt = occurredAt

	return &txn, nil
}
