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

// SavePrompt persists a feedback prompt. The transaction id is the primary
// key, so at most one prompt row exists per transaction; re-saving a
// prompt replaces its previous state.
func (s *SQLiteStorage) SavePrompt(ctx context.Context, prompt *model.FeedbackPrompt) error {
	if prompt == nil {
		return fmt.Errorf("prompt cannot be nil")
	}
	if prompt.TransactionID == "" {
		return fmt.Errorf("prompt transaction id cannot be empty")
	}

	createdAt := prompt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO prompts (transaction_id, state, resolved_category, created_at)
		VALUES (?, ?, ?, ?)
	`, prompt.TransactionID, string(prompt.State), prompt.ResolvedCategory, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save prompt: %w", err)
	}

	return nil
}

// GetPrompt fetches the prompt for a transaction.
func (s *SQLiteStorage) GetPrompt(ctx context.Context, transactionID string) (*model.FeedbackPrompt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, state, resolved_category, created_at, resolved_at
		FROM prompts WHERE transaction_id = ?
	`, transactionID)

	prompt, err := scanPrompt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prompt for %s: %w", transactionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	return prompt, nil
}

// ListPendingPrompts returns all prompts still awaiting a user response,
// oldest first.
func (s *SQLiteStorage) ListPendingPrompts(ctx context.Context) ([]model.FeedbackPrompt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, state, resolved_category, created_at, resolved_at
		FROM prompts WHERE state = ? ORDER BY created_at ASC
	`, string(model.PromptPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prompts []model.FeedbackPrompt
	for rows.Next() {
		prompt, scanErr := scanPrompt(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", scanErr)
		}
		prompts = append(prompts, *prompt)
	}

	return prompts, rows.Err()
}

// UpdatePromptState transitions a prompt to a terminal state.
func (s *SQLiteStorage) UpdatePromptState(ctx context.Context, transactionID string, state model.PromptState, resolvedCategory string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE prompts SET state = ?, resolved_category = ?, resolved_at = ?
		WHERE transaction_id = ?
	`, string(state), resolvedCategory, time.Now(), transactionID)
	if err != nil {
		return fmt.Errorf("failed to update prompt state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("prompt for %s: %w", transactionID, common.ErrNotFound)
	}

	return nil
}

func scanPrompt(row rowScanner) (*model.FeedbackPrompt, error) {
	var prompt model.FeedbackPrompt
	var state string
	var resolvedAt sql.NullTime

	err := row.Scan(&prompt.TransactionID, &state, &prompt.ResolvedCategory,
		&prompt.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	prompt.State = model.PromptState(state)
	if resolvedAt.Valid {
		prompt.ResolvedAt = resolvedAt.Time
	}
	if prompt.State == model.PromptPending {
		prompt.Candidates = model.CandidateCategories()
	}

	return &prompt, nil
}
