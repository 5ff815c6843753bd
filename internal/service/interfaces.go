// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/paisaflow/paisaflow/internal/model"
)

// MessageSource supplies raw message events. Subscribe registers a callback
// and returns a teardown function; calling it stops dispatch of further
// callbacks but does not abort work already handed to the callback.
type MessageSource interface {
	Subscribe(onMessage func(model.RawMessage)) (func(), error)
}

// ActionSource supplies notification action responses, identified by an
// action id and the transaction the notification was raised for.
type ActionSource interface {
	SubscribeActions(onAction func(actionID, transactionID string)) (func(), error)
}

// SessionProvider owns the bearer credential for the remote ledger.
// The pipeline never mutates the token directly; it only requests a
// refresh and re-reads.
type SessionProvider interface {
	// CurrentToken returns the current bearer token, or false when no
	// usable credential is available.
	CurrentToken(ctx context.Context) (string, bool)
	// Refresh obtains a fresh token. Callers invoke it at most once per
	// request to avoid refresh loops.
	Refresh(ctx context.Context) (string, error)
}

// PatchFields is a partial transaction update. Nil fields are left unchanged.
type PatchFields struct {
	Category     *string
	Satisfaction *int
}

// LedgerClient delivers transactions to the remote ledger service.
type LedgerClient interface {
	// Submit creates the transaction remotely and returns the ledger id.
	Submit(ctx context.Context, txn model.Transaction) (string, error)
	// Patch applies a partial update. It is idempotent: applying the same
	// patch twice yields the same stored state.
	Patch(ctx context.Context, id string, fields PatchFields) error
}

// Storage defines the contract for the local working-state store.
type Storage interface {
	// Transaction records (index of what was submitted, keyed by ledger id)
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListUncategorized(ctx context.Context, limit int) ([]model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, id, category string) error
	UpdateTransactionSatisfaction(ctx context.Context, id string, rating int) error

	// Feedback prompts
	SavePrompt(ctx context.Context, prompt *model.FeedbackPrompt) error
	GetPrompt(ctx context.Context, transactionID string) (*model.FeedbackPrompt, error)
	ListPendingPrompts(ctx context.Context) ([]model.FeedbackPrompt, error)
	UpdatePromptState(ctx context.Context, transactionID string, state model.PromptState, resolvedCategory string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Prompter presents a feedback prompt to the user and returns the outcome.
type Prompter interface {
	ResolvePrompt(ctx context.Context, txn model.Transaction, prompt model.FeedbackPrompt) (model.PromptOutcome, error)
}

// RetryOptions configures retry behavior for caller-side retries.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
