package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paisaflow/paisaflow/internal/extract"
	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/paisaflow/paisaflow/internal/service"
)

// ErrNoPendingPrompt is returned when a resolution arrives for a
// transaction that has no pending prompt.
var ErrNoPendingPrompt = errors.New("no pending prompt")

// ErrUnknownCategory is returned when a resolution names a category
// outside the fixed candidate set.
var ErrUnknownCategory = errors.New("unknown category")

// Coordinator runs one small state machine per transaction id:
//
//	NoPromptNeeded → PromptPending → Resolved | Skipped
//
// At most one pending prompt exists per transaction; a second trigger
// while one is pending is a silent no-op, not an error. Resolutions patch
// the remote ledger; a failed patch is reported to the caller and the
// prompt stays pending so the caller can retry.
type Coordinator struct {
	ledger  service.LedgerClient
	store   service.Storage
	openApp func(transactionID string)
	pending map[string]*model.FeedbackPrompt
	mu      sync.Mutex
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithStore persists prompt state so prompts survive restarts.
func WithStore(store service.Storage) Option {
	return func(c *Coordinator) { c.store = store }
}

// WithOpenApp registers the callback invoked when a notification action
// outside the known set arrives (e.g. a tap on the notification body).
func WithOpenApp(fn func(transactionID string)) Option {
	return func(c *Coordinator) { c.openApp = fn }
}

// New creates a feedback coordinator delivering corrections through ledger.
func New(ledger service.LedgerClient, opts ...Option) *Coordinator {
	c := &Coordinator{
		ledger:  ledger,
		pending: make(map[string]*model.FeedbackPrompt),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadPending restores pending prompts from the store. Call once at
// startup, before any triggers.
func (c *Coordinator) LoadPending(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	prompts, err := c.store.ListPendingPrompts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending prompts: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range prompts {
		p := prompts[i]
		c.pending[p.TransactionID] = &p
	}

	slog.Debug("Restored pending feedback prompts", "count", len(prompts))
	return nil
}

// NeedsPrompt reports whether a transaction should solicit feedback:
// it was filed under the default category or classified below the
// forwarding threshold.
func NeedsPrompt(txn model.Transaction) bool {
	return txn.Category == model.CategoryOther || txn.Confidence < extract.ForwardingThreshold
}

// Trigger moves a transaction into PromptPending if it needs feedback and
// no prompt is already pending for it. Returns true when a new prompt was
// created.
func (c *Coordinator) Trigger(ctx context.Context, txn model.Transaction) (bool, error) {
	if !NeedsPrompt(txn) {
		return false, nil
	}

	c.mu.Lock()
	if _, exists := c.pending[txn.ID]; exists {
		c.mu.Unlock()
		// Prompt conflict: second trigger while one is pending is ignored.
		slog.Debug("Prompt already pending, ignoring trigger", "transaction_id", txn.ID)
		return false, nil
	}

	prompt := &model.FeedbackPrompt{
		TransactionID: txn.ID,
		State:         model.PromptPending,
		Candidates:    model.CandidateCategories(),
		CreatedAt:     time.Now(),
	}
	c.pending[txn.ID] = prompt
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SavePrompt(ctx, prompt); err != nil {
			return true, fmt.Errorf("failed to persist prompt: %w", err)
		}
	}

	slog.Debug("Feedback prompt created", "transaction_id", txn.ID)
	return true, nil
}

// ResolveCategory applies a user-selected category from the candidate list
// and patches the ledger. On patch failure the prompt remains pending and
// the error is returned to the caller; the selection itself is not lost.
func (c *Coordinator) ResolveCategory(ctx context.Context, transactionID, category string) error {
	if !model.IsValidCategory(category) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	c.mu.Lock()
	_, exists := c.pending[transactionID]
	c.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoPendingPrompt, transactionID)
	}

	if err := c.ledger.Patch(ctx, transactionID, service.PatchFields{Category: &category}); err != nil {
		return fmt.Errorf("failed to patch category: %w", err)
	}

	if c.store != nil {
		if err := c.store.UpdateTransactionCategory(ctx, transactionID, category); err != nil {
			slog.Warn("Failed to update local category", "transaction_id", transactionID, "error", err)
		}
	}

	return c.settle(ctx, transactionID, model.PromptResolved, category)
}

// HandleAction processes a notification action response. Known actions map
// to a satisfaction rating and resolve the prompt; anything else signals
// the application to open the in-app prompt and leaves the state machine
// untouched.
func (c *Coordinator) HandleAction(ctx context.Context, actionID, transactionID string) error {
	action := ParseAction(actionID)

	rating, ok := action.Rating()
	if !ok {
		if c.openApp != nil {
			c.openApp(transactionID)
		}
		return nil
	}

	c.mu.Lock()
	_, exists := c.pending[transactionID]
	c.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoPendingPrompt, transactionID)
	}

	if err := c.ledger.Patch(ctx, transactionID, service.PatchFields{Satisfaction: &rating}); err != nil {
		return fmt.Errorf("failed to patch satisfaction rating: %w", err)
	}

	if c.store != nil {
		if err := c.store.UpdateTransactionSatisfaction(ctx, transactionID, rating); err != nil {
			slog.Warn("Failed to update local rating", "transaction_id", transactionID, "error", err)
		}
	}

	slog.Debug("Notification action resolved prompt",
		"transaction_id", transactionID,
		"action", action.String(),
		"rating", rating)

	return c.settle(ctx, transactionID, model.PromptResolved, "")
}

// Skip dismisses a pending prompt. Terminal; no patch is issued.
func (c *Coordinator) Skip(ctx context.Context, transactionID string) error {
	c.mu.Lock()
	_, exists := c.pending[transactionID]
	c.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoPendingPrompt, transactionID)
	}

	return c.settle(ctx, transactionID, model.PromptSkipped, "")
}

// IsPending reports whether a prompt is pending for the transaction.
func (c *Coordinator) IsPending(transactionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.pending[transactionID]
	return exists
}

// PendingCount returns the number of pending prompts.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Coordinator) settle(ctx context.Context, transactionID string, state model.PromptState, category string) error {
	c.mu.Lock()
	delete(c.pending, transactionID)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.UpdatePromptState(ctx, transactionID, state, category); err != nil {
			return fmt.Errorf("failed to persist prompt state: %w", err)
		}
	}
	return nil
}
