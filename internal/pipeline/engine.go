// Package pipeline wires the extraction stages into a message-processing
// engine: sender filter, extractor, classifier, normalizer, delivery.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/paisaflow/paisaflow/internal/extract"
	"github.com/paisaflow/paisaflow/internal/feedback"
	"github.com/paisaflow/paisaflow/internal/filter"
	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/paisaflow/paisaflow/internal/normalize"
	"github.com/paisaflow/paisaflow/internal/service"
)

// Outcome describes what the pipeline did with one message.
type Outcome int

// Message outcomes.
const (
	// OutcomeFiltered means the sender was rejected before extraction.
	OutcomeFiltered Outcome = iota
	// OutcomeNoise means extraction found no financial signal.
	OutcomeNoise
	// OutcomeSubmitted means a transaction was delivered to the ledger.
	OutcomeSubmitted
)

// Config holds tunables for the engine.
type Config struct {
	// QueueSize bounds the channel between message arrival and
	// classification.
	QueueSize int
	// DeliveryWorkers is the fan-out for ledger submissions, so a slow
	// network call for one message does not delay classification of the
	// next.
	DeliveryWorkers int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:       64,
		DeliveryWorkers: 4,
	}
}

// Stats counts what the engine has processed so far.
type Stats struct {
	Received  int
	Filtered  int
	Noise     int
	Submitted int
	Failed    int
	Prompted  int
}

// Engine consumes raw messages, classifies them in arrival order on a
// single consumer loop (preserving per-source order), and fans delivery
// out to workers. Extraction, classification, and normalization are pure,
// so the only shared state is the delivery side.
type Engine struct {
	senderFilter *filter.SenderFilter
	ledger       service.LedgerClient
	store        service.Storage
	feedback     *feedback.Coordinator
	stats        Stats
	config       Config
	statsMu      sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithStore records submitted transactions in the local working-state store.
func WithStore(store service.Storage) Option {
	return func(e *Engine) { e.store = store }
}

// WithFeedback triggers feedback prompts for uncategorized transactions.
func WithFeedback(coordinator *feedback.Coordinator) Option {
	return func(e *Engine) { e.feedback = coordinator }
}

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(e *Engine) { e.config = config }
}

// New creates a pipeline engine.
func New(senderFilter *filter.SenderFilter, ledger service.LedgerClient, opts ...Option) *Engine {
	e := &Engine{
		senderFilter: senderFilter,
		ledger:       ledger,
		config:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.config.QueueSize <= 0 {
		e.config.QueueSize = DefaultConfig().QueueSize
	}
	if e.config.DeliveryWorkers <= 0 {
		e.config.DeliveryWorkers = DefaultConfig().DeliveryWorkers
	}
	return e
}

// Run subscribes to the source and processes messages until ctx is done.
// Cancellation stops dispatch of further messages but lets deliveries
// already handed to a worker run to completion or failure.
func (e *Engine) Run(ctx context.Context, source service.MessageSource) error {
	queue := make(chan model.RawMessage, e.config.QueueSize)
	deliveries := make(chan model.Transaction, e.config.QueueSize)

	// In-flight deliveries must survive unsubscription.
	deliveryCtx := context.WithoutCancel(ctx)

	var workers sync.WaitGroup
	for i := 0; i < e.config.DeliveryWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for txn := range deliveries {
				e.deliver(deliveryCtx, txn)
			}
		}()
	}

	unsubscribe, err := source.Subscribe(func(msg model.RawMessage) {
		select {
		case queue <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		close(deliveries)
		workers.Wait()
		return err
	}

	slog.Info("Pipeline running",
		"queue_size", e.config.QueueSize,
		"delivery_workers", e.config.DeliveryWorkers)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case msg := <-queue:
			txn, _ := e.classifyMessage(msg)
			if txn == nil {
				continue
			}
			select {
			case deliveries <- *txn:
			case <-ctx.Done():
				break loop
			}
		}
	}

	unsubscribe()
	close(deliveries)
	workers.Wait()

	stats := e.Stats()
	slog.Info("Pipeline stopped",
		"received", stats.Received,
		"submitted", stats.Submitted,
		"noise", stats.Noise,
		"failed", stats.Failed)

	return ctx.Err()
}

// RunActions forwards notification action responses to the feedback
// coordinator until ctx is done.
func (e *Engine) RunActions(ctx context.Context, source service.ActionSource) error {
	if e.feedback == nil {
		return nil
	}

	actionCtx := context.WithoutCancel(ctx)
	unsubscribe, err := source.SubscribeActions(func(actionID, transactionID string) {
		if handleErr := e.feedback.HandleAction(actionCtx, actionID, transactionID); handleErr != nil {
			slog.Error("Failed to handle notification action",
				"action_id", actionID,
				"transaction_id", transactionID,
				"error", handleErr)
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

// Process runs the full pipeline for a single message synchronously.
// Used by batch replay, where the caller controls pacing.
func (e *Engine) Process(ctx context.Context, msg model.RawMessage) (Outcome, error) {
	txn, outcome := e.classifyMessage(msg)
	if txn == nil {
		return outcome, nil
	}

	if err := e.deliver(ctx, *txn); err != nil {
		return OutcomeSubmitted, err
	}
	return OutcomeSubmitted, nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// classifyMessage runs the pure stages: filter, extract, classify,
// normalize. A nil transaction means the message was filtered or noise,
// distinguished by the returned outcome.
func (e *Engine) classifyMessage(msg model.RawMessage) (*model.Transaction, Outcome) {
	e.bump(func(s *Stats) { s.Received++ })

	if !e.senderFilter.Accept(msg.Sender) {
		e.bump(func(s *Stats) { s.Filtered++ })
		return nil, OutcomeFiltered
	}

	result := extract.Classify(msg.Body)
	txn, ok := normalize.Normalize(result, normalize.MessageContext{
		ReceivedAt: msg.ReceivedAt,
		Sender:     msg.Sender,
		Body:       msg.Body,
	})
	if !ok {
		// Parse noise: no financial signal, silently dropped.
		e.bump(func(s *Stats) { s.Noise++ })
		slog.Debug("Message classified as noise", "sender", msg.Sender)
		return nil, OutcomeNoise
	}

	return txn, OutcomeSubmitted
}

// deliver submits one transaction, records it locally, and triggers a
// feedback prompt when the category is uncertain. Exactly one attempt:
// the pipeline favors at-most-once delivery over silent duplication.
func (e *Engine) deliver(ctx context.Context, txn model.Transaction) error {
	ledgerID, err := e.ledger.Submit(ctx, txn)
	if err != nil {
		e.bump(func(s *Stats) { s.Failed++ })
		slog.Error("Delivery failed", "vendor", txn.Vendor, "amount", txn.Amount, "error", err)
		return err
	}

	txn.ID = ledgerID
	e.bump(func(s *Stats) { s.Submitted++ })

	if e.store != nil {
		if saveErr := e.store.SaveTransaction(ctx, &txn); saveErr != nil {
			slog.Warn("Failed to record transaction locally", "ledger_id", ledgerID, "error", saveErr)
		}
	}

	if e.feedback != nil {
		created, promptErr := e.feedback.Trigger(ctx, txn)
		if promptErr != nil {
			slog.Warn("Failed to trigger feedback prompt", "ledger_id", ledgerID, "error", promptErr)
		}
		if created {
			e.bump(func(s *Stats) { s.Prompted++ })
		}
	}

	return nil
}

func (e *Engine) bump(fn func(*Stats)) {
	e.statsMu.Lock()
	fn(&e.stats)
	e.statsMu.Unlock()
}
