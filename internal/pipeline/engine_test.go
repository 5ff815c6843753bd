package pipeline

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/paisaflow/paisaflow/internal/feedback"
	"github.com/paisaflow/paisaflow/internal/filter"
	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/paisaflow/paisaflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mu        sync.Mutex
	submitted []model.Transaction
	submitErr error
	nextID    int
}

func (m *mockLedger) Submit(_ context.Context, txn model.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.nextID++
	m.submitted = append(m.submitted, txn)
	return "ledger-" + strconv.Itoa(m.nextID), nil
}

func (m *mockLedger) Patch(_ context.Context, _ string, _ service.PatchFields) error {
	return nil
}

func (m *mockLedger) submitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submitted)
}

func acceptAll(t *testing.T) *filter.SenderFilter {
	t.Helper()
	f, err := filter.New(nil)
	require.NoError(t, err)
	return f
}

func bankOnly(t *testing.T) *filter.SenderFilter {
	t.Helper()
	f, err := filter.New([]string{"VM-HDFCBK"})
	require.NoError(t, err)
	return f
}

func message(sender, body string) model.RawMessage {
	return model.RawMessage{
		ID:         "m1",
		Sender:     sender,
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

func TestProcess_Submitted(t *testing.T) {
	ledger := &mockLedger{}
	engine := New(acceptAll(t), ledger)

	outcome, err := engine.Process(context.Background(),
		message("VM-HDFCBK", "Rs.250.00 debited at Swiggy UPI Ref1234567"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	require.Equal(t, 1, ledger.submitCount())

	txn := ledger.submitted[0]
	assert.InDelta(t, 250.00, txn.Amount, 0.001)
	assert.Equal(t, "Swiggy", txn.Vendor)
	assert.Equal(t, model.DirectionDebit, txn.Direction)
}

func TestProcess_Filtered(t *testing.T) {
	ledger := &mockLedger{}
	engine := New(bankOnly(t), ledger)

	outcome, err := engine.Process(context.Background(),
		message("VM-PROMO", "Rs.250.00 debited at Swiggy"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeFiltered, outcome)
	assert.Zero(t, ledger.submitCount(), "filtered messages never reach the ledger")
}

func TestProcess_Noise(t *testing.T) {
	ledger := &mockLedger{}
	engine := New(acceptAll(t), ledger)

	outcome, err := engine.Process(context.Background(),
		message("VM-HDFCBK", "Your OTP is 482913"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoise, outcome)
	assert.Zero(t, ledger.submitCount())
}

func TestProcess_DeliveryError(t *testing.T) {
	ledger := &mockLedger{submitErr: assert.AnError}
	engine := New(acceptAll(t), ledger)

	outcome, err := engine.Process(context.Background(),
		message("VM-HDFCBK", "Rs.250.00 debited at Swiggy"))

	require.Error(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Equal(t, 1, engine.Stats().Failed)
}

func TestProcess_Stats(t *testing.T) {
	ledger := &mockLedger{}
	engine := New(bankOnly(t), ledger)
	ctx := context.Background()

	_, _ = engine.Process(ctx, message("VM-HDFCBK", "Rs.250.00 debited at Swiggy"))
	_, _ = engine.Process(ctx, message("VM-HDFCBK", "Your OTP is 482913"))
	_, _ = engine.Process(ctx, message("VM-PROMO", "Rs.99 off today only"))

	stats := engine.Stats()
	assert.Equal(t, 3, stats.Received)
	assert.Equal(t, 1, stats.Submitted)
	assert.Equal(t, 1, stats.Noise)
	assert.Equal(t, 1, stats.Filtered)
	assert.Zero(t, stats.Failed)
}

func TestProcess_TriggersFeedbackPrompt(t *testing.T) {
	ledger := &mockLedger{}
	coordinator := feedback.New(ledger)
	engine := New(acceptAll(t), ledger, WithFeedback(coordinator))

	// Every auto transaction starts under the default category, so it
	// solicits feedback.
	outcome, err := engine.Process(context.Background(),
		message("VM-HDFCBK", "Rs.250.00 debited at Swiggy"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Equal(t, 1, coordinator.PendingCount())
	assert.Equal(t, 1, engine.Stats().Prompted)
}

func TestRun_EndToEnd(t *testing.T) {
	ledger := &mockLedger{}
	source := NewChannelSource()
	engine := New(bankOnly(t), ledger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx, source) }()

	require.Eventually(t, func() bool {
		return source.SubscriberCount() == 1
	}, 2*time.Second, time.Millisecond)

	source.Publish(message("VM-HDFCBK", "Rs.250.00 debited at Swiggy UPI Ref1234567"))
	source.Publish(message("VM-HDFCBK", "Your OTP is 482913"))
	source.Publish(message("VM-PROMO", "Rs.99 off today only"))
	source.Publish(message("VM-HDFCBK", "You have received INR 5,000 from Rahul"))

	require.Eventually(t, func() bool {
		stats := engine.Stats()
		return stats.Received == 4 && stats.Submitted == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	stats := engine.Stats()
	assert.Equal(t, 1, stats.Noise)
	assert.Equal(t, 1, stats.Filtered)
	assert.Equal(t, 2, ledger.submitCount())
}

func TestRun_StopsDispatchAfterCancel(t *testing.T) {
	ledger := &mockLedger{}
	source := NewChannelSource()
	engine := New(acceptAll(t), ledger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx, source) }()

	require.Eventually(t, func() bool {
		return source.SubscriberCount() == 1
	}, 2*time.Second, time.Millisecond)

	source.Publish(message("VM-HDFCBK", "Rs.100 debited at A"))
	require.Eventually(t, func() bool {
		return engine.Stats().Submitted == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	// The subscription is torn down, so later publishes go nowhere.
	source.Publish(message("VM-HDFCBK", "Rs.200 debited at B"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, ledger.submitCount())
}

func TestRunActions_ForwardsToFeedback(t *testing.T) {
	ledger := &mockLedger{}
	coordinator := feedback.New(ledger)
	engine := New(acceptAll(t), ledger, WithFeedback(coordinator))

	_, err := coordinator.Trigger(context.Background(), model.Transaction{
		ID:       "t1",
		Category: model.CategoryOther,
	})
	require.NoError(t, err)

	source := NewChannelActionSource()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.RunActions(ctx, source) }()

	require.Eventually(t, func() bool {
		return source.SubscriberCount() == 1
	}, 2*time.Second, time.Millisecond)

	source.PublishAction("worth_it", "t1")
	require.Eventually(t, func() bool {
		return !coordinator.IsPending("t1")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	err = <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunActions_NoFeedbackConfigured(t *testing.T) {
	engine := New(acceptAll(t), &mockLedger{})
	err := engine.RunActions(context.Background(), NewChannelActionSource())
	assert.NoError(t, err)
}
