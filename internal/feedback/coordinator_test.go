package feedback

import (
	"context"
	"sync"
	"testing"

	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/paisaflow/paisaflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mu       sync.Mutex
	patches  []service.PatchFields
	patchIDs []string
	patchErr error
}

func (m *mockLedger) Submit(_ context.Context, _ model.Transaction) (string, error) {
	return "ledger-id", nil
}

func (m *mockLedger) Patch(_ context.Context, id string, fields service.PatchFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.patchErr != nil {
		return m.patchErr
	}
	m.patches = append(m.patches, fields)
	m.patchIDs = append(m.patchIDs, id)
	return nil
}

func (m *mockLedger) patchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patches)
}

func uncertainTransaction(id string) model.Transaction {
	return model.Transaction{
		ID:         id,
		Amount:     100,
		Category:   model.CategoryOther,
		Confidence: 0.6,
	}
}

func TestNeedsPrompt(t *testing.T) {
	tests := []struct {
		name string
		txn  model.Transaction
		want bool
	}{
		{
			name: "default category",
			txn:  model.Transaction{Category: model.CategoryOther, Confidence: 0.9},
			want: true,
		},
		{
			name: "low confidence",
			txn:  model.Transaction{Category: "Food", Confidence: 0.3},
			want: true,
		},
		{
			name: "confident and categorized",
			txn:  model.Transaction{Category: "Food", Confidence: 0.9},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsPrompt(tt.txn))
		})
	}
}

func TestCoordinator_Trigger(t *testing.T) {
	c := New(&mockLedger{})

	created, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, c.IsPending("t1"))
	assert.Equal(t, 1, c.PendingCount())
}

func TestCoordinator_TriggerConflictIsSilent(t *testing.T) {
	c := New(&mockLedger{})

	created, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err, "second trigger is a no-op, not an error")
	assert.False(t, created)
	assert.Equal(t, 1, c.PendingCount())
}

func TestCoordinator_TriggerNotNeeded(t *testing.T) {
	c := New(&mockLedger{})

	created, err := c.Trigger(context.Background(), model.Transaction{
		ID: "t1", Category: "Food", Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, c.PendingCount())
}

func TestCoordinator_ResolveCategory(t *testing.T) {
	ledger := &mockLedger{}
	c := New(ledger)

	_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)

	require.NoError(t, c.ResolveCategory(context.Background(), "t1", "Food"))

	assert.False(t, c.IsPending("t1"), "resolution is terminal")
	require.Equal(t, 1, ledger.patchCount())
	assert.Equal(t, "t1", ledger.patchIDs[0])
	require.NotNil(t, ledger.patches[0].Category)
	assert.Equal(t, "Food", *ledger.patches[0].Category)
	assert.Nil(t, ledger.patches[0].Satisfaction)

	err = c.ResolveCategory(context.Background(), "t1", "Food")
	assert.ErrorIs(t, err, ErrNoPendingPrompt)
}

func TestCoordinator_ResolveUnknownCategory(t *testing.T) {
	ledger := &mockLedger{}
	c := New(ledger)

	_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)

	err = c.ResolveCategory(context.Background(), "t1", "Gambling")
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.True(t, c.IsPending("t1"))
	assert.Zero(t, ledger.patchCount())
}

func TestCoordinator_ResolveWithoutPrompt(t *testing.T) {
	c := New(&mockLedger{})
	err := c.ResolveCategory(context.Background(), "ghost", "Food")
	assert.ErrorIs(t, err, ErrNoPendingPrompt)
}

func TestCoordinator_PatchFailureKeepsPromptPending(t *testing.T) {
	ledger := &mockLedger{patchErr: assert.AnError}
	c := New(ledger)

	_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)

	err = c.ResolveCategory(context.Background(), "t1", "Food")
	require.Error(t, err)
	assert.True(t, c.IsPending("t1"), "failed patch leaves the prompt pending for retry")

	// Retry succeeds once the ledger recovers.
	ledger.mu.Lock()
	ledger.patchErr = nil
	ledger.mu.Unlock()
	require.NoError(t, c.ResolveCategory(context.Background(), "t1", "Food"))
	assert.False(t, c.IsPending("t1"))
}

func TestCoordinator_HandleAction(t *testing.T) {
	tests := []struct {
		actionID string
		rating   int
	}{
		{actionID: "worth_it", rating: 5},
		{actionID: "maybe", rating: 3},
		{actionID: "not_worth_it", rating: 1},
	}

	for _, tt := range tests {
		t.Run(tt.actionID, func(t *testing.T) {
			ledger := &mockLedger{}
			c := New(ledger)

			_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
			require.NoError(t, err)

			require.NoError(t, c.HandleAction(context.Background(), tt.actionID, "t1"))

			assert.False(t, c.IsPending("t1"))
			require.Equal(t, 1, ledger.patchCount())
			require.NotNil(t, ledger.patches[0].Satisfaction)
			assert.Equal(t, tt.rating, *ledger.patches[0].Satisfaction)
			assert.Nil(t, ledger.patches[0].Category)
		})
	}
}

func TestCoordinator_UnknownActionOpensApp(t *testing.T) {
	ledger := &mockLedger{}
	var opened []string
	c := New(ledger, WithOpenApp(func(id string) { opened = append(opened, id) }))

	_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)

	require.NoError(t, c.HandleAction(context.Background(), "tapped_body", "t1"))

	assert.Equal(t, []string{"t1"}, opened)
	assert.True(t, c.IsPending("t1"), "open-app leaves the state machine untouched")
	assert.Zero(t, ledger.patchCount())
}

func TestCoordinator_ActionFailureKeepsPromptPending(t *testing.T) {
	ledger := &mockLedger{patchErr: assert.AnError}
	c := New(ledger)

	_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)

	err = c.HandleAction(context.Background(), "worth_it", "t1")
	require.Error(t, err)
	assert.True(t, c.IsPending("t1"))
}

func TestCoordinator_Skip(t *testing.T) {
	ledger := &mockLedger{}
	c := New(ledger)

	_, err := c.Trigger(context.Background(), uncertainTransaction("t1"))
	require.NoError(t, err)

	require.NoError(t, c.Skip(context.Background(), "t1"))

	assert.False(t, c.IsPending("t1"))
	assert.Zero(t, ledger.patchCount(), "skip never patches the ledger")

	err = c.Skip(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrNoPendingPrompt, "skip is terminal")
}
