package pipeline

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageLine(t *testing.T) {
	line := `{"sender":"VM-HDFCBK","body":"Rs.250.00 debited","received_at":"2026-08-20T09:30:00Z"}`

	msg, err := ParseMessageLine(line)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "VM-HDFCBK", msg.Sender)
	assert.Equal(t, "Rs.250.00 debited", msg.Body)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC), msg.ReceivedAt)
}

func TestParseMessageLine_MissingTimestamp(t *testing.T) {
	msg, err := ParseMessageLine(`{"sender":"VM-HDFCBK","body":"hello"}`)
	require.NoError(t, err)
	assert.False(t, msg.ReceivedAt.IsZero(), "receipt time falls back to now")
}

func TestParseMessageLine_Malformed(t *testing.T) {
	_, err := ParseMessageLine("not json at all")
	require.Error(t, err)
}

func TestChannelSource_Unsubscribe(t *testing.T) {
	source := NewChannelSource()

	var mu sync.Mutex
	var got []string
	unsubscribe, err := source.Subscribe(func(msg model.RawMessage) {
		mu.Lock()
		got = append(got, msg.Body)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, source.SubscriberCount())

	source.Publish(model.RawMessage{Body: "first"})
	unsubscribe()
	source.Publish(model.RawMessage{Body: "second"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first"}, got)
	assert.Zero(t, source.SubscriberCount())
}

func TestChannelSource_FillsDefaults(t *testing.T) {
	source := NewChannelSource()

	var got model.RawMessage
	_, err := source.Subscribe(func(msg model.RawMessage) { got = msg })
	require.NoError(t, err)

	source.Publish(model.RawMessage{Body: "x"})
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.ReceivedAt.IsZero())
}

func TestReaderSource(t *testing.T) {
	input := strings.Join([]string{
		`{"sender":"VM-HDFCBK","body":"one"}`,
		`garbage line`,
		`{"sender":"VM-HDFCBK","body":"two"}`,
	}, "\n")

	source := NewReaderSource(strings.NewReader(input))

	var mu sync.Mutex
	var bodies []string
	unsubscribe, err := source.Subscribe(func(msg model.RawMessage) {
		mu.Lock()
		bodies = append(bodies, msg.Body)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bodies) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, bodies, "malformed lines are skipped")
}

func TestReaderSource_NilReader(t *testing.T) {
	_, err := NewReaderSource(nil).Subscribe(func(model.RawMessage) {})
	require.Error(t, err)
}

func TestChannelActionSource(t *testing.T) {
	source := NewChannelActionSource()

	var gotAction, gotTxn string
	unsubscribe, err := source.SubscribeActions(func(actionID, transactionID string) {
		gotAction, gotTxn = actionID, transactionID
	})
	require.NoError(t, err)

	source.PublishAction("worth_it", "t1")
	assert.Equal(t, "worth_it", gotAction)
	assert.Equal(t, "t1", gotTxn)

	unsubscribe()
	source.PublishAction("maybe", "t2")
	assert.Equal(t, "worth_it", gotAction, "unsubscribed callbacks see no further actions")
}
