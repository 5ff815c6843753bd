package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paisaflow/paisaflow/internal/model"
)

// ChannelSource is a message source fed programmatically, used by tests
// and by applications that receive message broadcasts through their own
// platform channel.
type ChannelSource struct {
	subs map[int]func(model.RawMessage)
	next int
	mu   sync.Mutex
}

// NewChannelSource creates an empty channel source.
func NewChannelSource() *ChannelSource {
	return &ChannelSource{subs: make(map[int]func(model.RawMessage))}
}

// Subscribe registers a callback. The returned function removes it;
// messages published afterwards are no longer dispatched to it.
func (s *ChannelSource) Subscribe(onMessage func(model.RawMessage)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs[id] = onMessage

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}, nil
}

// SubscriberCount reports how many subscribers are registered. Callers
// that publish from a different goroutine than the subscriber can use it
// to wait for the subscription before publishing.
func (s *ChannelSource) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Publish dispatches a message to all current subscribers.
func (s *ChannelSource) Publish(msg model.RawMessage) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	s.mu.Lock()
	subs := make([]func(model.RawMessage), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(msg)
	}
}

// ChannelActionSource feeds notification action responses the same way.
type ChannelActionSource struct {
	subs map[int]func(actionID, transactionID string)
	next int
	mu   sync.Mutex
}

// NewChannelActionSource creates an empty action source.
func NewChannelActionSource() *ChannelActionSource {
	return &ChannelActionSource{subs: make(map[int]func(string, string))}
}

// SubscribeActions registers a callback and returns its teardown.
func (s *ChannelActionSource) SubscribeActions(onAction func(actionID, transactionID string)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs[id] = onAction

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}, nil
}

// SubscriberCount reports how many action subscribers are registered.
func (s *ChannelActionSource) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// PublishAction dispatches an action response to all current subscribers.
func (s *ChannelActionSource) PublishAction(actionID, transactionID string) {
	s.mu.Lock()
	subs := make([]func(string, string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(actionID, transactionID)
	}
}

// readerMessage is the JSONL wire form consumed by ReaderSource.
type readerMessage struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// ReaderSource streams JSONL messages from a reader (stdin, a tailed
// export file). Each line is one message: {"sender", "body", "received_at"}.
type ReaderSource struct {
	reader io.Reader
}

// NewReaderSource creates a source reading from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{reader: r}
}

// Subscribe starts a goroutine that scans lines and dispatches them until
// EOF or unsubscribe. Malformed lines are logged and skipped.
func (s *ReaderSource) Subscribe(onMessage func(model.RawMessage)) (func(), error) {
	if s.reader == nil {
		return nil, fmt.Errorf("reader source has no reader")
	}

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() { once.Do(func() { close(done) }) }

	go func() {
		scanner := bufio.NewScanner(s.reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case <-done:
				return
			default:
			}

			msg, err := ParseMessageLine(scanner.Text())
			if err != nil {
				slog.Debug("Skipping malformed message line", "error", err)
				continue
			}
			onMessage(msg)
		}

		if err := scanner.Err(); err != nil {
			slog.Error("Message stream read failed", "error", err)
		}
	}()

	return unsubscribe, nil
}

// ParseMessageLine decodes one JSONL message line into a RawMessage,
// filling in an id and receipt time when absent.
func ParseMessageLine(line string) (model.RawMessage, error) {
	var rm readerMessage
	if err := json.Unmarshal([]byte(line), &rm); err != nil {
		return model.RawMessage{}, fmt.Errorf("failed to decode message line: %w", err)
	}

	receivedAt := rm.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	return model.RawMessage{
		ID:         uuid.New().String(),
		Sender:     rm.Sender,
		Body:       rm.Body,
		ReceivedAt: receivedAt,
	}, nil
}
