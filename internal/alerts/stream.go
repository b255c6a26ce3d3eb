package alerts

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Sink receives raised alerts.
type Sink interface {
	Publish(ctx context.Context, alerts ...model.Alert) error
}

// Stream fans alerts out to in-process subscribers. Sends never block: a
// subscriber whose buffer is full misses the alert.
type Stream struct {
	subscribers map[int]chan model.Alert
	nextID      int
	closed      bool
	mu          sync.Mutex
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{subscribers: make(map[int]chan model.Alert)}
}

// Subscribe returns a channel receiving future alerts and a function that
// unsubscribes and closes it.
func (s *Stream) Subscribe(buffer int) (<-chan model.Alert, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan model.Alert, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Publish implements Sink.
func (s *Stream) Publish(_ context.Context, alerts ...model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, alert := range alerts {
		for id, ch := range s.subscribers {
			select {
			case ch <- alert:
			default:
				slog.Warn("Alert subscriber is full, dropping alert", "subscriber", id, "budget_id", alert.BudgetID)
			}
		}
	}
	return nil
}

// Close closes every subscriber channel. Later subscriptions are closed
// immediately.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// MultiSink publishes to every sink in order and returns the first error
// after trying them all.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, alerts ...model.Alert) error {
	var first error
	for _, sink := range m {
		if err := sink.Publish(ctx, alerts...); err != nil && first == nil {
			first = err
		}
	}
	return first
}
