package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records events in memory for assertions.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	for _, event := range events {
		m.logger.Debug("Mock published event", "event_type", event.Type, "user_id", event.UserID)
	}
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// FailWith makes every following Publish return err.
func (m *MockEventPublisher) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MockEventPublisher) GetPublishedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types lists published event types in order.
func (m *MockEventPublisher) Types() []EventType {
	events := m.GetPublishedEvents()
	out := make([]EventType, len(events))
	for i, event := range events {
		out[i] = event.Type
	}
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
