package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Sink stores a delivered event, typically as an inbox notification.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// NotificationConsumer drains the workflow topic into a Sink.
type NotificationConsumer struct {
	subscriber message.Subscriber
	topic      string
	sink       Sink
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

func NewNotificationConsumer(subscriber message.Subscriber, topic string, sink Sink, logger *slog.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		subscriber: subscriber,
		topic:      topic,
		sink:       sink,
		logger:     logger,
		attempts:   3,
		backoff:    50 * time.Millisecond,
	}
}

// Start subscribes and consumes in the background until ctx is cancelled or
// the subscriber is closed. The returned channel closes when consumption ends.
func (c *NotificationConsumer) Start(ctx context.Context) (<-chan struct{}, error) {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			c.handle(msg)
		}
	}()
	return done, nil
}

// handle always acks: an event that cannot be stored after the retries is
// logged and dropped so one bad message never stalls the topic.
func (c *NotificationConsumer) handle(msg *message.Message) {
	defer msg.Ack()

	event, err := decodeEvent(msg)
	if err != nil {
		c.logger.Error("Dropping undecodable workflow event", "message_id", msg.UUID, "error", err)
		return
	}

	ctx := msg.Context()
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.sink.Record(ctx, event); err == nil {
			return
		}
		c.logger.Warn("Failed to record workflow event",
			"event_id", event.ID,
			"event_type", event.Type,
			"attempt", attempt,
			"error", err)
		time.Sleep(c.backoff)
	}
	c.logger.Error("Dropping workflow event after retries", "event_id", event.ID, "event_type", event.Type, "error", err)
}
