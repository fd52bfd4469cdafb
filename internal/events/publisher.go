package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const metadataEventType = "event_type"

// EventPublisher hands workflow events to the bus. Callers publish only
// after the state change the events describe has committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

func (p *WatermillPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", event.Type, err)
		}
		msg := message.NewMessage(event.ID, payload)
		msg.Metadata.Set(metadataEventType, string(event.Type))
		msg.SetContext(context.WithoutCancel(ctx))
		messages = append(messages, msg)
	}

	if err := p.publisher.Publish(p.topic, messages...); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	for _, event := range events {
		p.logger.DebugContext(ctx, "Published workflow event",
			"event_id", event.ID,
			"event_type", event.Type,
			"user_id", event.UserID)
	}
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// NewGoChannelBus returns an in-process pub/sub. Publish blocks until the
// consumer acks, so a request that published an event can rely on the
// notification being stored before it returns.
func NewGoChannelBus(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewSlogLogger(logger))
}

func decodeEvent(msg *message.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	if event.Type == "" || event.UserID == "" {
		return event, errors.New("event without type or recipient")
	}
	return event, nil
}
