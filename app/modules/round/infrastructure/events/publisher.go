package roundevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Metadata keys set on every published round event.
const (
	MetadataTopic       = "topic"
	MetadataContentType = "content_type"
)

// Publisher marshals round event payloads onto a watermill publisher.
type Publisher struct {
	pub    message.Publisher
	logger *slog.Logger
}

// NewPublisher wraps pub.
func NewPublisher(pub message.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{pub: pub, logger: logger}
}

// Publish sends payload as JSON on topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataTopic, topic)
	msg.Metadata.Set(MetadataContentType, "application/json")
	msg.SetContext(ctx)

	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "Published round event",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)
	return nil
}
