package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// Notifier publishes notification requests to a Kafka topic for a delivery
// service to pick up. It implements alert.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a producer for the notification topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes one notification keyed by its ID.
func (n *Notifier) Notify(ctx context.Context, note domain.Notification) error {
	msg, err := serializeToMessage(note)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	n.logger.Debug("notification published", "id", note.ID, "category", note.Category, "topic", n.writer.Topic)
	return nil
}

// Close flushes pending messages and closes the producer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a Notification into a Kafka message.
func serializeToMessage(note domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(note)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(note.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(note.Category)},
			{Key: "created_at", Value: []byte(note.Created.Format(time.RFC3339))},
		},
	}, nil
}
