// Package kafka forwards ledger events to a Kafka topic so other systems
// (notifications, analytics) can react to balance changes.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/tallyhq/tally/internal/events"
)

// Publisher is an events.Sink that writes each event as a JSON message
// keyed by source ID, so updates for one record stay in partition order.
type Publisher struct {
	writer *kafka.Writer
}

var _ events.Sink = (*Publisher)(nil)

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Handle forwards the event to Kafka.
func (p *Publisher) Handle(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SourceID),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
