package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// Publisher writes output events to the downstream risk topic. Messages
// are keyed by ticket ID so all events for one ticket stay in order on
// the same partition.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a Kafka-backed event publisher.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...), "component", "kafka-writer")
		}),
	}

	return &Publisher{
		writer: writer,
		logger: logger.With("component", "kafka_publisher"),
	}
}

// Publish marshals the event and writes it to the output topic.
func (p *Publisher) Publish(ctx context.Context, event domain.OutputEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal output event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TicketID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write output event: %w", err)
	}

	p.logger.DebugContext(ctx, "output event published",
		"event_type", event.Type,
		"ticket_id", event.TicketID,
	)
	return nil
}

// Close flushes buffered messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
