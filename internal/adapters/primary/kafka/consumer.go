package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lorrc/sla-sentinel/internal/adapters/primary/validation"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
	"github.com/lorrc/sla-sentinel/internal/infrastructure/logging"
)

// ConsumerConfig holds the inbound ticket-event stream configuration.
type ConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	Workers        int
	HandlerTimeout time.Duration
}

// Consumer reads ticket events from the inbound topic and feeds them to
// the evaluation service. Offsets are committed per message:
//   - processed events commit
//   - malformed events commit (redelivery cannot fix them)
//   - retryable failures do not commit, so the event is redelivered
type Consumer struct {
	reader     *kafka.Reader
	evaluation ports.EvaluationService
	validator  *validation.Validator
	workers    int
	timeout    time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewConsumer creates the ticket-event consumer.
func NewConsumer(cfg ConsumerConfig, evaluation ports.EvaluationService, validator *validation.Validator, logger *slog.Logger) *Consumer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...), "component", "kafka-reader")
		}),
	})

	return &Consumer{
		reader:     reader,
		evaluation: evaluation,
		validator:  validator,
		workers:    cfg.Workers,
		timeout:    cfg.HandlerTimeout,
		logger:     logger.With("component", "ticket_consumer"),
	}
}

// Run consumes until the context is cancelled. Blocking; call in its own
// goroutine and cancel the context to stop.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("ticket event consumer starting", "workers", c.workers)

	messages := make(chan kafka.Message)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for msg := range messages {
				c.handle(ctx, msg)
			}
		}()
	}

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			c.logger.Error("failed to fetch message", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				continue
			}
			break
		}

		select {
		case messages <- msg:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	close(messages)
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("close ticket consumer: %w", err)
	}
	return nil
}

// handle processes one inbound message end to end.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	handleCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var req validation.TicketEventRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.logger.Warn("discarding unparseable ticket event",
			"error", err,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		c.commit(ctx, msg)
		return
	}

	event, err := c.validator.TicketEvent(req)
	if err != nil {
		c.logger.Warn("discarding invalid ticket event",
			"error", err,
			"ticket_id", req.TicketID,
			"offset", msg.Offset,
		)
		c.commit(ctx, msg)
		return
	}

	handleCtx = logging.WithTicketID(handleCtx, event.TicketID)

	if _, err := c.evaluation.Evaluate(handleCtx, event); err != nil {
		if apperrors.IsRetryable(err) {
			// Leave the offset uncommitted so the event is redelivered.
			c.logger.Error("evaluation failed, event will be redelivered",
				"error", err,
				"ticket_id", event.TicketID,
				"offset", msg.Offset,
			)
			return
		}
		c.logger.Error("evaluation failed, discarding event",
			"error", err,
			"ticket_id", event.TicketID,
			"offset", msg.Offset,
		)
	}

	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit offset", "error", err, "offset", msg.Offset)
	}
}
