package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// ActionDispatcher executes resolved actions by publishing one output
// event per action. Execution is deliberately non-transactional: each
// action is attempted on its own, failures are recorded and the rest of
// the set continues.
type ActionDispatcher struct {
	publisher ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.ActionExecutor = (*ActionDispatcher)(nil)

// NewActionDispatcher creates a new action dispatcher.
func NewActionDispatcher(publisher ports.EventPublisher, logger *slog.Logger) *ActionDispatcher {
	return &ActionDispatcher{
		publisher: publisher,
		logger:    logger.With("component", "action_dispatcher"),
		now:       time.Now,
	}
}

// WithClock overrides the dispatcher clock. Intended for tests.
func (d *ActionDispatcher) WithClock(now func() time.Time) *ActionDispatcher {
	d.now = now
	return d
}

// Execute runs every recommended action independently and returns one
// record per action, failed ones included.
func (d *ActionDispatcher) Execute(ctx context.Context, ticket *domain.TicketSnapshot, prediction domain.Prediction) []domain.ActionRecord {
	records := make([]domain.ActionRecord, 0, len(prediction.RecommendedActions))

	for _, action := range prediction.RecommendedActions {
		record := domain.ActionRecord{
			Action:    action,
			TicketID:  ticket.TicketID,
			Success:   true,
			Timestamp: d.now().UTC(),
		}

		event := domain.NewActionEvent(record, prediction.FinalProbability)
		if err := d.publisher.Publish(ctx, event); err != nil {
			record.Success = false
			record.Description = fmt.Sprintf("publish failed: %v", err)
			d.logger.Error("action execution failed",
				"action", action,
				"ticket_id", ticket.TicketID,
				"error", err,
			)
		} else {
			record.Description = fmt.Sprintf("emitted %s", event.Type)
		}

		records = append(records, record)
	}

	return records
}
