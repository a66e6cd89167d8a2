package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// AdjustmentService applies feedback from downstream automation to a
// ticket's stored risk state. Adjustments always derive a new snapshot
// from the latest one and append it; history is never rewritten.
type AdjustmentService struct {
	store     ports.RiskStateRepository
	publisher ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.AdjustmentService = (*AdjustmentService)(nil)

// NewAdjustmentService creates a new adjustment service.
func NewAdjustmentService(store ports.RiskStateRepository, publisher ports.EventPublisher, logger *slog.Logger) *AdjustmentService {
	return &AdjustmentService{
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "adjustment_service"),
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *AdjustmentService) WithClock(now func() time.Time) *AdjustmentService {
	s.now = now
	return s
}

// Apply reads the latest snapshot, derives the adjusted one, and appends
// it. An adjustment for a ticket with no recorded state is reported as
// not found; no partial state is created.
func (s *AdjustmentService) Apply(ctx context.Context, ticketID string, adjustment domain.AdjustmentEvent) (*domain.SLAMetrics, error) {
	latest, err := s.store.Latest(ctx, ticketID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSnapshotNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, err
	}

	adjusted := adjustment.Apply(*latest, s.now())
	if err := s.store.Append(ctx, &adjusted); err != nil {
		return nil, err
	}

	s.logger.Info("risk adjustment applied",
		"ticket_id", ticketID,
		"source", adjustment.Source.String(),
		"probability_delta", adjustment.BreachProbabilityDelta,
		"time_saved_minutes", adjustment.TimeSavedMinutes,
		"new_probability", adjusted.BreachProbability,
	)

	event := domain.OutputEvent{
		Type:       domain.EventRiskAdjusted,
		TicketID:   ticketID,
		Payload:    domain.NewMetricUpdateEvent(adjusted).Payload,
		OccurredAt: adjusted.CalculatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish adjustment event",
			"ticket_id", ticketID,
			"error", err,
		)
	}

	return &adjusted, nil
}
