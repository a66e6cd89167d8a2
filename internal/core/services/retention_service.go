package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// RetentionService purges snapshots and ticket state older than the
// retention window. Nothing is deleted earlier.
type RetentionService struct {
	store   ports.RiskStateRepository
	tickets ports.TicketRepository
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.RetentionService = (*RetentionService)(nil)

// NewRetentionService creates a new retention service. A non-positive
// window falls back to the documented 90-day default.
func NewRetentionService(store ports.RiskStateRepository, tickets ports.TicketRepository, window time.Duration, logger *slog.Logger) *RetentionService {
	if window <= 0 {
		window = 90 * 24 * time.Hour
	}
	return &RetentionService{
		store:   store,
		tickets: tickets,
		window:  window,
		logger:  logger.With("component", "retention_service"),
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *RetentionService) WithClock(now func() time.Time) *RetentionService {
	s.now = now
	return s
}

// Purge removes all records older than the retention cutoff.
func (s *RetentionService) Purge(ctx context.Context) error {
	cutoff := s.now().Add(-s.window)

	snapshots, err := s.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	tickets, err := s.tickets.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	s.logger.Info("retention purge complete",
		"cutoff", cutoff.UTC().Format(time.RFC3339),
		"snapshots_purged", snapshots,
		"tickets_purged", tickets,
	)
	return nil
}
