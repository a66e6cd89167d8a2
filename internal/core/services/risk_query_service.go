package services

import (
	"context"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// RiskQueryService exposes read access to the risk state store.
type RiskQueryService struct {
	store ports.RiskStateRepository
}

var _ ports.RiskQueryService = (*RiskQueryService)(nil)

// NewRiskQueryService creates a new risk query service.
func NewRiskQueryService(store ports.RiskStateRepository) *RiskQueryService {
	return &RiskQueryService{store: store}
}

// Latest returns the most recent risk snapshot for a ticket.
func (s *RiskQueryService) Latest(ctx context.Context, ticketID string) (*domain.SLAMetrics, error) {
	return s.store.Latest(ctx, ticketID)
}

// History returns the newest-first snapshot history for a ticket.
func (s *RiskQueryService) History(ctx context.Context, ticketID string, limit int) ([]*domain.SLAMetrics, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.History(ctx, ticketID, limit)
}
