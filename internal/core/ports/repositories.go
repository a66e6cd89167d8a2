package ports

import (
	"context"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

// RiskStateRepository is the append-only per-ticket risk snapshot log.
// Append never overwrites; Latest returns the most recent snapshot by
// calculation time. Write failures surface as retryable errors.
type RiskStateRepository interface {
	Append(ctx context.Context, metrics *domain.SLAMetrics) error
	Latest(ctx context.Context, ticketID string) (*domain.SLAMetrics, error)
	History(ctx context.Context, ticketID string, limit int) ([]*domain.SLAMetrics, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TicketRepository stores the latest known state of each ticket so that
// scheduled sweeps can re-evaluate active tickets between events.
type TicketRepository interface {
	Upsert(ctx context.Context, ticket *domain.TicketSnapshot) error
	GetByID(ctx context.Context, ticketID string) (*domain.TicketSnapshot, error)
	ListActive(ctx context.Context, limit int) ([]*domain.TicketSnapshot, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
