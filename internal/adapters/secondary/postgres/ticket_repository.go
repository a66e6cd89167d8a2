package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

// Upsert stores the latest known state of a ticket. Later events for the
// same ticket replace the row; the risk snapshot log keeps the history.
func (r *TicketRepository) Upsert(ctx context.Context, ticket *domain.TicketSnapshot) error {
	const query = `
INSERT INTO ticket_snapshots (ticket_id, priority, status, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (ticket_id) DO UPDATE SET
    priority   = EXCLUDED.priority,
    status     = EXCLUDED.status,
    category   = EXCLUDED.category,
    updated_at = EXCLUDED.updated_at
`

	_, err := r.pool.Exec(ctx, query,
		ticket.TicketID,
		ticket.Priority,
		string(ticket.Status),
		ticket.Category,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewRetryableError(fmt.Errorf("upsert ticket snapshot: %w", err))
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, ticketID string) (*domain.TicketSnapshot, error) {
	const query = `
SELECT ticket_id, priority, status, category, created_at, updated_at
FROM ticket_snapshots
WHERE ticket_id = $1
`

	row := r.pool.QueryRow(ctx, query, ticketID)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// ListActive returns non-terminal tickets, oldest first so the sweep
// reaches the tickets closest to breach before newer ones.
func (r *TicketRepository) ListActive(ctx context.Context, limit int) ([]*domain.TicketSnapshot, error) {
	if limit <= 0 {
		limit = 500
	}

	const query = `
SELECT ticket_id, priority, status, category, created_at, updated_at
FROM ticket_snapshots
WHERE status IN ('open', 'in_progress')
ORDER BY created_at ASC
LIMIT $1
`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.TicketSnapshot, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

// PurgeOlderThan deletes terminal tickets not updated since the cutoff.
// Active tickets are never purged regardless of age.
func (r *TicketRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
DELETE FROM ticket_snapshots
WHERE status IN ('resolved', 'closed')
  AND updated_at < $1
`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanTicket(row pgx.Row) (*domain.TicketSnapshot, error) {
	var (
		ticket domain.TicketSnapshot
		status string
	)
	err := row.Scan(
		&ticket.TicketID,
		&ticket.Priority,
		&status,
		&ticket.Category,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}
