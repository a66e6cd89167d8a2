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

type RiskStateRepository struct {
	pool *pgxpool.Pool
}

var _ ports.RiskStateRepository = (*RiskStateRepository)(nil)

func NewRiskStateRepository(pool *pgxpool.Pool) ports.RiskStateRepository {
	return &RiskStateRepository{pool: pool}
}

// Append inserts a new risk snapshot. The table has no update path; each
// evaluation and adjustment adds a row. Failures are retryable so the
// consumer can redeliver the triggering event.
func (r *RiskStateRepository) Append(ctx context.Context, metrics *domain.SLAMetrics) error {
	const query = `
INSERT INTO risk_snapshots (
    ticket_id, elapsed_minutes, response_remaining_minutes, resolution_remaining_minutes,
    response_breach_risk, resolution_breach_risk, breach_probability,
    risk_bucket, sla_status, calculated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

	_, err := r.pool.Exec(ctx, query,
		metrics.TicketID,
		metrics.ElapsedMinutes,
		metrics.ResponseRemainingMinutes,
		metrics.ResolutionRemainingMinutes,
		metrics.ResponseBreachRisk,
		metrics.ResolutionBreachRisk,
		metrics.BreachProbability,
		string(metrics.Bucket),
		string(metrics.SLAStatus),
		metrics.CalculatedAt,
	)
	if err != nil {
		return apperrors.NewRetryableError(fmt.Errorf("append risk snapshot: %w", err))
	}
	return nil
}

// Latest returns the most recent snapshot for a ticket, by calculation time.
func (r *RiskStateRepository) Latest(ctx context.Context, ticketID string) (*domain.SLAMetrics, error) {
	const query = `
SELECT ticket_id, elapsed_minutes, response_remaining_minutes, resolution_remaining_minutes,
       response_breach_risk, resolution_breach_risk, breach_probability,
       risk_bucket, sla_status, calculated_at
FROM risk_snapshots
WHERE ticket_id = $1
ORDER BY calculated_at DESC, id DESC
LIMIT 1
`

	row := r.pool.QueryRow(ctx, query, ticketID)
	metrics, err := scanMetrics(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	return metrics, nil
}

// History returns snapshots for a ticket, newest first.
func (r *RiskStateRepository) History(ctx context.Context, ticketID string, limit int) ([]*domain.SLAMetrics, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT ticket_id, elapsed_minutes, response_remaining_minutes, resolution_remaining_minutes,
       response_breach_risk, resolution_breach_risk, breach_probability,
       risk_bucket, sla_status, calculated_at
FROM risk_snapshots
WHERE ticket_id = $1
ORDER BY calculated_at DESC, id DESC
LIMIT $2
`

	rows, err := r.pool.Query(ctx, query, ticketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]*domain.SLAMetrics, 0)
	for rows.Next() {
		metrics, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, metrics)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

// PurgeOlderThan deletes snapshots calculated before the cutoff.
func (r *RiskStateRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM risk_snapshots WHERE calculated_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMetrics(row pgx.Row) (*domain.SLAMetrics, error) {
	var (
		metrics domain.SLAMetrics
		bucket  string
		status  string
	)
	err := row.Scan(
		&metrics.TicketID,
		&metrics.ElapsedMinutes,
		&metrics.ResponseRemainingMinutes,
		&metrics.ResolutionRemainingMinutes,
		&metrics.ResponseBreachRisk,
		&metrics.ResolutionBreachRisk,
		&metrics.BreachProbability,
		&bucket,
		&status,
		&metrics.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	metrics.Bucket = domain.RiskBucket(bucket)
	metrics.SLAStatus = domain.SLAStatus(status)
	return &metrics, nil
}
