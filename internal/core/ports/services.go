package ports

import (
	"context"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

// TicketEvent is the validated input event from the classification
// collaborator. Malformed events are rejected at the ingestion boundary
// and never reach the engine.
type TicketEvent struct {
	TicketID  string
	Priority  int
	Status    domain.TicketStatus
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Features is the feature vector handed to the secondary predictor.
type Features struct {
	TicketID                   string  `json:"ticketId"`
	Priority                   int     `json:"priority"`
	Category                   string  `json:"category"`
	ElapsedMinutes             float64 `json:"elapsedMinutes"`
	ResponseRemainingMinutes   float64 `json:"responseRemainingMinutes"`
	ResolutionRemainingMinutes float64 `json:"resolutionRemainingMinutes"`
	RuleBasedProbability       float64 `json:"ruleBasedProbability"`
}

// Predictor is the external secondary-probability source. It may fail or
// time out; callers fall back to the heuristic predictor and never
// propagate its errors.
type Predictor interface {
	Predict(ctx context.Context, features Features) (probability, confidence float64, err error)
}

// EventPublisher delivers output events to downstream collaborators.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OutputEvent) error
}

// ActionExecutor runs each resolved action independently. A failing
// action is recorded with Success=false and never aborts the rest.
type ActionExecutor interface {
	Execute(ctx context.Context, ticket *domain.TicketSnapshot, prediction domain.Prediction) []domain.ActionRecord
}

// ImpactValidator is the downstream collaborator that receives the
// executed-action list. Side-effect only; it produces no engine-visible
// state.
type ImpactValidator interface {
	ValidateImpact(ctx context.Context, ticketID string, records []domain.ActionRecord)
}

// EvaluationService drives the breach-risk workflow for a single ticket
// event and for scheduled sweeps over active tickets.
type EvaluationService interface {
	Evaluate(ctx context.Context, event TicketEvent) (*domain.EvaluationOutcome, error)
	EvaluateTicket(ctx context.Context, ticket *domain.TicketSnapshot) (*domain.EvaluationOutcome, error)
	Sweep(ctx context.Context) error
}

// AdjustmentService applies downstream feedback to a ticket's stored
// risk state.
type AdjustmentService interface {
	Apply(ctx context.Context, ticketID string, adjustment domain.AdjustmentEvent) (*domain.SLAMetrics, error)
}

// RiskQueryService reads the risk state store.
type RiskQueryService interface {
	Latest(ctx context.Context, ticketID string) (*domain.SLAMetrics, error)
	History(ctx context.Context, ticketID string, limit int) ([]*domain.SLAMetrics, error)
}

// RetentionService purges snapshots older than the retention window.
type RetentionService interface {
	Purge(ctx context.Context) error
}
