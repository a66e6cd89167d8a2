package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// EvaluationService implements the breach-risk workflow: metrics are
// calculated and appended, then the snapshot is routed to escalation,
// monitoring, or a healthy no-op.
type EvaluationService struct {
	tickets          ports.TicketRepository
	store            ports.RiskStateRepository
	predictor        ports.Predictor
	publisher        ports.EventPublisher
	executor         ports.ActionExecutor
	impactValidator  ports.ImpactValidator
	thresholds       domain.SLAThresholds
	predictorTimeout time.Duration
	sweepBatchSize   int
	logger           *slog.Logger
	now              func() time.Time
}

var _ ports.EvaluationService = (*EvaluationService)(nil)

// EvaluationConfig holds the tunables for the evaluation workflow.
type EvaluationConfig struct {
	Thresholds       domain.SLAThresholds
	PredictorTimeout time.Duration
	SweepBatchSize   int
}

// NewEvaluationService creates a new evaluation service.
func NewEvaluationService(
	tickets ports.TicketRepository,
	store ports.RiskStateRepository,
	predictor ports.Predictor,
	publisher ports.EventPublisher,
	executor ports.ActionExecutor,
	impactValidator ports.ImpactValidator,
	cfg EvaluationConfig,
	logger *slog.Logger,
) *EvaluationService {
	if cfg.PredictorTimeout <= 0 {
		cfg.PredictorTimeout = 3 * time.Second
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 500
	}
	return &EvaluationService{
		tickets:          tickets,
		store:            store,
		predictor:        predictor,
		publisher:        publisher,
		executor:         executor,
		impactValidator:  impactValidator,
		thresholds:       cfg.Thresholds,
		predictorTimeout: cfg.PredictorTimeout,
		sweepBatchSize:   cfg.SweepBatchSize,
		logger:           logger.With("component", "evaluation_service"),
		now:              time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *EvaluationService) WithClock(now func() time.Time) *EvaluationService {
	s.now = now
	return s
}

// Evaluate processes one validated ticket event end to end. The ticket's
// latest state is upserted and the derived metrics appended before the
// workflow branches; store failures propagate as retryable errors so the
// event bus can redeliver.
func (s *EvaluationService) Evaluate(ctx context.Context, event ports.TicketEvent) (*domain.EvaluationOutcome, error) {
	ticket, err := domain.NewTicketSnapshot(
		event.TicketID,
		event.Priority,
		event.Status,
		event.Category,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.Upsert(ctx, ticket); err != nil {
		return nil, err
	}

	return s.EvaluateTicket(ctx, ticket)
}

// EvaluateTicket runs the workflow for an already-validated snapshot.
func (s *EvaluationService) EvaluateTicket(ctx context.Context, ticket *domain.TicketSnapshot) (*domain.EvaluationOutcome, error) {
	now := s.now()

	// ProcessMetrics
	metrics := domain.CalculateMetrics(ticket, s.thresholds, now)
	if err := s.store.Append(ctx, &metrics); err != nil {
		return nil, err
	}

	outcome := &domain.EvaluationOutcome{
		Metrics: metrics,
		Path:    domain.RouteRisk(metrics),
	}

	// CheckBreachRisk
	switch outcome.Path {
	case domain.PathEscalated:
		prediction := s.predictBreach(ctx, ticket, metrics)
		outcome.Prediction = &prediction

		s.publish(ctx, domain.NewBreachPredictionEvent(prediction))

		// TriggerActions: each action is attempted independently.
		outcome.Actions = s.executor.Execute(ctx, ticket, prediction)

		// ValidateImpact: side-effect-only collaborator, terminal state.
		s.impactValidator.ValidateImpact(ctx, ticket.TicketID, outcome.Actions)

	case domain.PathMonitor:
		s.publish(ctx, domain.NewMetricUpdateEvent(metrics))

	case domain.PathHealthy:
		// Terminal no-op.
	}

	s.logger.Debug("ticket evaluated",
		"ticket_id", ticket.TicketID,
		"breach_probability", metrics.BreachProbability,
		"bucket", metrics.Bucket,
		"path", outcome.Path,
	)

	return outcome, nil
}

// predictBreach blends the rule-based probability with the secondary
// predictor. Predictor failures and timeouts are recovered locally by
// falling back to the remaining-time heuristic with lower confidence;
// they are never propagated.
func (s *EvaluationService) predictBreach(ctx context.Context, ticket *domain.TicketSnapshot, metrics domain.SLAMetrics) domain.Prediction {
	secondary, confidence := s.secondarySignal(ctx, ticket, metrics)
	return domain.CombineRisk(metrics, ticket.Category, ticket.Priority, secondary, confidence, s.now())
}

func (s *EvaluationService) secondarySignal(ctx context.Context, ticket *domain.TicketSnapshot, metrics domain.SLAMetrics) (float64, float64) {
	if s.predictor == nil {
		return domain.HeuristicProbability(metrics), domain.HeuristicConfidence
	}

	predictCtx, cancel := context.WithTimeout(ctx, s.predictorTimeout)
	defer cancel()

	probability, confidence, err := s.predictor.Predict(predictCtx, ports.Features{
		TicketID:                   ticket.TicketID,
		Priority:                   ticket.Priority,
		Category:                   ticket.Category,
		ElapsedMinutes:             metrics.ElapsedMinutes,
		ResponseRemainingMinutes:   metrics.ResponseRemainingMinutes,
		ResolutionRemainingMinutes: metrics.ResolutionRemainingMinutes,
		RuleBasedProbability:       metrics.BreachProbability,
	})
	if err != nil {
		s.logger.Warn("secondary predictor failed, using heuristic fallback",
			"ticket_id", ticket.TicketID,
			"error", err,
		)
		return domain.HeuristicProbability(metrics), domain.HeuristicConfidence
	}

	if confidence <= 0 {
		confidence = domain.ModelConfidence
	}
	return probability, confidence
}

// Sweep re-evaluates every active ticket against the current clock.
// Per-ticket failures are logged and skipped; a sweep never aborts the
// batch.
func (s *EvaluationService) Sweep(ctx context.Context) error {
	tickets, err := s.tickets.ListActive(ctx, s.sweepBatchSize)
	if err != nil {
		return err
	}

	var failed int
	for _, ticket := range tickets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.EvaluateTicket(ctx, ticket); err != nil {
			failed++
			s.logger.Error("sweep evaluation failed",
				"ticket_id", ticket.TicketID,
				"retryable", apperrors.IsRetryable(err),
				"error", err,
			)
		}
	}

	s.logger.Info("risk sweep complete",
		"tickets", len(tickets),
		"failed", failed,
	)
	return nil
}

// publish sends an output event; delivery failures are logged, not
// propagated, so a flaky broker cannot fail an evaluation.
func (s *EvaluationService) publish(ctx context.Context, event domain.OutputEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish output event",
			"event_type", event.Type,
			"ticket_id", event.TicketID,
			"error", err,
		)
	}
}
