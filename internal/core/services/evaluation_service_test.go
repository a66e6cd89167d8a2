package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/mocks"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
	"github.com/lorrc/sla-sentinel/internal/core/services"
)

func testClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type evaluationFixture struct {
	tickets   *mocks.MockTicketRepository
	store     *mocks.MockRiskStateRepository
	predictor *mocks.MockPredictor
	publisher *mocks.MockEventPublisher
	executor  *mocks.MockActionExecutor
	impact    *mocks.MockImpactValidator
	service   *services.EvaluationService
}

func newEvaluationFixture(withPredictor bool) *evaluationFixture {
	f := &evaluationFixture{
		tickets:   mocks.NewMockTicketRepository(),
		store:     mocks.NewMockRiskStateRepository(),
		predictor: mocks.NewMockPredictor(),
		publisher: mocks.NewMockEventPublisher(),
		executor:  mocks.NewMockActionExecutor(),
		impact:    mocks.NewMockImpactValidator(),
	}

	var predictor ports.Predictor
	if withPredictor {
		predictor = f.predictor
	}

	f.service = services.NewEvaluationService(
		f.tickets,
		f.store,
		predictor,
		f.publisher,
		f.executor,
		f.impact,
		services.EvaluationConfig{Thresholds: domain.DefaultThresholds()},
		testLogger(),
	).WithClock(testClock)

	return f
}

func ticketEvent(priority int, status domain.TicketStatus, elapsed time.Duration) ports.TicketEvent {
	created := testClock().Add(-elapsed)
	return ports.TicketEvent{
		TicketID:  "TCK-1001",
		Priority:  priority,
		Status:    status,
		Category:  "software",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("escalated path blends predictor signal and triggers actions", func(t *testing.T) {
		f := newEvaluationFixture(true)

		// Open P1 at 20 minutes: response risk caps at 1.0,
		// resolution risk 20/240, probability 0.725.
		event := ticketEvent(1, domain.StatusOpen, 20*time.Minute)

		f.tickets.On("Upsert", ctx, mock.AnythingOfType("*domain.TicketSnapshot")).Return(nil)
		f.store.On("Append", ctx, mock.AnythingOfType("*domain.SLAMetrics")).Return(nil)
		f.predictor.On("Predict", mock.Anything, mock.AnythingOfType("ports.Features")).Return(0.9, 0.85, nil)
		f.publisher.On("Publish", ctx, mock.MatchedBy(func(e domain.OutputEvent) bool {
			return e.Type == domain.EventSLABreachPrediction
		})).Return(nil)

		records := []domain.ActionRecord{{Action: domain.ActionBoostPriority, TicketID: "TCK-1001", Success: true}}
		f.executor.On("Execute", ctx, mock.AnythingOfType("*domain.TicketSnapshot"), mock.AnythingOfType("domain.Prediction")).Return(records)
		f.impact.On("ValidateImpact", ctx, "TCK-1001", records).Return()

		outcome, err := f.service.Evaluate(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, domain.PathEscalated, outcome.Path)
		assert.InDelta(t, 0.725, outcome.Metrics.BreachProbability, 1e-9)
		require.NotNil(t, outcome.Prediction)
		// 0.725*0.15 + 0.9*0.85
		assert.InDelta(t, 0.87375, outcome.Prediction.FinalProbability, 1e-9)
		assert.InDelta(t, 0.85, outcome.Prediction.Confidence, 1e-9)
		assert.Equal(t, records, outcome.Actions)

		f.tickets.AssertExpectations(t)
		f.store.AssertExpectations(t)
		f.predictor.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
		f.executor.AssertExpectations(t)
		f.impact.AssertExpectations(t)
	})

	t.Run("predictor failure falls back to heuristic with lower confidence", func(t *testing.T) {
		f := newEvaluationFixture(true)
		event := ticketEvent(1, domain.StatusOpen, 20*time.Minute)

		f.tickets.On("Upsert", ctx, mock.Anything).Return(nil)
		f.store.On("Append", ctx, mock.Anything).Return(nil)
		f.predictor.On("Predict", mock.Anything, mock.Anything).Return(0.0, 0.0, apperrors.ErrPredictorUnavailable)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)
		f.executor.On("Execute", ctx, mock.Anything, mock.Anything).Return(nil)
		f.impact.On("ValidateImpact", ctx, "TCK-1001", mock.Anything).Return()

		outcome, err := f.service.Evaluate(ctx, event)

		require.NoError(t, err)
		require.NotNil(t, outcome.Prediction)
		// Response budget exhausted, heuristic 0.9 at confidence 0.6:
		// 0.725*0.4 + 0.9*0.6
		assert.InDelta(t, 0.9, outcome.Prediction.SecondaryProbability, 1e-9)
		assert.InDelta(t, 0.6, outcome.Prediction.Confidence, 1e-9)
		assert.InDelta(t, 0.83, outcome.Prediction.FinalProbability, 1e-9)
	})

	t.Run("absent predictor uses heuristic without erroring", func(t *testing.T) {
		f := newEvaluationFixture(false)
		event := ticketEvent(1, domain.StatusOpen, 20*time.Minute)

		f.tickets.On("Upsert", ctx, mock.Anything).Return(nil)
		f.store.On("Append", ctx, mock.Anything).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)
		f.executor.On("Execute", ctx, mock.Anything, mock.Anything).Return(nil)
		f.impact.On("ValidateImpact", ctx, "TCK-1001", mock.Anything).Return()

		outcome, err := f.service.Evaluate(ctx, event)

		require.NoError(t, err)
		require.NotNil(t, outcome.Prediction)
		assert.InDelta(t, 0.6, outcome.Prediction.Confidence, 1e-9)
		f.predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
	})

	t.Run("monitoring path publishes a metric update only", func(t *testing.T) {
		f := newEvaluationFixture(true)

		// Open P2 at 40 minutes: probability just under 0.5.
		event := ticketEvent(2, domain.StatusOpen, 40*time.Minute)

		f.tickets.On("Upsert", ctx, mock.Anything).Return(nil)
		f.store.On("Append", ctx, mock.Anything).Return(nil)
		f.publisher.On("Publish", ctx, mock.MatchedBy(func(e domain.OutputEvent) bool {
			return e.Type == domain.EventMetricUpdate
		})).Return(nil)

		outcome, err := f.service.Evaluate(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, domain.PathMonitor, outcome.Path)
		assert.InDelta(t, 0.491666666, outcome.Metrics.BreachProbability, 1e-6)
		assert.Nil(t, outcome.Prediction)
		assert.Empty(t, outcome.Actions)
		f.predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
		f.executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("healthy path is a terminal no-op", func(t *testing.T) {
		f := newEvaluationFixture(true)
		event := ticketEvent(2, domain.StatusOpen, 10*time.Minute)

		f.tickets.On("Upsert", ctx, mock.Anything).Return(nil)
		f.store.On("Append", ctx, mock.Anything).Return(nil)

		outcome, err := f.service.Evaluate(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, domain.PathHealthy, outcome.Path)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("invalid event is rejected before any store access", func(t *testing.T) {
		f := newEvaluationFixture(true)
		event := ticketEvent(9, domain.StatusOpen, 10*time.Minute)

		_, err := f.service.Evaluate(ctx, event)

		assert.ErrorIs(t, err, domain.ErrInvalidPriority)
		f.tickets.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		f.store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("retryable store failure propagates", func(t *testing.T) {
		f := newEvaluationFixture(true)
		event := ticketEvent(2, domain.StatusOpen, 10*time.Minute)

		f.tickets.On("Upsert", ctx, mock.Anything).Return(nil)
		f.store.On("Append", ctx, mock.Anything).Return(apperrors.NewRetryableError(errors.New("connection refused")))

		_, err := f.service.Evaluate(ctx, event)

		require.Error(t, err)
		assert.True(t, apperrors.IsRetryable(err))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the evaluation", func(t *testing.T) {
		f := newEvaluationFixture(true)
		event := ticketEvent(2, domain.StatusOpen, 40*time.Minute)

		f.tickets.On("Upsert", ctx, mock.Anything).Return(nil)
		f.store.On("Append", ctx, mock.Anything).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

		outcome, err := f.service.Evaluate(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, domain.PathMonitor, outcome.Path)
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	healthyTicket := func(id string) *domain.TicketSnapshot {
		created := testClock().Add(-10 * time.Minute)
		return &domain.TicketSnapshot{
			TicketID:  id,
			Priority:  2,
			Status:    domain.StatusOpen,
			Category:  "software",
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	t.Run("continues past per-ticket failures", func(t *testing.T) {
		f := newEvaluationFixture(true)

		tickets := []*domain.TicketSnapshot{healthyTicket("TCK-1"), healthyTicket("TCK-2")}
		f.tickets.On("ListActive", ctx, 500).Return(tickets, nil)
		f.store.On("Append", ctx, mock.Anything).Return(apperrors.NewRetryableError(errors.New("timeout"))).Once()
		f.store.On("Append", ctx, mock.Anything).Return(nil).Once()

		err := f.service.Sweep(ctx)

		require.NoError(t, err)
		f.store.AssertNumberOfCalls(t, "Append", 2)
	})

	t.Run("propagates listing failures", func(t *testing.T) {
		f := newEvaluationFixture(true)

		f.tickets.On("ListActive", ctx, 500).Return(nil, errors.New("query failed"))

		err := f.service.Sweep(ctx)

		assert.Error(t, err)
	})
}
