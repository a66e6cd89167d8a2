package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/lorrc/sla-sentinel/internal/adapters/primary/http"
	"github.com/lorrc/sla-sentinel/internal/adapters/primary/validation"
	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/mocks"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

type handlerFixture struct {
	evaluation  *mocks.MockEvaluationService
	adjustments *mocks.MockAdjustmentService
	queries     *mocks.MockRiskQueryService
	router      *chi.Mux
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		evaluation:  mocks.NewMockEvaluationService(),
		adjustments: mocks.NewMockAdjustmentService(),
		queries:     mocks.NewMockRiskQueryService(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := httpAdapter.NewRiskHandler(
		f.evaluation,
		f.adjustments,
		f.queries,
		validation.NewValidator(),
		httpAdapter.NewErrorHandler(logger),
		logger,
	)

	f.router = chi.NewRouter()
	f.router.Route("/tickets", handler.RegisterRoutes)
	return f
}

func sampleMetrics() domain.SLAMetrics {
	return domain.SLAMetrics{
		TicketID:                   "TCK-1001",
		ElapsedMinutes:             30,
		ResponseRemainingMinutes:   30,
		ResolutionRemainingMinutes: 450,
		ResponseBreachRisk:         0.5,
		ResolutionBreachRisk:       0.0625,
		BreachProbability:          0.36875,
		Bucket:                     domain.BucketLow,
		SLAStatus:                  domain.SLAHealthy,
		CalculatedAt:               time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandleTicketEvent(t *testing.T) {
	eventBody := func() []byte {
		body, _ := json.Marshal(map[string]any{
			"ticketId":  "TCK-1001",
			"priority":  2,
			"status":    "open",
			"category":  "software",
			"createdAt": "2025-06-01T11:30:00Z",
		})
		return body
	}

	t.Run("returns the evaluation outcome", func(t *testing.T) {
		f := newHandlerFixture()

		outcome := &domain.EvaluationOutcome{
			Metrics: sampleMetrics(),
			Path:    domain.PathHealthy,
		}
		f.evaluation.On("Evaluate", mock.Anything, mock.MatchedBy(func(e ports.TicketEvent) bool {
			return e.TicketID == "TCK-1001" && e.Status == domain.StatusOpen
		})).Return(outcome, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets/events", bytes.NewReader(eventBody()))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Metrics struct {
				TicketID          string  `json:"ticketId"`
				BreachProbability float64 `json:"breachProbability"`
			} `json:"metrics"`
			Path string `json:"path"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "TCK-1001", resp.Metrics.TicketID)
		assert.InDelta(t, 0.36875, resp.Metrics.BreachProbability, 1e-9)
		assert.Equal(t, "healthy", resp.Path)
		f.evaluation.AssertExpectations(t)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		f := newHandlerFixture()

		req := httptest.NewRequest(http.MethodPost, "/tickets/events", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.evaluation.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid event with field details", func(t *testing.T) {
		f := newHandlerFixture()

		body, _ := json.Marshal(map[string]any{"priority": 9, "status": "open"})
		req := httptest.NewRequest(http.MethodPost, "/tickets/events", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.Contains(t, resp.Details, "ticketID")
	})

	t.Run("store outage maps to 503 with retry hint", func(t *testing.T) {
		f := newHandlerFixture()

		f.evaluation.On("Evaluate", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewRetryableError(errors.New("connection refused")))

		req := httptest.NewRequest(http.MethodPost, "/tickets/events", bytes.NewReader(eventBody()))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	})
}

func TestHandleLatestRisk(t *testing.T) {
	t.Run("returns the latest snapshot", func(t *testing.T) {
		f := newHandlerFixture()

		metrics := sampleMetrics()
		f.queries.On("Latest", mock.Anything, "TCK-1001").Return(&metrics, nil)

		req := httptest.NewRequest(http.MethodGet, "/tickets/TCK-1001/risk", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Bucket    string `json:"bucket"`
			SLAStatus string `json:"slaStatus"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "low", resp.Bucket)
		assert.Equal(t, "HEALTHY", resp.SLAStatus)
	})

	t.Run("unknown ticket maps to 404", func(t *testing.T) {
		f := newHandlerFixture()

		f.queries.On("Latest", mock.Anything, "TCK-404").Return(nil, apperrors.ErrSnapshotNotFound)

		req := httptest.NewRequest(http.MethodGet, "/tickets/TCK-404/risk", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "SNAPSHOT_NOT_FOUND", resp.Code)
	})
}

func TestHandleRiskHistory(t *testing.T) {
	t.Run("returns the history with a count", func(t *testing.T) {
		f := newHandlerFixture()

		first := sampleMetrics()
		second := sampleMetrics()
		second.CalculatedAt = first.CalculatedAt.Add(-time.Hour)
		f.queries.On("History", mock.Anything, "TCK-1001", 50).
			Return([]*domain.SLAMetrics{&first, &second}, nil)

		req := httptest.NewRequest(http.MethodGet, "/tickets/TCK-1001/risk/history", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Count int               `json:"count"`
			Data  []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Len(t, resp.Data, 2)
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		f := newHandlerFixture()

		f.queries.On("History", mock.Anything, "TCK-1001", 10).
			Return([]*domain.SLAMetrics{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/tickets/TCK-1001/risk/history?limit=10", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.queries.AssertExpectations(t)
	})

	t.Run("rejects an out-of-range limit", func(t *testing.T) {
		f := newHandlerFixture()

		req := httptest.NewRequest(http.MethodGet, "/tickets/TCK-1001/risk/history?limit=9999", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.queries.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleAdjustment(t *testing.T) {
	adjustmentBody := func() []byte {
		body, _ := json.Marshal(map[string]any{
			"source":                 "automation-agent",
			"breachProbabilityDelta": -0.3,
			"timeSavedMinutes":       30,
		})
		return body
	}

	t.Run("applies the adjustment and returns the new snapshot", func(t *testing.T) {
		f := newHandlerFixture()

		adjusted := sampleMetrics()
		adjusted.BreachProbability = 0.06875
		adjusted.Bucket = domain.BucketMinimal
		f.adjustments.On("Apply", mock.Anything, "TCK-1001", mock.MatchedBy(func(a domain.AdjustmentEvent) bool {
			return a.Source == domain.SourceAutomationAgent && a.TimeSavedMinutes == 30
		})).Return(&adjusted, nil)

		req := httptest.NewRequest(http.MethodPost, "/tickets/TCK-1001/adjustments", bytes.NewReader(adjustmentBody()))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			BreachProbability float64 `json:"breachProbability"`
			Bucket            string  `json:"bucket"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.InDelta(t, 0.06875, resp.BreachProbability, 1e-9)
		assert.Equal(t, "minimal", resp.Bucket)
	})

	t.Run("rejects unknown sources", func(t *testing.T) {
		f := newHandlerFixture()

		body, _ := json.Marshal(map[string]any{"source": "ticket-fairy"})
		req := httptest.NewRequest(http.MethodPost, "/tickets/TCK-1001/adjustments", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		f.adjustments.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("adjustment for an unrecorded ticket maps to 404", func(t *testing.T) {
		f := newHandlerFixture()

		f.adjustments.On("Apply", mock.Anything, "TCK-404", mock.Anything).
			Return(nil, apperrors.ErrSnapshotNotFound)

		req := httptest.NewRequest(http.MethodPost, "/tickets/TCK-404/adjustments", bytes.NewReader(adjustmentBody()))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
