package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/sla-sentinel/internal/adapters/primary/validation"
	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
	"github.com/lorrc/sla-sentinel/internal/infrastructure/logging"
)

// RiskHandler exposes the engine over HTTP: ticket-event ingestion,
// risk queries, and downstream adjustments.
type RiskHandler struct {
	evaluation   ports.EvaluationService
	adjustments  ports.AdjustmentService
	queries      ports.RiskQueryService
	validator    *validation.Validator
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(
	evaluation ports.EvaluationService,
	adjustments ports.AdjustmentService,
	queries ports.RiskQueryService,
	validator *validation.Validator,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *RiskHandler {
	return &RiskHandler{
		evaluation:   evaluation,
		adjustments:  adjustments,
		queries:      queries,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes registers the risk routes on the given router
func (h *RiskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/events", h.HandleTicketEvent)
	r.Get("/{ticketID}/risk", h.HandleLatestRisk)
	r.Get("/{ticketID}/risk/history", h.HandleRiskHistory)
	r.Post("/{ticketID}/adjustments", h.HandleAdjustment)
}

// metricsResponse is the wire shape of a risk snapshot.
type metricsResponse struct {
	TicketID                   string            `json:"ticketId"`
	ElapsedMinutes             float64           `json:"elapsedMinutes"`
	ResponseRemainingMinutes   float64           `json:"responseRemainingMinutes"`
	ResolutionRemainingMinutes float64           `json:"resolutionRemainingMinutes"`
	ResponseBreachRisk         float64           `json:"responseBreachRisk"`
	ResolutionBreachRisk       float64           `json:"resolutionBreachRisk"`
	BreachProbability          float64           `json:"breachProbability"`
	Bucket                     domain.RiskBucket `json:"bucket"`
	SLAStatus                  domain.SLAStatus  `json:"slaStatus"`
	CalculatedAt               time.Time         `json:"calculatedAt"`
}

func toMetricsResponse(m domain.SLAMetrics) metricsResponse {
	return metricsResponse{
		TicketID:                   m.TicketID,
		ElapsedMinutes:             m.ElapsedMinutes,
		ResponseRemainingMinutes:   m.ResponseRemainingMinutes,
		ResolutionRemainingMinutes: m.ResolutionRemainingMinutes,
		ResponseBreachRisk:         m.ResponseBreachRisk,
		ResolutionBreachRisk:       m.ResolutionBreachRisk,
		BreachProbability:          m.BreachProbability,
		Bucket:                     m.Bucket,
		SLAStatus:                  m.SLAStatus,
		CalculatedAt:               m.CalculatedAt,
	}
}

// predictionResponse is the wire shape of a blended prediction.
type predictionResponse struct {
	RuleBasedProbability float64         `json:"ruleBasedProbability"`
	SecondaryProbability float64         `json:"secondaryProbability"`
	Confidence           float64         `json:"confidence"`
	FinalProbability     float64         `json:"finalProbability"`
	RecommendedActions   []domain.Action `json:"recommendedActions"`
	PriorityBoost        bool            `json:"priorityBoost"`
	TimeToBreachMinutes  float64         `json:"timeToBreachMinutes"`
}

// actionRecordResponse is the wire shape of an executed action.
type actionRecordResponse struct {
	Action      domain.Action `json:"action"`
	Success     bool          `json:"success"`
	Description string        `json:"description,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// outcomeResponse summarizes one evaluation pass.
type outcomeResponse struct {
	Metrics    metricsResponse        `json:"metrics"`
	Path       domain.WorkflowPath    `json:"path"`
	Prediction *predictionResponse    `json:"prediction,omitempty"`
	Actions    []actionRecordResponse `json:"actions,omitempty"`
}

func toOutcomeResponse(outcome *domain.EvaluationOutcome) outcomeResponse {
	resp := outcomeResponse{
		Metrics: toMetricsResponse(outcome.Metrics),
		Path:    outcome.Path,
	}

	if outcome.Prediction != nil {
		resp.Prediction = &predictionResponse{
			RuleBasedProbability: outcome.Prediction.RuleBasedProbability,
			SecondaryProbability: outcome.Prediction.SecondaryProbability,
			Confidence:           outcome.Prediction.Confidence,
			FinalProbability:     outcome.Prediction.FinalProbability,
			RecommendedActions:   outcome.Prediction.RecommendedActions,
			PriorityBoost:        outcome.Prediction.PriorityBoost,
			TimeToBreachMinutes:  outcome.Prediction.TimeToBreachMinutes,
		}
	}

	for _, record := range outcome.Actions {
		resp.Actions = append(resp.Actions, actionRecordResponse{
			Action:      record.Action,
			Success:     record.Success,
			Description: record.Description,
			Timestamp:   record.Timestamp,
		})
	}

	return resp
}

// HandleTicketEvent ingests one classified ticket event and runs a full
// evaluation cycle synchronously.
func (h *RiskHandler) HandleTicketEvent(w http.ResponseWriter, r *http.Request) {
	var req validation.TicketEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid JSON payload"))
		return
	}

	event, err := h.validator.TicketEvent(req)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithTicketID(r.Context(), event.TicketID)

	outcome, err := h.evaluation.Evaluate(ctx, event)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// HandleLatestRisk returns the most recent risk snapshot for a ticket.
func (h *RiskHandler) HandleLatestRisk(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	metrics, err := h.queries.Latest(r.Context(), ticketID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, toMetricsResponse(*metrics))
}

// HandleRiskHistory returns recorded snapshots for a ticket, newest first.
func (h *RiskHandler) HandleRiskHistory(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	history, err := h.queries.History(r.Context(), ticketID, limit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	responses := make([]metricsResponse, 0, len(history))
	for _, metrics := range history {
		responses = append(responses, toMetricsResponse(*metrics))
	}

	WriteList(w, responses)
}

// HandleAdjustment applies downstream feedback to a ticket's risk state.
func (h *RiskHandler) HandleAdjustment(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	var req validation.AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid JSON payload"))
		return
	}

	adjustment, err := h.validator.Adjustment(req, time.Now())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithTicketID(r.Context(), ticketID)

	adjusted, err := h.adjustments.Apply(ctx, ticketID, adjustment)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, toMetricsResponse(*adjusted))
}
