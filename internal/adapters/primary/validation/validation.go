package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// TicketEventRequest is the wire shape of an inbound ticket event, as
// produced by the classification collaborator. Validated before it
// reaches the engine; malformed events never produce snapshots.
type TicketEventRequest struct {
	TicketID  string    `json:"ticketId" validate:"required"`
	Priority  int       `json:"priority" validate:"required,min=1,max=4"`
	Status    string    `json:"status" validate:"required"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AdjustmentRequest is the wire shape of a downstream feedback adjustment.
type AdjustmentRequest struct {
	Source                 string  `json:"source" validate:"required,oneof=automation-agent optimizer direct"`
	BreachProbabilityDelta float64 `json:"breachProbabilityDelta" validate:"min=-1,max=1"`
	ConfidenceDelta        float64 `json:"confidenceDelta" validate:"min=-1,max=1"`
	TimeSavedMinutes       float64 `json:"timeSavedMinutes" validate:"min=0"`
}

// Validator validates inbound requests at the ingestion boundary.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a request validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// TicketEvent validates a raw ticket event and converts it to the
// engine's input type.
func (v *Validator) TicketEvent(req TicketEventRequest) (ports.TicketEvent, error) {
	if err := v.validate.Struct(req); err != nil {
		return ports.TicketEvent{}, validationError(err)
	}

	status, err := domain.ParseTicketStatus(req.Status)
	if err != nil {
		return ports.TicketEvent{}, apperrors.NewValidationError(err, "invalid ticket event", map[string]interface{}{
			"status": req.Status,
		})
	}

	return ports.TicketEvent{
		TicketID:  strings.TrimSpace(req.TicketID),
		Priority:  req.Priority,
		Status:    status,
		Category:  req.Category,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}, nil
}

// Adjustment validates a raw adjustment and converts it to the domain
// type. AppliedAt is stamped by the caller, not the requester.
func (v *Validator) Adjustment(req AdjustmentRequest, appliedAt time.Time) (domain.AdjustmentEvent, error) {
	if err := v.validate.Struct(req); err != nil {
		return domain.AdjustmentEvent{}, validationError(err)
	}

	source, err := domain.ParseAdjustmentSource(req.Source)
	if err != nil {
		return domain.AdjustmentEvent{}, apperrors.NewValidationError(err, "invalid adjustment", map[string]interface{}{
			"source": req.Source,
		})
	}

	return domain.AdjustmentEvent{
		Source:                 source,
		BreachProbabilityDelta: req.BreachProbabilityDelta,
		ConfidenceDelta:        req.ConfidenceDelta,
		TimeSavedMinutes:       req.TimeSavedMinutes,
		AppliedAt:              appliedAt,
	}, nil
}

// validationError converts validator field errors into the HTTP-facing
// validation error with per-field details.
func validationError(err error) *apperrors.AppError {
	details := map[string]interface{}{}
	var fieldErrs validator.ValidationErrors
	if ok := isFieldErrors(err, &fieldErrs); ok {
		for _, fe := range fieldErrs {
			details[fieldName(fe)] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return apperrors.NewValidationError(apperrors.ErrInvalidEvent, "request validation failed", details)
}

func isFieldErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = fieldErrs
	return true
}

// fieldName lowercases the first letter of a struct field to match the
// JSON wire name.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "request"
	}
	return strings.ToLower(name[:1]) + name[1:]
}
