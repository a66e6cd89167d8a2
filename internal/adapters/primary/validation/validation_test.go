package validation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sla-sentinel/internal/adapters/primary/validation"
	"github.com/lorrc/sla-sentinel/internal/core/domain"
	apperrors "github.com/lorrc/sla-sentinel/internal/core/errors"
)

func TestTicketEventValidation(t *testing.T) {
	v := validation.NewValidator()
	created := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	valid := validation.TicketEventRequest{
		TicketID:  "TCK-1001",
		Priority:  2,
		Status:    "open",
		Category:  "software",
		CreatedAt: created,
	}

	t.Run("accepts a well-formed event", func(t *testing.T) {
		event, err := v.TicketEvent(valid)

		require.NoError(t, err)
		assert.Equal(t, "TCK-1001", event.TicketID)
		assert.Equal(t, domain.StatusOpen, event.Status)
		assert.Equal(t, created, event.CreatedAt)
	})

	t.Run("trims the ticket ID", func(t *testing.T) {
		req := valid
		req.TicketID = "  TCK-1001  "

		event, err := v.TicketEvent(req)

		require.NoError(t, err)
		assert.Equal(t, "TCK-1001", event.TicketID)
	})

	t.Run("rejects missing fields with per-field details", func(t *testing.T) {
		_, err := v.TicketEvent(validation.TicketEventRequest{})

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 422, appErr.StatusCode)
		assert.Contains(t, appErr.Details, "ticketID")
		assert.Contains(t, appErr.Details, "priority")
	})

	t.Run("rejects out-of-range priority", func(t *testing.T) {
		req := valid
		req.Priority = 5

		_, err := v.TicketEvent(req)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		req := valid
		req.Status = "reopened"

		_, err := v.TicketEvent(req)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.ErrorIs(t, appErr.Err, domain.ErrInvalidStatus)
	})
}

func TestAdjustmentValidation(t *testing.T) {
	v := validation.NewValidator()
	appliedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accepts a well-formed adjustment", func(t *testing.T) {
		adjustment, err := v.Adjustment(validation.AdjustmentRequest{
			Source:                 "automation-agent",
			BreachProbabilityDelta: -0.3,
			TimeSavedMinutes:       30,
		}, appliedAt)

		require.NoError(t, err)
		assert.Equal(t, domain.SourceAutomationAgent, adjustment.Source)
		assert.InDelta(t, -0.3, adjustment.BreachProbabilityDelta, 1e-9)
		assert.Equal(t, appliedAt, adjustment.AppliedAt)
	})

	t.Run("rejects unknown sources", func(t *testing.T) {
		_, err := v.Adjustment(validation.AdjustmentRequest{Source: "ticket-fairy"}, appliedAt)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 422, appErr.StatusCode)
	})

	t.Run("rejects deltas outside the unit range", func(t *testing.T) {
		_, err := v.Adjustment(validation.AdjustmentRequest{
			Source:                 "optimizer",
			BreachProbabilityDelta: 1.5,
		}, appliedAt)

		assert.Error(t, err)
	})

	t.Run("rejects negative time saved", func(t *testing.T) {
		_, err := v.Adjustment(validation.AdjustmentRequest{
			Source:           "direct",
			TimeSavedMinutes: -10,
		}, appliedAt)

		assert.Error(t, err)
	})
}
