package services

import (
	"context"
	"log/slog"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// LogImpactValidator is the default ValidateImpact collaborator: it
// records the executed action list and produces no engine-visible state.
type LogImpactValidator struct {
	logger *slog.Logger
}

var _ ports.ImpactValidator = (*LogImpactValidator)(nil)

// NewLogImpactValidator creates the default impact validator.
func NewLogImpactValidator(logger *slog.Logger) *LogImpactValidator {
	return &LogImpactValidator{logger: logger.With("component", "impact_validator")}
}

// ValidateImpact logs the outcome of the executed action set.
func (v *LogImpactValidator) ValidateImpact(ctx context.Context, ticketID string, records []domain.ActionRecord) {
	succeeded := 0
	for _, record := range records {
		if record.Success {
			succeeded++
		}
	}

	v.logger.InfoContext(ctx, "action impact validated",
		"ticket_id", ticketID,
		"actions", len(records),
		"succeeded", succeeded,
		"failed", len(records)-succeeded,
	)
}
