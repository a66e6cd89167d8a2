package domain

import (
	"errors"
	"time"
)

// ErrUnknownAdjustmentSource is returned when an adjustment names a
// source outside the closed set.
var ErrUnknownAdjustmentSource = errors.New("unknown adjustment source")

// AdjustmentSource identifies the downstream automation that produced a
// feedback adjustment. A closed enum, not a free string.
type AdjustmentSource int

const (
	SourceAutomationAgent AdjustmentSource = iota
	SourceOptimizer
	SourceDirect
)

// String returns the wire representation of the source.
func (s AdjustmentSource) String() string {
	switch s {
	case SourceAutomationAgent:
		return "automation-agent"
	case SourceOptimizer:
		return "optimizer"
	case SourceDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseAdjustmentSource validates a raw source tag.
func ParseAdjustmentSource(raw string) (AdjustmentSource, error) {
	switch raw {
	case "automation-agent":
		return SourceAutomationAgent, nil
	case "optimizer":
		return SourceOptimizer, nil
	case "direct":
		return SourceDirect, nil
	default:
		return 0, ErrUnknownAdjustmentSource
	}
}

// AdjustmentEvent is a feedback signal from downstream automation that
// nudges a ticket's stored risk state.
type AdjustmentEvent struct {
	Source                 AdjustmentSource
	BreachProbabilityDelta float64
	ConfidenceDelta        float64
	TimeSavedMinutes       float64
	AppliedAt              time.Time
}

// Apply derives a new metrics snapshot from the latest one: the breach
// probability is shifted by the delta and clamped to [0,1], bucket and
// status are recomputed, and the remaining-time budgets grow by the time
// saved. The prior snapshot is never modified; callers append the result,
// preserving the full audit trail.
func (e AdjustmentEvent) Apply(latest SLAMetrics, now time.Time) SLAMetrics {
	adjusted := latest

	adjusted.BreachProbability = clamp01(latest.BreachProbability + e.BreachProbabilityDelta)
	adjusted.Bucket = BucketFor(adjusted.BreachProbability)
	adjusted.SLAStatus = StatusFor(adjusted.BreachProbability)

	if e.TimeSavedMinutes > 0 {
		adjusted.ResponseRemainingMinutes += e.TimeSavedMinutes
		adjusted.ResolutionRemainingMinutes += e.TimeSavedMinutes
	}

	adjusted.CalculatedAt = now.UTC()
	return adjusted
}
