package domain

import (
	"time"
)

// RiskBucket is the discretized breach-probability band used for
// indexing and alerting.
type RiskBucket string

const (
	BucketCritical RiskBucket = "critical"
	BucketHigh     RiskBucket = "high"
	BucketMedium   RiskBucket = "medium"
	BucketLow      RiskBucket = "low"
	BucketMinimal  RiskBucket = "minimal"
)

// SLAStatus is the coarse health label derived from breach probability.
type SLAStatus string

const (
	SLABreachImminent SLAStatus = "BREACH_IMMINENT"
	SLAAtRisk         SLAStatus = "AT_RISK"
	SLAWatch          SLAStatus = "WATCH"
	SLAHealthy        SLAStatus = "HEALTHY"
)

// Status weights for the rule-based breach probability. Open tickets
// weight the response SLA more heavily than tickets already in progress.
const (
	openResponseWeight   = 0.7
	activeResponseWeight = 0.3
)

// SLAMetrics is one append-only, point-in-time risk snapshot for a ticket.
type SLAMetrics struct {
	TicketID                   string
	ElapsedMinutes             float64
	ResponseRemainingMinutes   float64
	ResolutionRemainingMinutes float64
	ResponseBreachRisk         float64
	ResolutionBreachRisk       float64
	BreachProbability          float64
	Bucket                     RiskBucket
	SLAStatus                  SLAStatus
	CalculatedAt               time.Time
}

// MinRemainingMinutes returns the tighter of the two remaining budgets.
func (m SLAMetrics) MinRemainingMinutes() float64 {
	if m.ResponseRemainingMinutes < m.ResolutionRemainingMinutes {
		return m.ResponseRemainingMinutes
	}
	return m.ResolutionRemainingMinutes
}

// CalculateMetrics derives SLA metrics for a ticket snapshot at the given
// instant. Pure and deterministic: the same snapshot and clock always
// produce the same metrics. Unknown priorities use the P3 budget.
func CalculateMetrics(ticket *TicketSnapshot, thresholds SLAThresholds, now time.Time) SLAMetrics {
	budget := thresholds.ForPriority(ticket.Priority)
	elapsed := now.Sub(ticket.CreatedAt).Minutes()
	if elapsed < 0 {
		elapsed = 0
	}

	responseRemaining := budget.ResponseMinutes - elapsed
	if responseRemaining < 0 {
		responseRemaining = 0
	}
	resolutionRemaining := budget.ResolutionMinutes - elapsed
	if resolutionRemaining < 0 {
		resolutionRemaining = 0
	}

	responseRisk := capAtOne(elapsed / budget.ResponseMinutes)
	resolutionRisk := capAtOne(elapsed / budget.ResolutionMinutes)

	var probability float64
	if !ticket.Status.IsTerminal() {
		weight := activeResponseWeight
		if ticket.Status == StatusOpen {
			weight = openResponseWeight
		}
		probability = clamp01(responseRisk*weight + resolutionRisk*(1-weight))
	}

	return SLAMetrics{
		TicketID:                   ticket.TicketID,
		ElapsedMinutes:             elapsed,
		ResponseRemainingMinutes:   responseRemaining,
		ResolutionRemainingMinutes: resolutionRemaining,
		ResponseBreachRisk:         responseRisk,
		ResolutionBreachRisk:       resolutionRisk,
		BreachProbability:          probability,
		Bucket:                     BucketFor(probability),
		SLAStatus:                  StatusFor(probability),
		CalculatedAt:               now.UTC(),
	}
}

// BucketFor maps a breach probability onto its risk bucket.
// Thresholds are monotonic and non-overlapping.
func BucketFor(probability float64) RiskBucket {
	switch {
	case probability >= 0.9:
		return BucketCritical
	case probability >= 0.7:
		return BucketHigh
	case probability >= 0.5:
		return BucketMedium
	case probability >= 0.3:
		return BucketLow
	default:
		return BucketMinimal
	}
}

// StatusFor maps a breach probability onto its SLA status label.
func StatusFor(probability float64) SLAStatus {
	switch {
	case probability >= 0.9:
		return SLABreachImminent
	case probability >= 0.7:
		return SLAAtRisk
	case probability >= 0.5:
		return SLAWatch
	default:
		return SLAHealthy
	}
}

func capAtOne(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
