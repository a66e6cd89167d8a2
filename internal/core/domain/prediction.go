package domain

import "time"

// Confidence levels assigned to the secondary probability signal.
// The heuristic fallback is trusted less than a live model.
const (
	ModelConfidence     = 0.85
	HeuristicConfidence = 0.6
)

// ActionThreshold is the final probability at or above which the engine
// recommends mitigation and a priority boost.
const ActionThreshold = 0.7

// Prediction is the blended risk assessment for a single evaluation cycle.
// It annotates the metrics snapshot it was derived from and is not
// persisted independently.
type Prediction struct {
	TicketID             string
	RuleBasedProbability float64
	SecondaryProbability float64
	Confidence           float64
	FinalProbability     float64
	RecommendedActions   []Action
	PriorityBoost        bool
	TimeToBreachMinutes  float64
	Timestamp            time.Time
}

// TriggerAction reports whether the prediction is severe enough to drive
// mitigation actions.
func (p Prediction) TriggerAction() bool {
	return p.FinalProbability >= ActionThreshold
}

// HeuristicProbability is the fallback secondary signal used when the
// external predictor is absent, failing, or timing out. It reads only the
// remaining-time fields of the latest metrics.
func HeuristicProbability(metrics SLAMetrics) float64 {
	switch {
	case metrics.ResponseRemainingMinutes <= 5:
		return 0.9
	case metrics.ResponseRemainingMinutes <= 15:
		return 0.7
	case metrics.ResolutionRemainingMinutes <= 60:
		return 0.6
	default:
		return 0.3
	}
}

// CombineRisk blends the rule-based breach probability with a secondary
// probability signal, weighting by the secondary source's confidence:
//
//	final = rule*(1-confidence) + secondary*confidence
//
// The resulting prediction carries the resolved action set, the
// priority-boost flag, and a time-to-breach estimate.
func CombineRisk(metrics SLAMetrics, category string, priority int, secondary, confidence float64, now time.Time) Prediction {
	secondary = clamp01(secondary)
	confidence = clamp01(confidence)

	final := clamp01(metrics.BreachProbability*(1-confidence) + secondary*confidence)

	return Prediction{
		TicketID:             metrics.TicketID,
		RuleBasedProbability: metrics.BreachProbability,
		SecondaryProbability: secondary,
		Confidence:           confidence,
		FinalProbability:     final,
		RecommendedActions:   ResolveActions(final, category, priority),
		PriorityBoost:        final >= ActionThreshold,
		TimeToBreachMinutes:  timeToBreach(final, metrics.MinRemainingMinutes()),
		Timestamp:            now.UTC(),
	}
}

// timeToBreach estimates minutes until breach. The higher the final
// probability, the more aggressively the remaining budget is discounted,
// with per-tier floors so downstream automation always gets lead time.
func timeToBreach(finalProbability, minRemaining float64) float64 {
	switch {
	case finalProbability >= 0.9:
		return maxFloat(5, minRemaining*0.1)
	case finalProbability >= 0.7:
		return maxFloat(15, minRemaining*0.3)
	case finalProbability >= 0.5:
		return maxFloat(30, minRemaining*0.5)
	default:
		return minRemaining
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
