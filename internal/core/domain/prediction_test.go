package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

func TestHeuristicProbability(t *testing.T) {
	cases := []struct {
		name    string
		metrics domain.SLAMetrics
		want    float64
	}{
		{
			name:    "response nearly breached",
			metrics: domain.SLAMetrics{ResponseRemainingMinutes: 5, ResolutionRemainingMinutes: 400},
			want:    0.9,
		},
		{
			name:    "response tight",
			metrics: domain.SLAMetrics{ResponseRemainingMinutes: 15, ResolutionRemainingMinutes: 400},
			want:    0.7,
		},
		{
			name:    "resolution tight",
			metrics: domain.SLAMetrics{ResponseRemainingMinutes: 100, ResolutionRemainingMinutes: 60},
			want:    0.6,
		},
		{
			name:    "comfortable",
			metrics: domain.SLAMetrics{ResponseRemainingMinutes: 100, ResolutionRemainingMinutes: 400},
			want:    0.3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, domain.HeuristicProbability(tc.metrics), 1e-9)
		})
	}
}

func TestCombineRisk(t *testing.T) {
	now := fixedClock()

	t.Run("blends by confidence", func(t *testing.T) {
		metrics := domain.SLAMetrics{
			TicketID:                   "TCK-1001",
			BreachProbability:          0.8,
			ResponseRemainingMinutes:   10,
			ResolutionRemainingMinutes: 100,
		}

		prediction := domain.CombineRisk(metrics, "software", 2, 0.9, 0.85, now)

		// 0.8*0.15 + 0.9*0.85
		assert.InDelta(t, 0.885, prediction.FinalProbability, 1e-9)
		assert.InDelta(t, 0.8, prediction.RuleBasedProbability, 1e-9)
		assert.InDelta(t, 0.9, prediction.SecondaryProbability, 1e-9)
		assert.InDelta(t, 0.85, prediction.Confidence, 1e-9)
		assert.True(t, prediction.PriorityBoost)
		assert.Equal(t, now, prediction.Timestamp)
	})

	t.Run("zero confidence keeps the rule-based signal", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 0.6, ResponseRemainingMinutes: 100, ResolutionRemainingMinutes: 400}

		prediction := domain.CombineRisk(metrics, "software", 3, 0.99, 0, now)

		assert.InDelta(t, 0.6, prediction.FinalProbability, 1e-9)
	})

	t.Run("clamps out-of-range secondary inputs", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 0.5, ResponseRemainingMinutes: 100, ResolutionRemainingMinutes: 400}

		prediction := domain.CombineRisk(metrics, "software", 3, 1.7, 1.2, now)

		assert.InDelta(t, 1.0, prediction.SecondaryProbability, 1e-9)
		assert.InDelta(t, 1.0, prediction.Confidence, 1e-9)
		assert.InDelta(t, 1.0, prediction.FinalProbability, 1e-9)
	})

	t.Run("priority boost threshold is inclusive", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 0.7, ResponseRemainingMinutes: 100, ResolutionRemainingMinutes: 400}

		prediction := domain.CombineRisk(metrics, "software", 3, 0.7, 1, now)

		assert.InDelta(t, 0.7, prediction.FinalProbability, 1e-9)
		assert.True(t, prediction.PriorityBoost)
		assert.True(t, prediction.TriggerAction())
	})
}

func TestTimeToBreachTiers(t *testing.T) {
	now := fixedClock()

	t.Run("critical tier discounts to ten percent with a five minute floor", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 1, ResponseRemainingMinutes: 100, ResolutionRemainingMinutes: 400}

		prediction := domain.CombineRisk(metrics, "software", 3, 1, 1, now)

		// max(5, 100*0.1)
		assert.InDelta(t, 10, prediction.TimeToBreachMinutes, 1e-9)
	})

	t.Run("critical tier floor applies when remaining is small", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 1, ResponseRemainingMinutes: 2, ResolutionRemainingMinutes: 400}

		prediction := domain.CombineRisk(metrics, "software", 3, 1, 1, now)

		assert.InDelta(t, 5, prediction.TimeToBreachMinutes, 1e-9)
	})

	t.Run("high tier discounts to thirty percent with a fifteen minute floor", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 0.8, ResponseRemainingMinutes: 10, ResolutionRemainingMinutes: 100}

		prediction := domain.CombineRisk(metrics, "software", 3, 0.8, 1, now)

		// min remaining 10, max(15, 10*0.3)
		assert.InDelta(t, 15, prediction.TimeToBreachMinutes, 1e-9)
	})

	t.Run("medium tier discounts to half with a thirty minute floor", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 0.5, ResponseRemainingMinutes: 200, ResolutionRemainingMinutes: 300}

		prediction := domain.CombineRisk(metrics, "software", 3, 0.5, 1, now)

		// max(30, 200*0.5)
		assert.InDelta(t, 100, prediction.TimeToBreachMinutes, 1e-9)
	})

	t.Run("low probability keeps the full remaining budget", func(t *testing.T) {
		metrics := domain.SLAMetrics{BreachProbability: 0.2, ResponseRemainingMinutes: 55, ResolutionRemainingMinutes: 300}

		prediction := domain.CombineRisk(metrics, "software", 3, 0.2, 1, now)

		assert.InDelta(t, 55, prediction.TimeToBreachMinutes, 1e-9)
	})
}
