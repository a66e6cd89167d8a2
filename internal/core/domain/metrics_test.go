package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func snapshotAt(t *testing.T, priority int, status domain.TicketStatus, category string, elapsed time.Duration) *domain.TicketSnapshot {
	t.Helper()
	created := fixedClock().Add(-elapsed)
	ticket, err := domain.NewTicketSnapshot("TCK-1001", priority, status, category, created, created)
	require.NoError(t, err)
	return ticket
}

func TestCalculateMetrics(t *testing.T) {
	thresholds := domain.DefaultThresholds()

	t.Run("open ticket weights response risk heavily", func(t *testing.T) {
		// P2: 60 min response, 480 min resolution. 30 minutes in.
		ticket := snapshotAt(t, 2, domain.StatusOpen, "software", 30*time.Minute)

		metrics := domain.CalculateMetrics(ticket, thresholds, fixedClock())

		assert.InDelta(t, 30, metrics.ElapsedMinutes, 1e-9)
		assert.InDelta(t, 30, metrics.ResponseRemainingMinutes, 1e-9)
		assert.InDelta(t, 450, metrics.ResolutionRemainingMinutes, 1e-9)
		assert.InDelta(t, 0.5, metrics.ResponseBreachRisk, 1e-9)
		assert.InDelta(t, 0.0625, metrics.ResolutionBreachRisk, 1e-9)
		// 0.5*0.7 + 0.0625*0.3
		assert.InDelta(t, 0.36875, metrics.BreachProbability, 1e-9)
		assert.Equal(t, domain.BucketLow, metrics.Bucket)
		assert.Equal(t, domain.SLAHealthy, metrics.SLAStatus)
	})

	t.Run("in progress ticket weights resolution risk heavily", func(t *testing.T) {
		// P1: 15 min response, 240 min resolution. 120 minutes in.
		ticket := snapshotAt(t, 1, domain.StatusInProgress, "hardware", 120*time.Minute)

		metrics := domain.CalculateMetrics(ticket, thresholds, fixedClock())

		assert.InDelta(t, 1.0, metrics.ResponseBreachRisk, 1e-9)
		assert.InDelta(t, 0.5, metrics.ResolutionBreachRisk, 1e-9)
		// 1.0*0.3 + 0.5*0.7
		assert.InDelta(t, 0.65, metrics.BreachProbability, 1e-9)
		assert.Equal(t, domain.BucketMedium, metrics.Bucket)
		assert.Equal(t, domain.SLAWatch, metrics.SLAStatus)
	})

	t.Run("terminal tickets carry zero breach probability", func(t *testing.T) {
		for _, status := range []domain.TicketStatus{domain.StatusResolved, domain.StatusClosed} {
			ticket := snapshotAt(t, 1, status, "software", 10*time.Hour)

			metrics := domain.CalculateMetrics(ticket, thresholds, fixedClock())

			assert.Zero(t, metrics.BreachProbability, "status %s", status)
			assert.Equal(t, domain.BucketMinimal, metrics.Bucket)
			assert.Equal(t, domain.SLAHealthy, metrics.SLAStatus)
			// Risks are still reported for terminal tickets.
			assert.InDelta(t, 1.0, metrics.ResponseBreachRisk, 1e-9)
		}
	})

	t.Run("risks cap at one and remaining floors at zero", func(t *testing.T) {
		ticket := snapshotAt(t, 4, domain.StatusOpen, "software", 100*time.Hour)

		metrics := domain.CalculateMetrics(ticket, thresholds, fixedClock())

		assert.InDelta(t, 1.0, metrics.ResponseBreachRisk, 1e-9)
		assert.InDelta(t, 1.0, metrics.ResolutionBreachRisk, 1e-9)
		assert.Zero(t, metrics.ResponseRemainingMinutes)
		assert.Zero(t, metrics.ResolutionRemainingMinutes)
		assert.InDelta(t, 1.0, metrics.BreachProbability, 1e-9)
		assert.Equal(t, domain.BucketCritical, metrics.Bucket)
		assert.Equal(t, domain.SLABreachImminent, metrics.SLAStatus)
	})

	t.Run("created in the future yields zero elapsed", func(t *testing.T) {
		created := fixedClock().Add(10 * time.Minute)
		ticket, err := domain.NewTicketSnapshot("TCK-1001", 2, domain.StatusOpen, "software", created, created)
		require.NoError(t, err)

		metrics := domain.CalculateMetrics(ticket, thresholds, fixedClock())

		assert.Zero(t, metrics.ElapsedMinutes)
		assert.Zero(t, metrics.BreachProbability)
	})

	t.Run("unknown priority falls back to P3 budget", func(t *testing.T) {
		ticket := &domain.TicketSnapshot{
			TicketID:  "TCK-1001",
			Priority:  7,
			Status:    domain.StatusOpen,
			CreatedAt: fixedClock().Add(-120 * time.Minute),
		}

		metrics := domain.CalculateMetrics(ticket, thresholds, fixedClock())

		// P3: 240 min response, 1440 min resolution.
		assert.InDelta(t, 0.5, metrics.ResponseBreachRisk, 1e-9)
		assert.InDelta(t, 120, metrics.ResponseRemainingMinutes, 1e-9)
	})

	t.Run("deterministic for a fixed clock", func(t *testing.T) {
		ticket := snapshotAt(t, 2, domain.StatusOpen, "software", 45*time.Minute)

		first := domain.CalculateMetrics(ticket, thresholds, fixedClock())
		second := domain.CalculateMetrics(ticket, thresholds, fixedClock())

		assert.Equal(t, first, second)
	})
}

func TestBucketFor(t *testing.T) {
	cases := []struct {
		probability float64
		want        domain.RiskBucket
	}{
		{1.0, domain.BucketCritical},
		{0.9, domain.BucketCritical},
		{0.89, domain.BucketHigh},
		{0.7, domain.BucketHigh},
		{0.69, domain.BucketMedium},
		{0.5, domain.BucketMedium},
		{0.49, domain.BucketLow},
		{0.3, domain.BucketLow},
		{0.29, domain.BucketMinimal},
		{0, domain.BucketMinimal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.BucketFor(tc.probability), "probability %v", tc.probability)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		probability float64
		want        domain.SLAStatus
	}{
		{0.95, domain.SLABreachImminent},
		{0.9, domain.SLABreachImminent},
		{0.7, domain.SLAAtRisk},
		{0.5, domain.SLAWatch},
		{0.49, domain.SLAHealthy},
		{0, domain.SLAHealthy},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.StatusFor(tc.probability), "probability %v", tc.probability)
	}
}

func TestMinRemainingMinutes(t *testing.T) {
	metrics := domain.SLAMetrics{ResponseRemainingMinutes: 20, ResolutionRemainingMinutes: 300}
	assert.InDelta(t, 20, metrics.MinRemainingMinutes(), 1e-9)

	metrics = domain.SLAMetrics{ResponseRemainingMinutes: 500, ResolutionRemainingMinutes: 45}
	assert.InDelta(t, 45, metrics.MinRemainingMinutes(), 1e-9)
}
