package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

func TestRouteRisk(t *testing.T) {
	cases := []struct {
		probability float64
		want        domain.WorkflowPath
	}{
		{1.0, domain.PathEscalated},
		{0.71, domain.PathEscalated},
		{0.7, domain.PathMonitor},
		{0.41, domain.PathMonitor},
		{0.4, domain.PathHealthy},
		{0, domain.PathHealthy},
	}

	for _, tc := range cases {
		metrics := domain.SLAMetrics{BreachProbability: tc.probability}
		assert.Equal(t, tc.want, domain.RouteRisk(metrics), "probability %v", tc.probability)
	}
}
