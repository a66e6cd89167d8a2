package domain

// WorkflowPath names the terminal branch an evaluation took through the
// orchestrator's state machine.
type WorkflowPath string

const (
	PathEscalated WorkflowPath = "escalated"
	PathMonitor   WorkflowPath = "monitoring"
	PathHealthy   WorkflowPath = "healthy"
)

// Workflow branch thresholds. Strictly greater-than, per the state
// machine's choice rules; the inclusive action tiers live in the
// combiner and resolver.
const (
	EscalateAbove = 0.7
	MonitorAbove  = 0.4
)

// RouteRisk picks the workflow branch for a metrics snapshot.
func RouteRisk(metrics SLAMetrics) WorkflowPath {
	switch {
	case metrics.BreachProbability > EscalateAbove:
		return PathEscalated
	case metrics.BreachProbability > MonitorAbove:
		return PathMonitor
	default:
		return PathHealthy
	}
}

// EvaluationOutcome summarizes one pass of the workflow for a ticket.
type EvaluationOutcome struct {
	Metrics    SLAMetrics
	Path       WorkflowPath
	Prediction *Prediction
	Actions    []ActionRecord
}
