package domain

// SLABudget holds the time budgets, in minutes, for one priority tier.
type SLABudget struct {
	ResponseMinutes   float64
	ResolutionMinutes float64
}

// SLAThresholds is the per-priority SLA configuration plus the global
// target-adherence ratio. Immutable once loaded.
type SLAThresholds struct {
	Budgets         map[int]SLABudget
	TargetAdherence float64
}

// DefaultThresholds returns the documented default budgets, used whenever
// the threshold config collaborator is unavailable.
func DefaultThresholds() SLAThresholds {
	return SLAThresholds{
		Budgets: map[int]SLABudget{
			1: {ResponseMinutes: 15, ResolutionMinutes: 240},
			2: {ResponseMinutes: 60, ResolutionMinutes: 480},
			3: {ResponseMinutes: 240, ResolutionMinutes: 1440},
			4: {ResponseMinutes: 480, ResolutionMinutes: 2880},
		},
		TargetAdherence: 0.95,
	}
}

// ForPriority returns the budget for the given priority tier.
// Unknown priorities fall back to the P3 budget.
func (t SLAThresholds) ForPriority(priority int) SLABudget {
	if budget, ok := t.Budgets[priority]; ok {
		return budget
	}
	return t.Budgets[3]
}
