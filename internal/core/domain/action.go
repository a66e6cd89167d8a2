package domain

import "time"

// Action identifies one mitigation step the engine can recommend.
type Action string

const (
	ActionEscalateImmediately     Action = "escalate-immediately"
	ActionNotifyManager           Action = "notify-manager"
	ActionTriggerIncidentResponse Action = "trigger-incident-response"
	ActionBoostPriority           Action = "boost-priority"
	ActionAssignSeniorTech        Action = "assign-senior-tech"
	ActionDispatchOnsiteTech      Action = "dispatch-onsite-tech"
	ActionEngageVendorSupport     Action = "engage-vendor-support"
	ActionSendReminder            Action = "send-reminder"
	ActionCheckDependencies       Action = "check-dependencies"
	ActionPrepareWorkaround       Action = "prepare-workaround"
	ActionCheckSpareParts         Action = "check-spare-parts"
	ActionAutoResetPassword       Action = "auto-reset-password"
)

// ActionRecord captures the outcome of one executed action.
// Failures are recorded, never thrown.
type ActionRecord struct {
	Action      Action
	TicketID    string
	Success     bool
	Timestamp   time.Time
	Description string
}

// actionSet accumulates actions preserving insertion order and dropping
// duplicates. Escalation tiers are added before softer measures so that
// downstream executors act on the most urgent step first.
type actionSet struct {
	actions []Action
	seen    map[Action]bool
}

func (s *actionSet) add(actions ...Action) {
	for _, a := range actions {
		if s.seen[a] {
			continue
		}
		s.seen[a] = true
		s.actions = append(s.actions, a)
	}
}

// ResolveActions maps a final breach probability, ticket category, and
// priority to an ordered, deduplicated set of mitigation actions.
// All probability thresholds are inclusive; a ticket meets every tier at
// or below its probability.
func ResolveActions(finalProbability float64, category string, priority int) []Action {
	set := &actionSet{seen: make(map[Action]bool)}

	if finalProbability >= 0.9 {
		set.add(ActionEscalateImmediately, ActionNotifyManager)
		if category == CategoryInfrastructure {
			set.add(ActionTriggerIncidentResponse)
		}
	}

	if finalProbability >= 0.7 {
		set.add(ActionBoostPriority, ActionAssignSeniorTech)
		switch category {
		case CategoryHardware:
			set.add(ActionDispatchOnsiteTech)
		case CategorySoftware:
			set.add(ActionEngageVendorSupport)
		}
	}

	if finalProbability >= 0.5 {
		set.add(ActionSendReminder, ActionCheckDependencies)
		if priority <= 2 {
			set.add(ActionPrepareWorkaround)
		}
	}

	// Category rules independent of the probability tiers above.
	if category == CategoryHardware && finalProbability >= 0.6 {
		set.add(ActionCheckSpareParts)
	}
	if category == CategoryAccess && finalProbability >= 0.4 {
		set.add(ActionAutoResetPassword)
	}

	return set.actions
}
