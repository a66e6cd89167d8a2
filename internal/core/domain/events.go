package domain

import "time"

// OutputEventType names an event emitted to the notification and
// orchestration collaborators.
type OutputEventType string

const (
	EventMetricUpdate              OutputEventType = "MetricUpdate"
	EventSLABreachPrediction       OutputEventType = "SLABreachPrediction"
	EventRiskAdjusted              OutputEventType = "RiskAdjusted"
	EventTicketEscalated           OutputEventType = "TicketEscalated"
	EventManagerNotified           OutputEventType = "ManagerNotified"
	EventIncidentResponseTriggered OutputEventType = "IncidentResponseTriggered"
	EventPriorityBoost             OutputEventType = "PriorityBoost"
	EventSeniorTechAssignment      OutputEventType = "SeniorTechAssignment"
	EventOnsiteTechDispatched      OutputEventType = "OnsiteTechDispatched"
	EventVendorSupportEngaged      OutputEventType = "VendorSupportEngaged"
	EventReminderSent              OutputEventType = "ReminderSent"
	EventDependencyCheckRequested  OutputEventType = "DependencyCheckRequested"
	EventWorkaroundPrepared        OutputEventType = "WorkaroundPrepared"
	EventSparePartsCheckRequested  OutputEventType = "SparePartsCheckRequested"
	EventPasswordResetTriggered    OutputEventType = "PasswordResetTriggered"
)

// actionEvents maps each mitigation action to the event type announcing
// its execution.
var actionEvents = map[Action]OutputEventType{
	ActionEscalateImmediately:     EventTicketEscalated,
	ActionNotifyManager:           EventManagerNotified,
	ActionTriggerIncidentResponse: EventIncidentResponseTriggered,
	ActionBoostPriority:           EventPriorityBoost,
	ActionAssignSeniorTech:        EventSeniorTechAssignment,
	ActionDispatchOnsiteTech:      EventOnsiteTechDispatched,
	ActionEngageVendorSupport:     EventVendorSupportEngaged,
	ActionSendReminder:            EventReminderSent,
	ActionCheckDependencies:       EventDependencyCheckRequested,
	ActionPrepareWorkaround:       EventWorkaroundPrepared,
	ActionCheckSpareParts:         EventSparePartsCheckRequested,
	ActionAutoResetPassword:       EventPasswordResetTriggered,
}

// EventType returns the output event type announcing this action.
func (a Action) EventType() OutputEventType {
	if t, ok := actionEvents[a]; ok {
		return t
	}
	return OutputEventType(a)
}

// OutputEvent is the envelope published to downstream collaborators.
type OutputEvent struct {
	Type       OutputEventType `json:"type"`
	TicketID   string          `json:"ticketId"`
	Payload    any             `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// MetricUpdatePayload carries a fresh metrics snapshot.
type MetricUpdatePayload struct {
	ElapsedMinutes             float64    `json:"elapsedMinutes"`
	ResponseRemainingMinutes   float64    `json:"responseRemainingMinutes"`
	ResolutionRemainingMinutes float64    `json:"resolutionRemainingMinutes"`
	BreachProbability          float64    `json:"breachProbability"`
	Bucket                     RiskBucket `json:"bucket"`
	SLAStatus                  SLAStatus  `json:"slaStatus"`
}

// NewMetricUpdateEvent wraps a metrics snapshot in an output event.
func NewMetricUpdateEvent(metrics SLAMetrics) OutputEvent {
	return OutputEvent{
		Type:     EventMetricUpdate,
		TicketID: metrics.TicketID,
		Payload: MetricUpdatePayload{
			ElapsedMinutes:             metrics.ElapsedMinutes,
			ResponseRemainingMinutes:   metrics.ResponseRemainingMinutes,
			ResolutionRemainingMinutes: metrics.ResolutionRemainingMinutes,
			BreachProbability:          metrics.BreachProbability,
			Bucket:                     metrics.Bucket,
			SLAStatus:                  metrics.SLAStatus,
		},
		OccurredAt: metrics.CalculatedAt,
	}
}

// BreachPredictionPayload carries the blended risk assessment.
type BreachPredictionPayload struct {
	RuleBasedProbability float64  `json:"ruleBasedProbability"`
	SecondaryProbability float64  `json:"secondaryProbability"`
	Confidence           float64  `json:"confidence"`
	FinalProbability     float64  `json:"finalProbability"`
	RecommendedActions   []Action `json:"recommendedActions"`
	PriorityBoost        bool     `json:"priorityBoost"`
	TimeToBreachMinutes  float64  `json:"timeToBreachMinutes"`
}

// NewBreachPredictionEvent wraps a prediction in an output event.
func NewBreachPredictionEvent(prediction Prediction) OutputEvent {
	return OutputEvent{
		Type:     EventSLABreachPrediction,
		TicketID: prediction.TicketID,
		Payload: BreachPredictionPayload{
			RuleBasedProbability: prediction.RuleBasedProbability,
			SecondaryProbability: prediction.SecondaryProbability,
			Confidence:           prediction.Confidence,
			FinalProbability:     prediction.FinalProbability,
			RecommendedActions:   prediction.RecommendedActions,
			PriorityBoost:        prediction.PriorityBoost,
			TimeToBreachMinutes:  prediction.TimeToBreachMinutes,
		},
		OccurredAt: prediction.Timestamp,
	}
}

// ActionEventPayload announces the execution of a single action.
type ActionEventPayload struct {
	Action      Action  `json:"action"`
	Success     bool    `json:"success"`
	Description string  `json:"description,omitempty"`
	Probability float64 `json:"finalProbability"`
}

// NewActionEvent wraps an action record in its action-specific event.
func NewActionEvent(record ActionRecord, finalProbability float64) OutputEvent {
	return OutputEvent{
		Type:     record.Action.EventType(),
		TicketID: record.TicketID,
		Payload: ActionEventPayload{
			Action:      record.Action,
			Success:     record.Success,
			Description: record.Description,
			Probability: finalProbability,
		},
		OccurredAt: record.Timestamp,
	}
}
