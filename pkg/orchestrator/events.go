package orchestrator

// EventType names what changed in the orchestrator state.
type EventType string

const (
	EventSessionUpdated    EventType = "session_updated"
	EventAnalysisStarted   EventType = "analysis_started"
	EventAnalysisCompleted EventType = "analysis_completed"
	EventAnalysisFailed    EventType = "analysis_failed"
	EventDonationCompleted EventType = "donation_completed"
	EventDonationFailed    EventType = "donation_failed"
	EventLanguageUpdated   EventType = "language_updated"
)

// Event carries the state as it was right after the change.
type Event struct {
	Type  EventType `json:"type"`
	State State     `json:"state"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
