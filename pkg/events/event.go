package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "FEEDBACK_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewFeedbackRecorded describes a user feedback submission, keyed by the
// trace id of the generation call the feedback refers to. Score follows
// the positive=1 / negative=0 convention.
func NewFeedbackRecorded(traceID string, score int, comment string) Event {
	return BaseEvent{
		Type: "FEEDBACK_RECORDED",
		Data: map[string]interface{}{
			"trace_id": traceID,
			"score":    score,
			"comment":  comment,
		},
		OccurredAt: time.Now(),
	}
}

// NewIngestionCompleted describes a finished dataset ingestion run.
func NewIngestionCompleted(files int, passages int) Event {
	return BaseEvent{
		Type: "INGESTION_COMPLETED",
		Data: map[string]interface{}{
			"files":    files,
			"passages": passages,
		},
		OccurredAt: time.Now(),
	}
}
