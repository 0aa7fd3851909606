package events

import "time"

// EventType identifies the type of event
type EventType string

// Session activity events
const (
	SessionCreated    EventType = "session.created"
	SessionReset      EventType = "session.reset"
	SubmissionStarted EventType = "submission.started"
	TurnCompleted     EventType = "turn.completed"
	SubmissionFailed  EventType = "submission.failed"
)

// Event represents a published event
type Event[T any] struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Payload   T         `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter selects events for a subscriber.
type Filter[T any] func(Event[T]) bool

// FilterByType creates a filter for specific event types
func FilterByType[T any](eventTypes ...EventType) Filter[T] {
	typeMap := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		typeMap[t] = true
	}
	return func(event Event[T]) bool {
		return typeMap[event.Type]
	}
}

// FilterBySessionID creates a filter for specific session ID
func FilterBySessionID[T any](sessionID string) Filter[T] {
	return func(event Event[T]) bool {
		return event.SessionID == sessionID
	}
}

func matches[T any](event Event[T], filters []Filter[T]) bool {
	for _, filter := range filters {
		if !filter(event) {
			return false
		}
	}
	return true
}
