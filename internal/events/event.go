// Package events carries workflow events from the engine to the notification
// inbox over a watermill bus. The engine decides which event happened; the
// consumer decides how it is presented.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDocumentAccepted    EventType = "document.accepted"
	EventDocumentRefused     EventType = "document.refused"
	EventDocumentsComplete   EventType = "enrollment.documents_complete"
	EventEnrollmentReopened  EventType = "enrollment.reopened"
	EventEnrollmentApproved  EventType = "enrollment.approved"
	EventEnrollmentRejected  EventType = "enrollment.rejected"
	EventEnrollmentCompleted EventType = "enrollment.completed"
	EventSchoolRegistered    EventType = "school.registered"
)

const (
	EventSource  = "enrollment-service"
	EventVersion = "1.0"
)

type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	UserID    string                 `json:"user_id"` // recipient
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewEvent(eventType EventType, userID string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

// String reads a string field of Data, or "".
func (e Event) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}
