package services

import (
	"encoding/json"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
)

func (s *workflowSuite) TestRecordEventsIntoInbox() {
	student := s.createUser("Sami", models.RoleGuest)
	refused := events.NewEvent(events.EventDocumentRefused, student.ID, map[string]interface{}{
		"document_type": "id_card",
		"reason":        "expired",
	})

	s.Require().NoError(s.notification.Record(s.ctx, refused))
	s.Require().NoError(s.notification.Record(s.ctx, refused), "redelivery is ignored")
	s.Require().NoError(s.notification.Record(s.ctx, events.NewEvent(events.EventEnrollmentApproved, student.ID, nil)))
	s.Require().NoError(s.notification.Record(s.ctx, events.NewEvent("unknown.event", student.ID, nil)))

	inbox, err := s.notification.List(s.ctx, student.ID, false)
	s.Require().NoError(err)
	s.Len(inbox.Notifications, 2)
	s.Equal(int64(2), inbox.UnreadCount)

	var stored *models.Notification
	for _, n := range inbox.Notifications {
		if n.ID == refused.ID {
			stored = n
		}
	}
	s.Require().NotNil(stored)
	s.Equal(models.NotificationDocumentRefused, stored.Type)
	s.Equal("Your id card was refused: expired", stored.Message)
	var payload map[string]string
	s.Require().NoError(json.Unmarshal(stored.Payload, &payload))
	s.Equal("expired", payload["reason"])

	s.Require().NoError(s.notification.MarkRead(s.ctx, student.ID, refused.ID))
	inbox, err = s.notification.List(s.ctx, student.ID, true)
	s.Require().NoError(err)
	s.Len(inbox.Notifications, 1)
	s.Equal(int64(1), inbox.UnreadCount)

	other := s.createUser("Lina", models.RoleGuest)
	s.ErrorIs(s.notification.MarkRead(s.ctx, other.ID, refused.ID), ErrNotificationNotFound)
}
