package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type notificationService struct {
	Dependencies
}

func NewNotificationService(deps Dependencies) NotificationService {
	return &notificationService{Dependencies: deps.withDefaults()}
}

type notificationTemplate struct {
	kind  models.NotificationType
	title string
}

var notificationTemplates = map[events.EventType]notificationTemplate{
	events.EventDocumentAccepted:    {models.NotificationDocumentAccepted, "Document accepted"},
	events.EventDocumentRefused:     {models.NotificationDocumentRefused, "Document refused"},
	events.EventDocumentsComplete:   {models.NotificationDocumentsComplete, "All documents accepted"},
	events.EventEnrollmentReopened:  {models.NotificationEnrollmentReopened, "Enrollment back to document collection"},
	events.EventEnrollmentApproved:  {models.NotificationEnrollmentApproved, "Enrollment approved"},
	events.EventEnrollmentRejected:  {models.NotificationEnrollmentRejected, "Enrollment refused"},
	events.EventEnrollmentCompleted: {models.NotificationEnrollmentCompleted, "Course completed"},
	events.EventSchoolRegistered:    {models.NotificationSchoolRegistered, "Driving school registered"},
}

// Record stores a delivered event in its recipient's inbox. The event id is
// the notification id, so a redelivered event is stored once.
func (s *notificationService) Record(ctx context.Context, event events.Event) error {
	tmpl, ok := notificationTemplates[event.Type]
	if !ok {
		s.Logger.WarnContext(ctx, "No notification for event type", "event_type", event.Type)
		return nil
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	notification := &models.Notification{
		ID:        event.ID,
		UserID:    event.UserID,
		Type:      tmpl.kind,
		Title:     tmpl.title,
		Message:   notificationMessage(event),
		Payload:   datatypes.JSON(payload),
		CreatedAt: event.Timestamp,
	}
	if err := s.Repo.Notification().Create(ctx, notification); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil
		}
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func notificationMessage(event events.Event) string {
	switch event.Type {
	case events.EventDocumentAccepted:
		return fmt.Sprintf("Your %s was accepted.", humanize(event.String("document_type")))
	case events.EventDocumentRefused:
		return fmt.Sprintf("Your %s was refused: %s", humanize(event.String("document_type")), event.String("reason"))
	case events.EventDocumentsComplete:
		return "All required documents are accepted. Your enrollment is waiting for approval."
	case events.EventEnrollmentReopened:
		return "A new upload replaced an accepted document. Your enrollment is back to document collection."
	case events.EventEnrollmentApproved:
		return "Your enrollment was approved."
	case events.EventEnrollmentRejected:
		return "Your enrollment was refused: " + event.String("reason")
	case events.EventEnrollmentCompleted:
		return "Your course is complete."
	case events.EventSchoolRegistered:
		return fmt.Sprintf("%s is registered and you can now review enrollments.", event.String("school_name"))
	}
	return ""
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) (*NotificationList, error) {
	notifications, _, err := s.Repo.Notification().ListByUser(ctx, userID, repositories.NotificationFilters{
		UnreadOnly: unreadOnly,
		Limit:      100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.Repo.Notification().CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.Repo.Notification().MarkRead(ctx, notificationID, userID, s.Now()); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification: %w", err)
	}
	return nil
}
