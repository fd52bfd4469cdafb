package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationDocumentAccepted    NotificationType = "document_accepted"
	NotificationDocumentRefused     NotificationType = "document_refused"
	NotificationDocumentsComplete   NotificationType = "documents_complete"
	NotificationEnrollmentReopened  NotificationType = "enrollment_reopened"
	NotificationEnrollmentApproved  NotificationType = "enrollment_approved"
	NotificationEnrollmentRejected  NotificationType = "enrollment_rejected"
	NotificationEnrollmentCompleted NotificationType = "enrollment_completed"
	NotificationSchoolRegistered    NotificationType = "school_registered"
)

type Notification struct {
	ID      string           `json:"id" gorm:"primaryKey;size:36"`
	UserID  string           `json:"user_id" gorm:"not null;size:36;index"`
	Type    NotificationType `json:"type" gorm:"not null;size:40"`
	Title   string           `json:"title" gorm:"not null;size:200"`
	Message string           `json:"message" gorm:"type:text"`
	Payload datatypes.JSON   `json:"payload,omitempty" gorm:"type:jsonb"`
	ReadAt  *time.Time       `json:"read_at"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}
