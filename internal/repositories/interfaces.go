package repositories

import (
	"time"

	"github.com/autoecole/enrollment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type EnrollmentFilters struct {
	StudentID *string                   `json:"student_id"`
	SchoolIDs []string                  `json:"school_ids"`
	Statuses  []models.EnrollmentStatus `json:"statuses"`
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
	SortBy    string                    `json:"sort_by"`    // "created_at", "updated_at", "status"
	SortOrder string                    `json:"sort_order"` // "asc", "desc"
}

type DocumentFilters struct {
	StudentID    *string                `json:"student_id"`
	EnrollmentID *string                `json:"enrollment_id"`
	SchoolIDs    []string               `json:"school_ids"`
	Status       *models.DocumentStatus `json:"status"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

// StatusChange is the only shape in which an enrollment status is written.
// The update applies only while the stored status still equals From.
type StatusChange struct {
	From   models.EnrollmentStatus
	To     models.EnrollmentStatus
	Actor  string
	At     time.Time
	Reason *string
}

// DocumentReview records a manager decision on a pending document.
type DocumentReview struct {
	Status     models.DocumentStatus
	Reason     *string
	ReviewedBy string
	ReviewedAt time.Time
}

// Scope guards: a filter with an explicitly empty id set matches nothing.
func (f EnrollmentFilters) EmptyScope() bool {
	return f.SchoolIDs != nil && len(f.SchoolIDs) == 0
}

func (f DocumentFilters) EmptyScope() bool {
	return f.SchoolIDs != nil && len(f.SchoolIDs) == 0
}
