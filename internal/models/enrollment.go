package models

import "time"

type EnrollmentStatus string

const (
	EnrollmentPendingDocuments EnrollmentStatus = "pending_documents"
	EnrollmentPendingApproval  EnrollmentStatus = "pending_approval"
	EnrollmentApproved         EnrollmentStatus = "approved"
	EnrollmentRejected         EnrollmentStatus = "rejected"
	EnrollmentCompleted        EnrollmentStatus = "completed"
)

func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPendingDocuments, EnrollmentPendingApproval, EnrollmentApproved,
		EnrollmentRejected, EnrollmentCompleted:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentRejected || s == EnrollmentCompleted
}

// Active enrollments block a second enrollment of the same student in the same school.
func (s EnrollmentStatus) Active() bool {
	return !s.Terminal()
}

// RequiresCompleteDocuments is true for every status at or past pending_approval.
func (s EnrollmentStatus) RequiresCompleteDocuments() bool {
	switch s {
	case EnrollmentPendingApproval, EnrollmentApproved, EnrollmentCompleted:
		return true
	}
	return false
}

type Enrollment struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	StudentID string           `json:"student_id" gorm:"not null;size:36;index;uniqueIndex:idx_active_enrollment,where:status <> 'rejected' AND status <> 'completed'"`
	SchoolID  string           `json:"school_id" gorm:"not null;size:36;index;uniqueIndex:idx_active_enrollment"`
	Status    EnrollmentStatus `json:"enrollment_status" gorm:"not null;size:30;default:pending_documents;index"`

	// Audit
	StatusUpdatedAt *time.Time `json:"status_updated_at"`
	StatusUpdatedBy *string    `json:"status_updated_by" gorm:"size:100"`
	RefusalReason   *string    `json:"refusal_reason,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
