package models

import "time"

type DocumentType string

const (
	DocumentProfilePhoto         DocumentType = "profile_photo"
	DocumentIDCard               DocumentType = "id_card"
	DocumentMedicalCertificate   DocumentType = "medical_certificate"
	DocumentResidenceCertificate DocumentType = "residence_certificate"
)

// RequiredDocumentTypes is the platform-wide set every enrollment must satisfy.
var RequiredDocumentTypes = []DocumentType{
	DocumentProfilePhoto,
	DocumentIDCard,
	DocumentMedicalCertificate,
	DocumentResidenceCertificate,
}

func (t DocumentType) Valid() bool {
	for _, required := range RequiredDocumentTypes {
		if t == required {
			return true
		}
	}
	return false
}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentAccepted DocumentStatus = "accepted"
	DocumentRefused  DocumentStatus = "refused"
)

type DocumentDecision string

const (
	DecisionAccept DocumentDecision = "accept"
	DecisionRefuse DocumentDecision = "refuse"
)

type Document struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	StudentID    string         `json:"student_id" gorm:"not null;size:36;index"`
	EnrollmentID string         `json:"enrollment_id" gorm:"not null;size:36;index;uniqueIndex:idx_document_revision"`
	DocumentType DocumentType   `json:"document_type" gorm:"not null;size:40;uniqueIndex:idx_document_revision"`
	Revision     int            `json:"revision" gorm:"not null;uniqueIndex:idx_document_revision"`
	Status       DocumentStatus `json:"status" gorm:"not null;size:20;default:pending;index"`

	RefusalReason *string `json:"refusal_reason,omitempty" gorm:"type:text"`

	// Stored payload
	PayloadRef  string `json:"payload_ref" gorm:"not null;size:500"`
	FileName    string `json:"file_name" gorm:"size:255"`
	ContentType string `json:"content_type" gorm:"size:100"`
	SizeBytes   int64  `json:"size_bytes"`

	// Review
	ReviewedBy *string    `json:"reviewed_by,omitempty" gorm:"size:36"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// Decided documents are terminal for that record; a re-upload creates a new one.
func (d *Document) Decided() bool {
	return d.Status == DocumentAccepted || d.Status == DocumentRefused
}
