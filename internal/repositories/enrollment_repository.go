package repositories

import (
	"context"

	"github.com/autoecole/enrollment-service/internal/models"
)

type EnrollmentRepository interface {
	// Create fails with ErrDuplicate when the student already holds an
	// active enrollment in the same school.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)

	// GetForUpdate reads the enrollment and holds its lock until the
	// surrounding transaction ends. Every ledger write of the enrollment goes
	// through this lock first.
	GetForUpdate(ctx context.Context, id string) (*models.Enrollment, error)

	FindActive(ctx context.Context, studentID, schoolID string) (*models.Enrollment, error)
	List(ctx context.Context, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)

	UpdateStatus(ctx context.Context, id string, change StatusChange) error
}
