package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

var activeEnrollmentStatuses = []models.EnrollmentStatus{
	models.EnrollmentPendingDocuments,
	models.EnrollmentPendingApproval,
	models.EnrollmentApproved,
}

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

// Create relies on idx_active_enrollment to reject a concurrent duplicate
// that slipped past the caller's FindActive check.
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return translateError(e.db.WithContext(ctx).Create(enrollment).Error, "create enrollment")
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.db.WithContext(ctx).Where("id = ?", id).First(&enrollment).Error; err != nil {
		return nil, translateError(err, "get enrollment")
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetForUpdate(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, translateError(err, "lock enrollment")
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) FindActive(ctx context.Context, studentID, schoolID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Where("student_id = ? AND school_id = ? AND status IN ?", studentID, schoolID, activeEnrollmentStatuses).
		First(&enrollment).Error
	if err != nil {
		return nil, translateError(err, "find active enrollment")
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	if filters.EmptyScope() {
		return []*models.Enrollment{}, 0, nil
	}

	query := e.db.WithContext(ctx).Model(&models.Enrollment{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if len(filters.SchoolIDs) > 0 {
		query = query.Where("school_id IN ?", filters.SchoolIDs)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count enrollments")
	}

	var enrollments []*models.Enrollment
	query = applyPaginationAndSort(query, "enrollments", filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, translateError(err, "list enrollments")
	}
	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) UpdateStatus(ctx context.Context, id string, change repositories.StatusChange) error {
	updates := map[string]interface{}{
		"status":            change.To,
		"status_updated_at": change.At,
		"status_updated_by": change.Actor,
		"updated_at":        change.At,
	}
	if change.Reason != nil {
		updates["refusal_reason"] = *change.Reason
	}

	result := e.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", id, change.From).
		Updates(updates)
	if result.Error != nil {
		return translateError(result.Error, "update enrollment status")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleWrite
	}
	return nil
}
