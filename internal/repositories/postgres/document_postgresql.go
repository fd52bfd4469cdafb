package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type DocumentPostgreSQL struct {
	db *gorm.DB
}

func NewDocumentPostgreSQL(db *gorm.DB) repositories.DocumentRepository {
	return &DocumentPostgreSQL{db: db}
}

func (d *DocumentPostgreSQL) Create(ctx context.Context, document *models.Document) error {
	return translateError(d.db.WithContext(ctx).Create(document).Error, "create document")
}

func (d *DocumentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var document models.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&document).Error; err != nil {
		return nil, translateError(err, "get document")
	}
	return &document, nil
}

func (d *DocumentPostgreSQL) Snapshot(ctx context.Context, enrollmentID string) ([]models.Document, error) {
	var documents []models.Document
	err := d.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at ASC").Order("revision ASC").
		Find(&documents).Error
	if err != nil {
		return nil, translateError(err, "snapshot documents")
	}
	return documents, nil
}

func (d *DocumentPostgreSQL) NextRevision(ctx context.Context, enrollmentID string, docType models.DocumentType) (int, error) {
	var maxRevision int
	err := d.db.WithContext(ctx).Model(&models.Document{}).
		Where("enrollment_id = ? AND document_type = ?", enrollmentID, docType).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&maxRevision).Error
	if err != nil {
		return 0, translateError(err, "next revision")
	}
	return maxRevision + 1, nil
}

func (d *DocumentPostgreSQL) List(ctx context.Context, filters repositories.DocumentFilters) ([]*models.Document, int64, error) {
	if filters.EmptyScope() {
		return []*models.Document{}, 0, nil
	}

	query := d.db.WithContext(ctx).Model(&models.Document{})
	if len(filters.SchoolIDs) > 0 {
		query = query.
			Joins("JOIN enrollments ON enrollments.id = documents.enrollment_id").
			Where("enrollments.school_id IN ?", filters.SchoolIDs)
	}
	if filters.StudentID != nil {
		query = query.Where("documents.student_id = ?", *filters.StudentID)
	}
	if filters.EnrollmentID != nil {
		query = query.Where("documents.enrollment_id = ?", *filters.EnrollmentID)
	}
	if filters.Status != nil {
		query = query.Where("documents.status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count documents")
	}

	var documents []*models.Document
	query = applyPaginationAndSort(query.Select("documents.*"), "documents", "created_at", "asc", filters.Limit, filters.Offset)
	if err := query.Find(&documents).Error; err != nil {
		return nil, 0, translateError(err, "list documents")
	}
	return documents, total, nil
}

func (d *DocumentPostgreSQL) Review(ctx context.Context, id string, review repositories.DocumentReview) error {
	result := d.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND status = ?", id, models.DocumentPending).
		Updates(map[string]interface{}{
			"status":         review.Status,
			"refusal_reason": review.Reason,
			"reviewed_by":    review.ReviewedBy,
			"reviewed_at":    review.ReviewedAt,
			"updated_at":     review.ReviewedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "review document")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleWrite
	}
	return nil
}
