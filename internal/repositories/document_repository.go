package repositories

import (
	"context"

	"github.com/autoecole/enrollment-service/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// Snapshot returns every record of the enrollment, oldest first. Inside a
	// transaction it observes that transaction's own writes.
	Snapshot(ctx context.Context, enrollmentID string) ([]models.Document, error)

	// NextRevision is one past the highest revision of docType in the enrollment.
	NextRevision(ctx context.Context, enrollmentID string, docType models.DocumentType) (int, error)

	// List orders by submission time ascending.
	List(ctx context.Context, filters DocumentFilters) ([]*models.Document, int64, error)

	// Review applies a decision to a pending record and fails with
	// ErrStaleWrite if the record is no longer pending.
	Review(ctx context.Context, id string, review DocumentReview) error
}
