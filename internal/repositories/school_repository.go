package repositories

import (
	"context"

	"github.com/autoecole/enrollment-service/internal/models"
)

type SchoolRepository interface {
	Create(ctx context.Context, school *models.DrivingSchool) error
	GetByID(ctx context.Context, id string) (*models.DrivingSchool, error)
	ListByManager(ctx context.Context, managerID string) ([]*models.DrivingSchool, error)
}
