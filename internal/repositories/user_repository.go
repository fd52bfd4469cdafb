package repositories

import (
	"context"

	"github.com/autoecole/enrollment-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Role   *models.UserRole
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateRole moves the role from one value to another and fails with
	// ErrStaleWrite if the stored role is no longer from.
	UpdateRole(ctx context.Context, id string, from, to models.UserRole) error
}
