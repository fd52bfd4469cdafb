package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	return translateError(u.db.WithContext(ctx).Create(user).Error, "create user")
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err, "get user")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translateError(err, "get user by email")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	var users []*models.User
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err, "get users")
	}
	return users, nil
}

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count users")
	}

	var users []*models.User
	query = applyPaginationAndSort(query, "users", "created_at", "asc", filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, translateError(err, "list users")
	}
	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(email)).
		Count(&count).Error
	return count > 0, translateError(err, "check email")
}

func (u *UserPostgreSQL) UpdateRole(ctx context.Context, id string, from, to models.UserRole) error {
	result := u.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", id, from).
		Update("role", to)
	if result.Error != nil {
		return translateError(result.Error, "update role")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrStaleWrite
	}
	return nil
}
