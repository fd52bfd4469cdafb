package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/autoecole/enrollment-service/internal/cache"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

// SchoolPostgreSQL caches schools by id and each manager's school ids.
// Schools are immutable, so the only invalidation is a new registration.
type SchoolPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSchoolPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SchoolRepository {
	return &SchoolPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (s *SchoolPostgreSQL) Create(ctx context.Context, school *models.DrivingSchool) error {
	if err := s.db.WithContext(ctx).Create(school).Error; err != nil {
		return translateError(err, "create school")
	}
	cache.InvalidateManagerSchools(ctx, s.cacheManager, school.ManagerID)
	return nil
}

func (s *SchoolPostgreSQL) GetByID(ctx context.Context, id string) (*models.DrivingSchool, error) {
	var school models.DrivingSchool
	err := s.cacheManager.School.CacheOrExecute(ctx, id, &school, cache.SchoolCacheConfig.TTL, func() (interface{}, error) {
		var dbSchool models.DrivingSchool
		if err := s.db.WithContext(ctx).Where("id = ?", id).First(&dbSchool).Error; err != nil {
			return nil, translateError(err, "get school")
		}
		return &dbSchool, nil
	})
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (s *SchoolPostgreSQL) ListByManager(ctx context.Context, managerID string) ([]*models.DrivingSchool, error) {
	var ids []string
	err := s.cacheManager.ManagerSchools.CacheOrExecute(ctx, managerID, &ids, cache.ManagerSchoolsCacheConfig.TTL, func() (interface{}, error) {
		var dbIDs []string
		if err := s.db.WithContext(ctx).Model(&models.DrivingSchool{}).
			Where("manager_id = ?", managerID).
			Order("created_at ASC").
			Pluck("id", &dbIDs).Error; err != nil {
			return nil, translateError(err, "list manager schools")
		}
		return dbIDs, nil
	})
	if err != nil {
		return nil, err
	}

	schools := make([]*models.DrivingSchool, 0, len(ids))
	for _, id := range ids {
		school, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load school %s: %w", id, err)
		}
		schools = append(schools, school)
	}
	return schools, nil
}
