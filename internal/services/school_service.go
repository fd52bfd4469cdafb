package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type schoolService struct {
	Dependencies
	roles *roleManager
}

func NewSchoolService(deps Dependencies) SchoolService {
	deps = deps.withDefaults()
	return &schoolService{Dependencies: deps, roles: newRoleManager(deps)}
}

// Register promotes the caller to manager whatever enrollments they hold
// elsewhere.
func (s *schoolService) Register(ctx context.Context, userID string, req *RegisterSchoolRequest) (*SchoolRegistration, error) {
	if err := s.Validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	school := &models.DrivingSchool{
		ID:          uuid.NewString(),
		ManagerID:   userID,
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		State:       req.State,
		Phone:       req.Phone,
		Email:       strings.ToLower(req.Email),
		Description: req.Description,
		Price:       req.Price,
	}

	var user *models.User
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := getUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := tx.School().Create(ctx, school); err != nil {
			return fmt.Errorf("failed to create school: %w", err)
		}

		var err error
		user, err = s.roles.OnSchoolRegistered(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "Driving school registered",
		"school_id", school.ID,
		"manager_id", userID,
		"role", user.Role)

	s.publish(ctx, []events.Event{events.NewEvent(events.EventSchoolRegistered, userID, map[string]interface{}{
		"school_id":   school.ID,
		"school_name": school.Name,
	})})

	return &SchoolRegistration{School: school, User: user}, nil
}

func (s *schoolService) ListOwned(ctx context.Context, userID string) ([]*models.DrivingSchool, error) {
	schools, err := s.Repo.School().ListByManager(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, nil
}
