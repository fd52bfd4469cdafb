package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/autoecole/enrollment-service/internal/auth"
	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/metrics"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/storage"
	"github.com/autoecole/enrollment-service/internal/validator"
)

// Dependencies is what every service is built from.
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Publisher events.EventPublisher
	Metrics   *metrics.Metrics
	Blobs     storage.BlobStore
	Tokens    *auth.TokenService
	Now       func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// publish hands committed events to the bus. The state they describe is
// already durable, so a failure is logged and counted but never returned.
func (d Dependencies) publish(ctx context.Context, evts []events.Event) {
	if d.Publisher == nil || len(evts) == 0 {
		return
	}
	if err := d.Publisher.Publish(ctx, evts...); err != nil {
		for _, event := range evts {
			d.Metrics.IncEvent(string(event.Type), "failed")
		}
		d.Logger.ErrorContext(ctx, "Failed to publish workflow events", "count", len(evts), "error", err)
		return
	}
	for _, event := range evts {
		d.Metrics.IncEvent(string(event.Type), "published")
	}
}

func getUser(ctx context.Context, repo repositories.Repository, userID string) (*models.User, error) {
	user, err := repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func getEnrollment(ctx context.Context, repo repositories.Repository, enrollmentID string, forUpdate bool) (*models.Enrollment, error) {
	get := repo.Enrollment().GetByID
	if forUpdate {
		get = repo.Enrollment().GetForUpdate
	}
	enrollment, err := get(ctx, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

// authorizeSchool returns the school when userID manages it. Admins manage
// every school.
func authorizeSchool(ctx context.Context, repo repositories.Repository, userID, schoolID string) (*models.DrivingSchool, error) {
	school, err := repo.School().GetByID(ctx, schoolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	if school.ManagerID == userID {
		return school, nil
	}

	user, err := getUser(ctx, repo, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}
	return school, nil
}

// managedSchools returns the schools in the caller's review scope. A nil id
// slice means every school (admin); an empty one means none.
func managedSchools(ctx context.Context, repo repositories.Repository, userID string) (map[string]*models.DrivingSchool, []string, error) {
	user, err := getUser(ctx, repo, userID)
	if err != nil {
		return nil, nil, err
	}

	schools, err := repo.School().ListByManager(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list schools: %w", err)
	}

	byID := make(map[string]*models.DrivingSchool, len(schools))
	ids := make([]string, 0, len(schools))
	for _, school := range schools {
		byID[school.ID] = school
		ids = append(ids, school.ID)
	}
	if user.Role == models.RoleAdmin {
		ids = nil
	}
	return byID, ids, nil
}

// schoolName resolves names outside the caller's own schools lazily.
func schoolName(ctx context.Context, repo repositories.Repository, known map[string]*models.DrivingSchool, schoolID string) string {
	if school, ok := known[schoolID]; ok {
		return school.Name
	}
	school, err := repo.School().GetByID(ctx, schoolID)
	if err != nil {
		return ""
	}
	known[schoolID] = school
	return school.Name
}
