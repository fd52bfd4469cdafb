package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

type enrollmentService struct {
	Dependencies
	machine *stateMachine
	roles   *roleManager
}

func NewEnrollmentService(deps Dependencies) EnrollmentService {
	deps = deps.withDefaults()
	return &enrollmentService{
		Dependencies: deps,
		machine:      newStateMachine(deps),
		roles:        newRoleManager(deps),
	}
}

// ===== STUDENT OPERATIONS =====

func (s *enrollmentService) Enroll(ctx context.Context, studentID string, req *EnrollRequest) (*models.Enrollment, error) {
	if err := s.Validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	if _, err := s.Repo.School().GetByID(ctx, req.SchoolID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: studentID,
		SchoolID:  req.SchoolID,
		Status:    models.EnrollmentPendingDocuments,
	}

	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := getUser(ctx, tx, studentID); err != nil {
			return err
		}

		active, err := tx.Enrollment().FindActive(ctx, studentID, req.SchoolID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check active enrollment: %w", err)
		}
		if active != nil {
			return withMessage(ErrDuplicateEnrollment, "enrollment %s is already %s", active.ID, active.Status)
		}

		// The partial unique index catches a concurrent duplicate.
		if err := tx.Enrollment().Create(ctx, enrollment); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateEnrollment
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "Enrollment created",
		"enrollment_id", enrollment.ID,
		"student_id", studentID,
		"school_id", req.SchoolID)
	return enrollment, nil
}

func (s *enrollmentService) ListForStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	enrollments, _, err := s.Repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		StudentID: &studentID,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// ===== MANAGER OPERATIONS =====

func (s *enrollmentService) ListForManager(ctx context.Context, managerID string) ([]*models.Enrollment, error) {
	_, schoolIDs, err := managedSchools(ctx, s.Repo, managerID)
	if err != nil {
		return nil, err
	}
	enrollments, _, err := s.Repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		SchoolIDs: schoolIDs,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// Accept approves an enrollment and promotes its student in one transaction.
func (s *enrollmentService) Accept(ctx context.Context, managerID, enrollmentID string) (*models.Enrollment, error) {
	return s.transition(ctx, managerID, enrollmentID, workflow.TriggerApprove, nil)
}

func (s *enrollmentService) Reject(ctx context.Context, managerID, enrollmentID, reason string) (*models.Enrollment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, withMessage(ErrMissingReason, "a reason is required to refuse an enrollment")
	}
	return s.transition(ctx, managerID, enrollmentID, workflow.TriggerReject, &reason)
}

func (s *enrollmentService) Complete(ctx context.Context, managerID, enrollmentID string) (*models.Enrollment, error) {
	return s.transition(ctx, managerID, enrollmentID, workflow.TriggerComplete, nil)
}

func (s *enrollmentService) transition(ctx context.Context, managerID, enrollmentID string, trigger workflow.Trigger, reason *string) (*models.Enrollment, error) {
	s.Logger.InfoContext(ctx, "Applying enrollment decision",
		"enrollment_id", enrollmentID,
		"manager_id", managerID,
		"trigger", trigger)

	existing, err := getEnrollment(ctx, s.Repo, enrollmentID, false)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeSchool(ctx, s.Repo, managerID, existing.SchoolID); err != nil {
		return nil, err
	}

	var (
		enrollment *models.Enrollment
		published  []events.Event
	)
	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		enrollment, err = getEnrollment(ctx, tx, enrollmentID, true)
		if err != nil {
			return err
		}

		event, err := s.machine.apply(ctx, tx, enrollment, trigger, managerID, reason)
		if err != nil {
			return err
		}
		published = append(published, event)

		if enrollment.Status == models.EnrollmentApproved {
			if _, err := s.roles.OnEnrollmentApproved(ctx, tx, enrollment.StudentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, published)
	return enrollment, nil
}
