package services

import (
	"context"
	"fmt"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

type dashboardService struct {
	Dependencies
	machine *stateMachine
}

func NewDashboardService(deps Dependencies) DashboardService {
	deps = deps.withDefaults()
	return &dashboardService{Dependencies: deps, machine: newStateMachine(deps)}
}

// Get returns the caller's enrollments with what is still missing for each.
func (s *dashboardService) Get(ctx context.Context, userID string) (*DashboardResponse, error) {
	user, err := getUser(ctx, s.Repo, userID)
	if err != nil {
		return nil, err
	}

	enrollments, _, err := s.Repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		StudentID: &userID,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	schools := map[string]*models.DrivingSchool{}
	out := make([]DashboardEnrollment, 0, len(enrollments))
	for _, enrollment := range enrollments {
		snapshot, err := s.Repo.Document().Snapshot(ctx, enrollment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read document ledger: %w", err)
		}
		if err := s.machine.verify(ctx, enrollment, snapshot); err != nil {
			return nil, err
		}

		missing := workflow.Missing(snapshot, models.RequiredDocumentTypes)
		if missing == nil {
			missing = []models.DocumentType{}
		}
		out = append(out, DashboardEnrollment{
			Enrollment:        enrollment,
			SchoolName:        schoolName(ctx, s.Repo, schools, enrollment.SchoolID),
			DocumentsComplete: len(missing) == 0,
			MissingDocuments:  missing,
		})
	}

	return &DashboardResponse{User: user, Enrollments: out}, nil
}
