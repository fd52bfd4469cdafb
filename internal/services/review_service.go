package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

// Bounds the parallel ledger reads of one queue request.
const reviewConcurrency = 8

type reviewService struct {
	Dependencies
	machine *stateMachine
	export  *exportService
}

func NewReviewService(deps Dependencies) ReviewService {
	deps = deps.withDefaults()
	return &reviewService{
		Dependencies: deps,
		machine:      newStateMachine(deps),
		export:       newExportService(deps),
	}
}

// PendingDocuments lists every undecided record across the caller's schools,
// oldest first.
func (s *reviewService) PendingDocuments(ctx context.Context, managerID string) ([]PendingDocument, error) {
	schools, schoolIDs, err := managedSchools(ctx, s.Repo, managerID)
	if err != nil {
		return nil, err
	}

	pending := models.DocumentPending
	documents, _, err := s.Repo.Document().List(ctx, repositories.DocumentFilters{
		SchoolIDs: schoolIDs,
		Status:    &pending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending documents: %w", err)
	}
	if len(documents) == 0 {
		return []PendingDocument{}, nil
	}

	enrollmentIDs := make(map[string]struct{})
	studentIDs := make([]string, 0, len(documents))
	for _, document := range documents {
		enrollmentIDs[document.EnrollmentID] = struct{}{}
		studentIDs = append(studentIDs, document.StudentID)
	}
	students, err := s.usersByID(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	enrollments := make(map[string]*models.Enrollment, len(enrollmentIDs))
	for id := range enrollmentIDs {
		enrollment, err := getEnrollment(ctx, s.Repo, id, false)
		if err != nil {
			return nil, err
		}
		enrollments[id] = enrollment
	}

	out := make([]PendingDocument, 0, len(documents))
	for _, document := range documents {
		row := PendingDocument{Document: document, EnrollmentID: document.EnrollmentID}
		if student, ok := students[document.StudentID]; ok {
			row.StudentName = student.FullName()
			row.StudentEmail = student.Email
		}
		if enrollment, ok := enrollments[document.EnrollmentID]; ok {
			row.SchoolID = enrollment.SchoolID
			row.SchoolName = schoolName(ctx, s.Repo, schools, enrollment.SchoolID)
		}
		out = append(out, row)
	}
	return out, nil
}

// PendingEnrollments lists enrollments still in the approval pipeline, each
// annotated from one ledger read. The reads run in parallel.
func (s *reviewService) PendingEnrollments(ctx context.Context, managerID string, status *models.EnrollmentStatus) ([]PendingEnrollment, error) {
	schools, schoolIDs, err := managedSchools(ctx, s.Repo, managerID)
	if err != nil {
		return nil, err
	}

	statuses := []models.EnrollmentStatus{models.EnrollmentPendingApproval, models.EnrollmentPendingDocuments}
	if status != nil {
		statuses = []models.EnrollmentStatus{*status}
	}
	enrollments, _, err := s.Repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		SchoolIDs: schoolIDs,
		Statuses:  statuses,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	studentIDs := make([]string, len(enrollments))
	for i, enrollment := range enrollments {
		studentIDs[i] = enrollment.StudentID
	}
	students, err := s.usersByID(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	out := make([]PendingEnrollment, len(enrollments))
	for i, enrollment := range enrollments {
		out[i] = PendingEnrollment{
			Enrollment: enrollment,
			SchoolName: schoolName(ctx, s.Repo, schools, enrollment.SchoolID),
		}
		if student, ok := students[enrollment.StudentID]; ok {
			out[i].StudentName = student.FullName()
			out[i].StudentEmail = student.Email
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reviewConcurrency)
	for i := range out {
		row := &out[i]
		g.Go(func() error {
			snapshot, err := s.Repo.Document().Snapshot(gctx, row.Enrollment.ID)
			if err != nil {
				return fmt.Errorf("failed to read ledger of %s: %w", row.Enrollment.ID, err)
			}
			if err := s.machine.verify(gctx, row.Enrollment, snapshot); err != nil {
				return err
			}
			row.DocumentsComplete = workflow.IsComplete(snapshot, models.RequiredDocumentTypes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reviewService) ExportPendingDocuments(ctx context.Context, managerID string) ([]byte, error) {
	rows, err := s.PendingDocuments(ctx, managerID)
	if err != nil {
		return nil, err
	}
	return s.export.PendingDocumentsWorkbook(rows)
}

func (s *reviewService) usersByID(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users, err := s.Repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}
