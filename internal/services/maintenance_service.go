package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

type FindingKind string

const (
	// Status at pending_approval or later with an incomplete ledger.
	FindingIncompletePastCollection FindingKind = "incomplete_past_collection"
	// Complete ledger still waiting in pending_documents.
	FindingCompleteInCollection FindingKind = "complete_in_collection"
	// Student role without an approved or completed enrollment.
	FindingStudentWithoutApproval FindingKind = "student_without_approval"
	// Guest role although an enrollment was approved.
	FindingGuestWithApproval FindingKind = "guest_with_approval"
)

type Finding struct {
	Kind         FindingKind           `json:"kind"`
	EnrollmentID string                `json:"enrollment_id,omitempty"`
	UserID       string                `json:"user_id"`
	Status       string                `json:"status"`
	Missing      []models.DocumentType `json:"missing,omitempty"`
	Detail       string                `json:"detail"`
	Corrected    bool                  `json:"corrected"`
}

type ReconcileReport struct {
	Operator    string    `json:"operator"`
	Applied     bool      `json:"applied"`
	Enrollments int       `json:"enrollments_scanned"`
	Users       int       `json:"users_scanned"`
	Findings    []Finding `json:"findings"`
}

// MaintenanceService audits stored state against the workflow invariants and
// optionally repairs enrollment statuses. Roles are reported, never demoted.
type MaintenanceService struct {
	Dependencies
	machine *stateMachine
	export  *exportService
}

func NewMaintenanceService(deps Dependencies) *MaintenanceService {
	deps = deps.withDefaults()
	return &MaintenanceService{Dependencies: deps, machine: newStateMachine(deps), export: newExportService(deps)}
}

func (m *MaintenanceService) Audit(ctx context.Context) (*ReconcileReport, error) {
	return m.run(ctx, "", false)
}

// Repair corrects the statuses a transition can fix and records
// "maintenance:<operator>" as the actor of each correction.
func (m *MaintenanceService) Repair(ctx context.Context, operator string) (*ReconcileReport, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return nil, withMessage(ErrValidation, "operator is required to apply corrections")
	}
	return m.run(ctx, operator, true)
}

func (m *MaintenanceService) Workbook(report *ReconcileReport) ([]byte, error) {
	return m.export.ReconcileWorkbook(report)
}

func (m *MaintenanceService) run(ctx context.Context, operator string, apply bool) (*ReconcileReport, error) {
	report := &ReconcileReport{Operator: operator, Applied: apply, Findings: []Finding{}}

	enrollments, _, err := m.Repo.Enrollment().List(ctx, repositories.EnrollmentFilters{SortBy: "created_at", SortOrder: "asc"})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	report.Enrollments = len(enrollments)

	approved := make(map[string]bool)
	var published []events.Event
	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentApproved || enrollment.Status == models.EnrollmentCompleted {
			approved[enrollment.StudentID] = true
		}

		finding, err := m.checkEnrollment(ctx, m.Repo, enrollment)
		if err != nil {
			return nil, err
		}
		if finding == nil {
			continue
		}
		if apply {
			event, corrected, err := m.correct(ctx, enrollment.ID, operator)
			if err != nil {
				return nil, err
			}
			finding.Corrected = corrected
			if corrected {
				published = append(published, event)
			}
		}
		report.Findings = append(report.Findings, *finding)
	}

	users, _, err := m.Repo.User().List(ctx, repositories.UserFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	report.Users = len(users)
	for _, user := range users {
		switch {
		case user.Role == models.RoleStudent && !approved[user.ID]:
			report.Findings = append(report.Findings, Finding{
				Kind:   FindingStudentWithoutApproval,
				UserID: user.ID,
				Status: string(user.Role),
				Detail: "student role without an approved or completed enrollment",
			})
		case user.Role == models.RoleGuest && approved[user.ID]:
			report.Findings = append(report.Findings, Finding{
				Kind:   FindingGuestWithApproval,
				UserID: user.ID,
				Status: string(user.Role),
				Detail: "guest role although an enrollment was approved",
			})
		}
	}

	for _, f := range report.Findings {
		m.Metrics.IncViolation(string(f.Kind))
	}
	m.publish(ctx, published)
	return report, nil
}

func (m *MaintenanceService) checkEnrollment(ctx context.Context, repo repositories.Repository, enrollment *models.Enrollment) (*Finding, error) {
	snapshot, err := repo.Document().Snapshot(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger of %s: %w", enrollment.ID, err)
	}
	missing := workflow.Missing(snapshot, models.RequiredDocumentTypes)

	finding := &Finding{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.StudentID,
		Status:       string(enrollment.Status),
		Missing:      missing,
	}
	switch {
	case enrollment.Status.RequiresCompleteDocuments() && len(missing) > 0:
		finding.Kind = FindingIncompletePastCollection
		finding.Detail = "status requires every document accepted"
	case enrollment.Status == models.EnrollmentPendingDocuments && len(missing) == 0:
		finding.Kind = FindingCompleteInCollection
		finding.Detail = "every document accepted but still collecting"
	default:
		return nil, nil
	}
	return finding, nil
}

// correct re-checks the enrollment under its row lock and applies the
// transition that restores agreement with the ledger. Approved and completed
// enrollments have no such transition and are left for manual review.
func (m *MaintenanceService) correct(ctx context.Context, enrollmentID, operator string) (events.Event, bool, error) {
	actor := "maintenance:" + operator
	var (
		event     events.Event
		corrected bool
	)
	err := m.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		enrollment, err := getEnrollment(ctx, tx, enrollmentID, true)
		if err != nil {
			return err
		}
		finding, err := m.checkEnrollment(ctx, tx, enrollment)
		if err != nil || finding == nil {
			return err
		}

		var trigger workflow.Trigger
		switch {
		case finding.Kind == FindingCompleteInCollection:
			trigger = workflow.TriggerDocumentsComplete
		case enrollment.Status == models.EnrollmentPendingApproval:
			trigger = workflow.TriggerReopen
		default:
			return nil
		}

		reason := "reconciled with document ledger"
		from := enrollment.Status
		event, err = m.machine.apply(ctx, tx, enrollment, trigger, actor, &reason)
		if err != nil {
			return err
		}
		corrected = true
		m.Logger.WarnContext(ctx, "Enrollment status corrected",
			"enrollment_id", enrollment.ID,
			"from", from,
			"to", enrollment.Status,
			"actor", actor)
		return nil
	})
	return event, corrected, err
}
