package services

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/autoecole/enrollment-service/internal/models"
)

func (s *workflowSuite) TestAuditFindsEveryViolation() {
	manager, school := s.manager("Nadia")

	healthy := s.createUser("Sami", models.RoleGuest)
	s.readyForApproval(manager, healthy, school)

	// pending_approval with an incomplete ledger
	broken := s.createUser("Lina", models.RoleGuest)
	brokenEnrollment := s.enroll(broken, school)
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, brokenEnrollment.ID,
		statusChange(models.EnrollmentPendingDocuments, models.EnrollmentPendingApproval)))

	// complete ledger stuck in collection
	stuck := s.createUser("Omar", models.RoleGuest)
	stuckEnrollment := s.readyForApproval(manager, stuck, school)
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, stuckEnrollment.ID,
		statusChange(models.EnrollmentPendingApproval, models.EnrollmentPendingDocuments)))

	// approved with an incomplete ledger has no repairing transition
	approved := s.createUser("Yara", models.RoleStudent)
	approvedEnrollment := s.enroll(approved, school)
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, approvedEnrollment.ID,
		statusChange(models.EnrollmentPendingDocuments, models.EnrollmentApproved)))

	orphanStudent := s.createUser("Adam", models.RoleStudent)

	report, err := s.maintenance.Audit(s.ctx)
	s.Require().NoError(err)
	s.False(report.Applied)
	s.Equal(4, report.Enrollments)

	kinds := map[FindingKind][]string{}
	for _, f := range report.Findings {
		s.False(f.Corrected)
		id := f.EnrollmentID
		if id == "" {
			id = f.UserID
		}
		kinds[f.Kind] = append(kinds[f.Kind], id)
	}
	s.ElementsMatch([]string{brokenEnrollment.ID, approvedEnrollment.ID}, kinds[FindingIncompletePastCollection])
	s.Equal([]string{stuckEnrollment.ID}, kinds[FindingCompleteInCollection])
	s.Equal([]string{orphanStudent.ID}, kinds[FindingStudentWithoutApproval])
	s.Empty(kinds[FindingGuestWithApproval])

	// Audit alone writes nothing.
	s.Equal(models.EnrollmentPendingApproval, s.reload(brokenEnrollment).Status)
}

func (s *workflowSuite) TestRepairCorrectsStatusesOnly() {
	manager, school := s.manager("Nadia")

	broken := s.createUser("Lina", models.RoleGuest)
	brokenEnrollment := s.enroll(broken, school)
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, brokenEnrollment.ID,
		statusChange(models.EnrollmentPendingDocuments, models.EnrollmentPendingApproval)))

	stuck := s.createUser("Omar", models.RoleGuest)
	stuckEnrollment := s.readyForApproval(manager, stuck, school)
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, stuckEnrollment.ID,
		statusChange(models.EnrollmentPendingApproval, models.EnrollmentPendingDocuments)))

	orphanStudent := s.createUser("Adam", models.RoleStudent)

	_, err := s.maintenance.Repair(s.ctx, " ")
	s.ErrorIs(err, ErrValidation)

	report, err := s.maintenance.Repair(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(report.Applied)

	fixed := s.reload(brokenEnrollment)
	s.Equal(models.EnrollmentPendingDocuments, fixed.Status)
	s.Equal("maintenance:alice", *fixed.StatusUpdatedBy)
	s.Nil(fixed.RefusalReason)

	advanced := s.reload(stuckEnrollment)
	s.Equal(models.EnrollmentPendingApproval, advanced.Status)
	s.Equal("maintenance:alice", *advanced.StatusUpdatedBy)

	s.Equal(models.RoleStudent, s.role(orphanStudent), "roles are never demoted")

	again, err := s.maintenance.Audit(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(again.Findings, 1)
	s.Equal(FindingStudentWithoutApproval, again.Findings[0].Kind)

	data, err := s.maintenance.Workbook(report)
	s.Require().NoError(err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	s.Require().NoError(err)
	defer f.Close()
	rows, err := f.GetRows("Findings")
	s.Require().NoError(err)
	s.Len(rows, len(report.Findings)+1)
}
