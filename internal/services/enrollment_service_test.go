package services

import (
	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
)

func (s *workflowSuite) TestDuplicateEnrollment() {
	_, school := s.manager("Nadia")
	_, other := s.manager("Karim")
	student := s.createUser("Sami", models.RoleGuest)

	s.enroll(student, school)
	_, err := s.enrollments.Enroll(s.ctx, student.ID, &EnrollRequest{SchoolID: school.ID})
	s.ErrorIs(err, ErrDuplicateEnrollment)
	s.Equal(KindDuplicateEnrollment, KindOf(err))

	// A different school is a separate enrollment.
	s.enroll(student, other)

	_, err = s.enrollments.Enroll(s.ctx, student.ID, &EnrollRequest{SchoolID: "unknown"})
	s.ErrorIs(err, ErrSchoolNotFound)

	_, err = s.enrollments.Enroll(s.ctx, student.ID, &EnrollRequest{})
	s.ErrorIs(err, ErrValidation)
}

func (s *workflowSuite) TestReenrollAfterRejection() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.readyForApproval(manager, student, school)

	_, err := s.enrollments.Reject(s.ctx, manager.ID, enrollment.ID, "  ")
	s.ErrorIs(err, ErrMissingReason)

	rejected, err := s.enrollments.Reject(s.ctx, manager.ID, enrollment.ID, "incomplete file")
	s.Require().NoError(err)
	s.Equal(models.EnrollmentRejected, rejected.Status)
	s.Equal("incomplete file", *rejected.RefusalReason)
	s.Equal(manager.ID, *rejected.StatusUpdatedBy)
	s.Equal(models.RoleGuest, s.role(student))

	_, err = s.enrollments.Accept(s.ctx, manager.ID, enrollment.ID)
	s.ErrorIs(err, ErrTerminalState)

	again := s.enroll(student, school)
	s.NotEqual(enrollment.ID, again.ID)
}

func (s *workflowSuite) TestManagerTransitions() {
	manager, school := s.manager("Nadia")
	intruder, _ := s.manager("Karim")
	student := s.createUser("Sami", models.RoleGuest)

	collecting := s.enroll(student, school)
	_, err := s.enrollments.Accept(s.ctx, manager.ID, collecting.ID)
	s.ErrorIs(err, ErrInvalidTransition, "approval needs every document accepted first")
	_, err = s.enrollments.Complete(s.ctx, manager.ID, collecting.ID)
	s.ErrorIs(err, ErrInvalidTransition)

	for _, doc := range s.uploadAll(student, collecting) {
		s.accept(manager, doc)
	}

	_, err = s.enrollments.Accept(s.ctx, intruder.ID, collecting.ID)
	s.ErrorIs(err, ErrUnauthorized)
	_, err = s.enrollments.Accept(s.ctx, manager.ID, "missing")
	s.ErrorIs(err, ErrEnrollmentNotFound)

	approved, err := s.enrollments.Accept(s.ctx, manager.ID, collecting.ID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentApproved, approved.Status)

	completed, err := s.enrollments.Complete(s.ctx, manager.ID, collecting.ID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentCompleted, completed.Status)
	s.Equal(models.RoleStudent, s.role(student))
	s.Equal(1, s.countEvents(events.EventEnrollmentCompleted))
}

func (s *workflowSuite) TestInconsistentStateIsReportedNotCorrected() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	s.upload(student, enrollment, models.DocumentIDCard)
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, enrollment.ID,
		statusChange(models.EnrollmentPendingDocuments, models.EnrollmentPendingApproval)))

	_, err := s.enrollments.Accept(s.ctx, manager.ID, enrollment.ID)
	s.ErrorIs(err, ErrInconsistentState)
	s.Equal(KindInconsistentState, KindOf(err))
	s.Equal(models.EnrollmentPendingApproval, s.reload(enrollment).Status)

	_, err = s.dashboard.Get(s.ctx, student.ID)
	s.ErrorIs(err, ErrInconsistentState)
}

func (s *workflowSuite) TestSchoolRegistrationPromotesToManager() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	s.enroll(student, school)

	reg, err := s.schools.Register(s.ctx, student.ID, &RegisterSchoolRequest{Name: "Sami Auto", Price: 300})
	s.Require().NoError(err)
	s.Equal(models.RoleManager, reg.User.Role, "a pending enrollment elsewhere does not block promotion")
	s.Equal(models.RoleManager, s.role(student))

	// Approval afterwards never demotes.
	enrollment, err := s.enrollments.ListForStudent(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Require().Len(enrollment, 1)
	for _, doc := range s.uploadAll(student, enrollment[0]) {
		s.accept(manager, doc)
	}
	_, err = s.enrollments.Accept(s.ctx, manager.ID, enrollment[0].ID)
	s.Require().NoError(err)
	s.Equal(models.RoleManager, s.role(student))

	owned, err := s.schools.ListOwned(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Len(owned, 1)

	_, err = s.schools.Register(s.ctx, student.ID, &RegisterSchoolRequest{Name: " "})
	s.ErrorIs(err, ErrValidation)
}

func (s *workflowSuite) TestManagerEnrollmentScope() {
	manager, school := s.manager("Nadia")
	_, other := s.manager("Karim")
	admin := s.createUser("Root", models.RoleAdmin)
	student := s.createUser("Sami", models.RoleGuest)
	s.enroll(student, school)
	s.enroll(student, other)

	mine, err := s.enrollments.ListForManager(s.ctx, manager.ID)
	s.Require().NoError(err)
	s.Len(mine, 1)
	s.Equal(school.ID, mine[0].SchoolID)

	all, err := s.enrollments.ListForManager(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.Len(all, 2)

	none, err := s.enrollments.ListForManager(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Empty(none)
}
