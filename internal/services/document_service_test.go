package services

import (
	"errors"
	"strings"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/workflow"
)

func (s *workflowSuite) TestFullEnrollmentFlow() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)

	enrollment := s.enroll(student, school)
	s.Equal(models.EnrollmentPendingDocuments, enrollment.Status)

	docs := s.uploadAll(student, enrollment)
	s.Equal(models.EnrollmentPendingDocuments, s.reload(enrollment).Status, "uploads never advance the enrollment")

	for i, docType := range models.RequiredDocumentTypes[:3] {
		result := s.accept(manager, docs[docType])
		s.False(result.DocumentsComplete, "accept %d of 4", i+1)
		s.Equal(models.EnrollmentPendingDocuments, result.Enrollment.Status)
	}

	last := s.accept(manager, docs[models.DocumentResidenceCertificate])
	s.True(last.DocumentsComplete)
	s.Equal(models.EnrollmentPendingApproval, last.Enrollment.Status)
	s.Equal(1, s.countEvents(events.EventDocumentsComplete))

	approved, err := s.enrollments.Accept(s.ctx, manager.ID, enrollment.ID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentApproved, approved.Status)
	s.Equal(models.RoleStudent, s.role(student))
	s.Equal(1, s.countEvents(events.EventEnrollmentApproved))
}

func (s *workflowSuite) TestReacceptingIsRejectedWithoutSecondTransition() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	docs := s.uploadAll(student, enrollment)
	for _, doc := range docs {
		s.accept(manager, doc)
	}

	_, err := s.documents.Decide(s.ctx, manager.ID, docs[models.DocumentIDCard].ID, models.DecisionAccept, "")
	s.ErrorIs(err, ErrNotPending)
	s.Equal(KindInvalidState, KindOf(err))
	s.Equal(1, s.countEvents(events.EventDocumentsComplete))
	s.Equal(models.EnrollmentPendingApproval, s.reload(enrollment).Status)
}

func (s *workflowSuite) TestRefuseWithoutReasonLeavesDocumentPending() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	doc := s.upload(student, enrollment, models.DocumentIDCard)

	for _, reason := range []string{"", "   "} {
		_, err := s.documents.Decide(s.ctx, manager.ID, doc.ID, models.DecisionRefuse, reason)
		s.ErrorIs(err, ErrMissingReason)
		s.Equal(KindMissingReason, KindOf(err))
	}

	stored, err := s.repo.Document().GetByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.DocumentPending, stored.Status)
	s.Empty(s.publisher.Types())
}

func (s *workflowSuite) TestRefuseNeverChangesCollectingEnrollment() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	docs := s.uploadAll(student, enrollment)

	result, err := s.documents.Decide(s.ctx, manager.ID, docs[models.DocumentProfilePhoto].ID, models.DecisionRefuse, "face not visible")
	s.Require().NoError(err)
	s.Equal(models.DocumentRefused, result.Document.Status)
	s.Equal("face not visible", *result.Document.RefusalReason)
	s.False(result.DocumentsComplete)
	s.Equal(models.EnrollmentPendingDocuments, s.reload(enrollment).Status)

	// The remaining accepts still leave the refused type open.
	for docType, doc := range docs {
		if docType != models.DocumentProfilePhoto {
			s.False(s.accept(manager, doc).DocumentsComplete)
		}
	}
	s.Equal(models.EnrollmentPendingDocuments, s.reload(enrollment).Status)

	// A re-upload of the refused type supersedes it.
	retry := s.upload(student, enrollment, models.DocumentProfilePhoto)
	s.Equal(2, retry.Revision)
	s.True(s.accept(manager, retry).DocumentsComplete)
	s.Equal(models.EnrollmentPendingApproval, s.reload(enrollment).Status)
}

func (s *workflowSuite) TestUploadWhileAwaitingApprovalReopensEnrollment() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.readyForApproval(manager, student, school)
	s.Require().Equal(models.EnrollmentPendingApproval, enrollment.Status)

	doc := s.upload(student, enrollment, models.DocumentIDCard)
	s.Equal(2, doc.Revision)

	reopened := s.reload(enrollment)
	s.Equal(models.EnrollmentPendingDocuments, reopened.Status)
	s.Nil(reopened.RefusalReason)
	s.Equal(1, s.countEvents(events.EventEnrollmentReopened))

	snapshot, err := s.repo.Document().Snapshot(s.ctx, enrollment.ID)
	s.Require().NoError(err)
	s.Equal([]models.DocumentType{models.DocumentIDCard}, workflow.Missing(snapshot, models.RequiredDocumentTypes))

	_, err = s.enrollments.Accept(s.ctx, manager.ID, enrollment.ID)
	s.ErrorIs(err, ErrInvalidTransition)

	s.True(s.accept(manager, doc).DocumentsComplete)
	s.Equal(models.EnrollmentPendingApproval, s.reload(enrollment).Status)
}

func (s *workflowSuite) TestUploadRejectedOnceApprovedOrClosed() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.readyForApproval(manager, student, school)

	_, err := s.enrollments.Accept(s.ctx, manager.ID, enrollment.ID)
	s.Require().NoError(err)
	_, err = s.documents.Submit(s.ctx, student.ID,
		&SubmitDocumentRequest{DocumentType: models.DocumentIDCard, EnrollmentID: enrollment.ID},
		FileUpload{FileName: "id.png", Content: strings.NewReader("png")})
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.enrollments.Complete(s.ctx, manager.ID, enrollment.ID)
	s.Require().NoError(err)
	_, err = s.documents.Submit(s.ctx, student.ID,
		&SubmitDocumentRequest{DocumentType: models.DocumentIDCard, EnrollmentID: enrollment.ID},
		FileUpload{FileName: "id.png", Content: strings.NewReader("png")})
	s.ErrorIs(err, ErrTerminalState)
}

func (s *workflowSuite) TestUploadValidation() {
	_, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	other := s.createUser("Omar", models.RoleGuest)
	enrollment := s.enroll(student, school)

	_, err := s.documents.Submit(s.ctx, student.ID,
		&SubmitDocumentRequest{DocumentType: "passport", EnrollmentID: enrollment.ID},
		FileUpload{FileName: "p.pdf", Content: strings.NewReader("x")})
	s.ErrorIs(err, ErrInvalidDocumentType)
	s.Equal(KindValidation, KindOf(err))

	_, err = s.documents.Submit(s.ctx, other.ID,
		&SubmitDocumentRequest{DocumentType: models.DocumentIDCard, EnrollmentID: enrollment.ID},
		FileUpload{FileName: "id.pdf", Content: strings.NewReader("x")})
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.documents.Submit(s.ctx, other.ID,
		&SubmitDocumentRequest{DocumentType: models.DocumentIDCard},
		FileUpload{FileName: "id.pdf", Content: strings.NewReader("x")})
	s.ErrorIs(err, ErrEnrollmentNotFound)
}

func (s *workflowSuite) TestUploadDefaultsToNewestCollectingEnrollment() {
	_, first := s.manager("Nadia")
	_, second := s.manager("Karim")
	student := s.createUser("Sami", models.RoleGuest)
	s.enroll(student, first)
	latest := s.enroll(student, second)

	doc, err := s.documents.Submit(s.ctx, student.ID,
		&SubmitDocumentRequest{DocumentType: models.DocumentMedicalCertificate},
		FileUpload{FileName: "med.pdf", Content: strings.NewReader("x")})
	s.Require().NoError(err)
	s.Equal(latest.ID, doc.EnrollmentID)
	s.Equal(int64(1), doc.SizeBytes)
}

func (s *workflowSuite) TestDecideRequiresSchoolManager() {
	_, school := s.manager("Nadia")
	intruder, _ := s.manager("Karim")
	admin := s.createUser("Root", models.RoleAdmin)
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	doc := s.upload(student, enrollment, models.DocumentIDCard)

	_, err := s.documents.Decide(s.ctx, intruder.ID, doc.ID, models.DecisionAccept, "")
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.documents.Decide(s.ctx, intruder.ID, "missing", models.DecisionAccept, "")
	s.ErrorIs(err, ErrDocumentNotFound)

	result, err := s.documents.Decide(s.ctx, admin.ID, doc.ID, models.DecisionAccept, "")
	s.Require().NoError(err)
	s.Equal(models.DocumentAccepted, result.Document.Status)
	s.Equal(admin.ID, *result.Document.ReviewedBy)
}

func (s *workflowSuite) TestDecisionFailureRollsBack() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	doc := s.upload(student, enrollment, models.DocumentIDCard)

	// A rejected enrollment still holding a pending record cannot be decided.
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, enrollment.ID, statusChange(models.EnrollmentPendingDocuments, models.EnrollmentRejected)))

	_, err := s.documents.Decide(s.ctx, manager.ID, doc.ID, models.DecisionAccept, "")
	s.ErrorIs(err, ErrTerminalState)
	stored, err := s.repo.Document().GetByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.DocumentPending, stored.Status)
}

func (s *workflowSuite) TestListings() {
	manager, school := s.manager("Nadia")
	other, _ := s.manager("Karim")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	docs := s.uploadAll(student, enrollment)
	_, err := s.documents.Decide(s.ctx, manager.ID, docs[models.DocumentIDCard].ID, models.DecisionRefuse, "expired")
	s.Require().NoError(err)

	pending := models.DocumentPending
	listed, err := s.documents.ListForManager(s.ctx, manager.ID, school.ID, &pending)
	s.Require().NoError(err)
	s.Len(listed, 3)
	for i := 1; i < len(listed); i++ {
		s.False(listed[i].CreatedAt.Before(listed[i-1].CreatedAt), "oldest first")
	}

	_, err = s.documents.ListForManager(s.ctx, other.ID, school.ID, nil)
	s.ErrorIs(err, ErrUnauthorized)

	mine, err := s.documents.ListForStudent(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Len(mine, 4)

	all, err := s.documents.ListForEnrollment(s.ctx, manager.ID, enrollment.ID)
	s.Require().NoError(err)
	s.Len(all, 4)

	_, err = s.documents.ListForEnrollment(s.ctx, other.ID, enrollment.ID)
	s.True(errors.Is(err, ErrUnauthorized))
}
