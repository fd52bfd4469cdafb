package services

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/autoecole/enrollment-service/internal/models"
)

func (s *workflowSuite) TestPendingDocumentsQueue() {
	manager, school := s.manager("Nadia")
	_, other := s.manager("Karim")
	student := s.createUser("Sami", models.RoleGuest)
	outsider := s.createUser("Lina", models.RoleGuest)

	enrollment := s.enroll(student, school)
	first := s.upload(student, enrollment, models.DocumentIDCard)
	second := s.upload(student, enrollment, models.DocumentProfilePhoto)
	s.upload(outsider, s.enroll(outsider, other), models.DocumentIDCard)

	queue, err := s.review.PendingDocuments(s.ctx, manager.ID)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	s.Equal(first.ID, queue[0].Document.ID)
	s.Equal(second.ID, queue[1].Document.ID)
	s.Equal("Sami Test", queue[0].StudentName)
	s.Equal(student.Email, queue[0].StudentEmail)
	s.Equal(school.ID, queue[0].SchoolID)
	s.Equal(school.Name, queue[0].SchoolName)
	s.Equal(enrollment.ID, queue[0].EnrollmentID)

	s.accept(manager, first)
	queue, err = s.review.PendingDocuments(s.ctx, manager.ID)
	s.Require().NoError(err)
	s.Len(queue, 1)

	empty, err := s.review.PendingDocuments(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *workflowSuite) TestPendingEnrollmentsQueue() {
	manager, school := s.manager("Nadia")
	ready := s.createUser("Sami", models.RoleGuest)
	collecting := s.createUser("Lina", models.RoleGuest)

	awaiting := s.readyForApproval(manager, ready, school)
	started := s.enroll(collecting, school)
	s.upload(collecting, started, models.DocumentIDCard)

	queue, err := s.review.PendingEnrollments(s.ctx, manager.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	byID := map[string]PendingEnrollment{}
	for _, row := range queue {
		byID[row.Enrollment.ID] = row
	}
	s.True(byID[awaiting.ID].DocumentsComplete)
	s.Equal("Sami Test", byID[awaiting.ID].StudentName)
	s.False(byID[started.ID].DocumentsComplete)
	s.Equal(school.Name, byID[started.ID].SchoolName)

	status := models.EnrollmentPendingApproval
	filtered, err := s.review.PendingEnrollments(s.ctx, manager.ID, &status)
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(awaiting.ID, filtered[0].Enrollment.ID)
}

func (s *workflowSuite) TestExportPendingDocuments() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	s.uploadAll(student, s.enroll(student, school))

	data, err := s.review.ExportPendingDocuments(s.ctx, manager.ID)
	s.Require().NoError(err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	s.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows("Pending Documents")
	s.Require().NoError(err)
	s.Require().Len(rows, 5)
	s.Equal("Submitted At", rows[0][0])
	s.Equal(school.Name, rows[1][1])
	s.Equal("Sami Test", rows[1][2])
	s.Equal(string(models.DocumentProfilePhoto), rows[1][4])
}
