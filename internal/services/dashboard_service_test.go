package services

import (
	"github.com/autoecole/enrollment-service/internal/models"
)

func (s *workflowSuite) TestDashboardListsMissingDocuments() {
	manager, school := s.manager("Nadia")
	student := s.createUser("Sami", models.RoleGuest)
	enrollment := s.enroll(student, school)
	docs := s.uploadAll(student, enrollment)
	s.accept(manager, docs[models.DocumentProfilePhoto])
	s.accept(manager, docs[models.DocumentIDCard])

	dashboard, err := s.dashboard.Get(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Equal(student.ID, dashboard.User.ID)
	s.Require().Len(dashboard.Enrollments, 1)

	row := dashboard.Enrollments[0]
	s.Equal(models.EnrollmentPendingDocuments, row.Status)
	s.Equal(school.Name, row.SchoolName)
	s.False(row.DocumentsComplete)
	s.Equal([]models.DocumentType{models.DocumentMedicalCertificate, models.DocumentResidenceCertificate}, row.MissingDocuments)

	s.accept(manager, docs[models.DocumentMedicalCertificate])
	s.accept(manager, docs[models.DocumentResidenceCertificate])
	dashboard, err = s.dashboard.Get(s.ctx, student.ID)
	s.Require().NoError(err)
	s.True(dashboard.Enrollments[0].DocumentsComplete)
	s.Empty(dashboard.Enrollments[0].MissingDocuments)
	s.Equal(models.EnrollmentPendingApproval, dashboard.Enrollments[0].Status)

	_, err = s.dashboard.Get(s.ctx, "missing")
	s.ErrorIs(err, ErrUserNotFound)
}
