package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type MemoryRepositorySuite struct {
	suite.Suite
	repo *MemoryRepository
	ctx  context.Context
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.repo = NewMemoryRepository()
	s.ctx = context.Background()
}

func (s *MemoryRepositorySuite) newEnrollment(studentID, schoolID string) *models.Enrollment {
	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: studentID,
		SchoolID:  schoolID,
		Status:    models.EnrollmentPendingDocuments,
	}
	s.Require().NoError(s.repo.Enrollment().Create(s.ctx, enrollment))
	return enrollment
}

func (s *MemoryRepositorySuite) TestUserEmailIsUnique() {
	s.Require().NoError(s.repo.User().Create(s.ctx, &models.User{ID: "u1", Email: "Ana@Example.com", Role: models.RoleGuest}))
	err := s.repo.User().Create(s.ctx, &models.User{ID: "u2", Email: "ana@example.com", Role: models.RoleGuest})
	s.Require().ErrorIs(err, repositories.ErrDuplicate)

	exists, err := s.repo.User().ExistsByEmail(s.ctx, "ANA@example.com")
	s.Require().NoError(err)
	s.True(exists)

	_, err = s.repo.User().GetByID(s.ctx, "missing")
	s.True(repositories.IsNotFoundError(err))
}

func (s *MemoryRepositorySuite) TestUpdateRoleIsCompareAndSet() {
	s.Require().NoError(s.repo.User().Create(s.ctx, &models.User{ID: "u1", Email: "a@b.c", Role: models.RoleGuest}))

	s.Require().NoError(s.repo.User().UpdateRole(s.ctx, "u1", models.RoleGuest, models.RoleStudent))
	err := s.repo.User().UpdateRole(s.ctx, "u1", models.RoleGuest, models.RoleManager)
	s.Require().ErrorIs(err, repositories.ErrStaleWrite)

	user, err := s.repo.User().GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(models.RoleStudent, user.Role)
}

func (s *MemoryRepositorySuite) TestActiveEnrollmentIsUniquePerSchool() {
	first := s.newEnrollment("student", "school")

	err := s.repo.Enrollment().Create(s.ctx, &models.Enrollment{
		ID: uuid.NewString(), StudentID: "student", SchoolID: "school", Status: models.EnrollmentPendingDocuments,
	})
	s.Require().ErrorIs(err, repositories.ErrDuplicate)

	s.newEnrollment("student", "other-school")

	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, first.ID, repositories.StatusChange{
		From: models.EnrollmentPendingDocuments, To: models.EnrollmentPendingApproval, Actor: "m", At: time.Now(),
	}))
	reason := "incomplete file"
	s.Require().NoError(s.repo.Enrollment().UpdateStatus(s.ctx, first.ID, repositories.StatusChange{
		From: models.EnrollmentPendingApproval, To: models.EnrollmentRejected, Actor: "m", At: time.Now(), Reason: &reason,
	}))

	again := s.newEnrollment("student", "school")
	found, err := s.repo.Enrollment().FindActive(s.ctx, "student", "school")
	s.Require().NoError(err)
	s.Equal(again.ID, found.ID)

	rejected, err := s.repo.Enrollment().GetByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentRejected, rejected.Status)
	s.Equal("incomplete file", *rejected.RefusalReason)
	s.Equal("m", *rejected.StatusUpdatedBy)
}

func (s *MemoryRepositorySuite) TestUpdateStatusRejectsStaleSource() {
	enrollment := s.newEnrollment("student", "school")
	err := s.repo.Enrollment().UpdateStatus(s.ctx, enrollment.ID, repositories.StatusChange{
		From: models.EnrollmentPendingApproval, To: models.EnrollmentApproved, At: time.Now(),
	})
	s.Require().ErrorIs(err, repositories.ErrStaleWrite)
}

func (s *MemoryRepositorySuite) TestTransactionRollsBackOnError() {
	enrollment := s.newEnrollment("student", "school")
	boom := errors.New("boom")

	err := s.repo.WithTransaction(s.ctx, func(tx repositories.Repository) error {
		s.Require().NoError(tx.Document().Create(s.ctx, &models.Document{
			ID: "d1", EnrollmentID: enrollment.ID, DocumentType: models.DocumentIDCard, Revision: 1, Status: models.DocumentPending,
		}))
		s.Require().NoError(tx.Enrollment().UpdateStatus(s.ctx, enrollment.ID, repositories.StatusChange{
			From: models.EnrollmentPendingDocuments, To: models.EnrollmentPendingApproval, At: time.Now(),
		}))

		snapshot, err := tx.Document().Snapshot(s.ctx, enrollment.ID)
		s.Require().NoError(err)
		s.Len(snapshot, 1, "transaction observes its own writes")
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.repo.Document().GetByID(s.ctx, "d1")
	s.True(repositories.IsNotFoundError(err))
	stored, err := s.repo.Enrollment().GetByID(s.ctx, enrollment.ID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentPendingDocuments, stored.Status)
}

func (s *MemoryRepositorySuite) TestDocumentRevisionsAndReview() {
	enrollment := s.newEnrollment("student", "school")
	docs := s.repo.Document()

	for i := 0; i < 2; i++ {
		revision, err := docs.NextRevision(s.ctx, enrollment.ID, models.DocumentIDCard)
		s.Require().NoError(err)
		s.Equal(i+1, revision)
		s.Require().NoError(docs.Create(s.ctx, &models.Document{
			ID: uuid.NewString(), StudentID: "student", EnrollmentID: enrollment.ID,
			DocumentType: models.DocumentIDCard, Revision: revision, Status: models.DocumentPending,
		}))
	}

	dup := &models.Document{ID: uuid.NewString(), EnrollmentID: enrollment.ID, DocumentType: models.DocumentIDCard, Revision: 2}
	s.Require().ErrorIs(docs.Create(s.ctx, dup), repositories.ErrDuplicate)

	snapshot, err := docs.Snapshot(s.ctx, enrollment.ID)
	s.Require().NoError(err)
	s.Require().Len(snapshot, 2)
	s.Equal(1, snapshot[0].Revision)

	review := repositories.DocumentReview{Status: models.DocumentAccepted, ReviewedBy: "manager", ReviewedAt: time.Now()}
	s.Require().NoError(docs.Review(s.ctx, snapshot[0].ID, review))
	s.Require().ErrorIs(docs.Review(s.ctx, snapshot[0].ID, review), repositories.ErrStaleWrite)
}

func (s *MemoryRepositorySuite) TestDocumentListScopesBySchool() {
	mine := s.newEnrollment("student", "school-a")
	theirs := s.newEnrollment("student", "school-b")
	for _, enrollment := range []*models.Enrollment{mine, theirs} {
		s.Require().NoError(s.repo.Document().Create(s.ctx, &models.Document{
			ID: uuid.NewString(), StudentID: "student", EnrollmentID: enrollment.ID,
			DocumentType: models.DocumentProfilePhoto, Revision: 1, Status: models.DocumentPending,
		}))
	}

	pending := models.DocumentPending
	docs, total, err := s.repo.Document().List(s.ctx, repositories.DocumentFilters{
		SchoolIDs: []string{"school-a"}, Status: &pending,
	})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(mine.ID, docs[0].EnrollmentID)

	docs, total, err = s.repo.Document().List(s.ctx, repositories.DocumentFilters{SchoolIDs: []string{}})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(docs)
}

func (s *MemoryRepositorySuite) TestNotifications() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.repo.Notification().Create(s.ctx, &models.Notification{
			ID: uuid.NewString(), UserID: "u1", Type: models.NotificationDocumentAccepted, Title: "t",
		}))
	}
	list, total, err := s.repo.Notification().ListByUser(s.ctx, "u1", repositories.NotificationFilters{Limit: 2})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Len(list, 2)

	s.Require().NoError(s.repo.Notification().MarkRead(s.ctx, list[0].ID, "u1", time.Now()))
	s.True(repositories.IsNotFoundError(s.repo.Notification().MarkRead(s.ctx, list[0].ID, "someone-else", time.Now())))

	unread, err := s.repo.Notification().CountUnread(s.ctx, "u1")
	s.Require().NoError(err)
	s.EqualValues(2, unread)
}
