package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/autoecole/enrollment-service/internal/auth"
	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/metrics"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/repositories/memory"
	"github.com/autoecole/enrollment-service/internal/storage"
)

// workflowSuite wires every service over the in-memory repository.
type workflowSuite struct {
	suite.Suite
	ctx       context.Context
	repo      *memory.MemoryRepository
	publisher *events.MockEventPublisher
	metrics   *metrics.Metrics
	deps      Dependencies

	auth         AuthService
	schools      SchoolService
	enrollments  EnrollmentService
	documents    DocumentService
	review       ReviewService
	dashboard    DashboardService
	notification NotificationService
	maintenance  *MaintenanceService
}

func (s *workflowSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.repo = memory.NewMemoryRepository()
	s.publisher = events.NewMockEventPublisher(logger)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.deps = Dependencies{
		Repo:      s.repo,
		Logger:    logger,
		Publisher: s.publisher,
		Metrics:   s.metrics,
		Blobs:     storage.NewMemoryStore(),
		Tokens:    auth.NewTokenService("test-secret", time.Hour),
	}

	s.auth = NewAuthService(s.deps)
	s.schools = NewSchoolService(s.deps)
	s.enrollments = NewEnrollmentService(s.deps)
	s.documents = NewDocumentService(s.deps)
	s.review = NewReviewService(s.deps)
	s.dashboard = NewDashboardService(s.deps)
	s.notification = NewNotificationService(s.deps)
	s.maintenance = NewMaintenanceService(s.deps)
}

func (s *workflowSuite) createUser(first string, role models.UserRole) *models.User {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(first) + "-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "unused",
		Role:         role,
		FirstName:    first,
		LastName:     "Test",
	}
	require.NoError(s.T(), s.repo.User().Create(s.ctx, user))
	return user
}

// manager registers a school through the service, so the owner is promoted
// the same way as in production.
func (s *workflowSuite) manager(name string) (*models.User, *models.DrivingSchool) {
	owner := s.createUser(name, models.RoleGuest)
	reg, err := s.schools.Register(s.ctx, owner.ID, &RegisterSchoolRequest{Name: name + " Driving School", Price: 450})
	require.NoError(s.T(), err)
	return reg.User, reg.School
}

func (s *workflowSuite) enroll(student *models.User, school *models.DrivingSchool) *models.Enrollment {
	enrollment, err := s.enrollments.Enroll(s.ctx, student.ID, &EnrollRequest{SchoolID: school.ID})
	require.NoError(s.T(), err)
	return enrollment
}

func (s *workflowSuite) upload(student *models.User, enrollment *models.Enrollment, docType models.DocumentType) *models.Document {
	doc, err := s.documents.Submit(s.ctx, student.ID,
		&SubmitDocumentRequest{DocumentType: docType, EnrollmentID: enrollment.ID},
		FileUpload{FileName: string(docType) + ".pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF-1.4")})
	require.NoError(s.T(), err)
	return doc
}

// uploadAll submits one record per required type and returns them by type.
func (s *workflowSuite) uploadAll(student *models.User, enrollment *models.Enrollment) map[models.DocumentType]*models.Document {
	docs := make(map[models.DocumentType]*models.Document)
	for _, docType := range models.RequiredDocumentTypes {
		docs[docType] = s.upload(student, enrollment, docType)
	}
	return docs
}

func (s *workflowSuite) accept(manager *models.User, doc *models.Document) *DecisionResult {
	result, err := s.documents.Decide(s.ctx, manager.ID, doc.ID, models.DecisionAccept, "")
	require.NoError(s.T(), err)
	return result
}

// readyForApproval drives a fresh enrollment to pending_approval.
func (s *workflowSuite) readyForApproval(manager, student *models.User, school *models.DrivingSchool) *models.Enrollment {
	enrollment := s.enroll(student, school)
	for _, doc := range s.uploadAll(student, enrollment) {
		s.accept(manager, doc)
	}
	return s.reload(enrollment)
}

func (s *workflowSuite) reload(enrollment *models.Enrollment) *models.Enrollment {
	current, err := s.repo.Enrollment().GetByID(s.ctx, enrollment.ID)
	require.NoError(s.T(), err)
	return current
}

func (s *workflowSuite) role(user *models.User) models.UserRole {
	current, err := s.repo.User().GetByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	return current.Role
}

func (s *workflowSuite) countEvents(eventType events.EventType) int {
	count := 0
	for _, t := range s.publisher.Types() {
		if t == eventType {
			count++
		}
	}
	return count
}

// statusChange forces a stored status, bypassing the state machine, to set up
// states the workflow itself cannot reach.
func statusChange(from, to models.EnrollmentStatus) repositories.StatusChange {
	return repositories.StatusChange{From: from, To: to, Actor: "test", At: time.Now().UTC()}
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(workflowSuite))
}
