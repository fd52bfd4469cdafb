package services

import (
	"context"
	"io"
	"time"

	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/models"
)

// ===== REQUEST DTOs =====

type RegisterRequest struct {
	Email       string     `json:"email" form:"email" validate:"required,email,max=255"`
	Password    string     `json:"password" form:"password" validate:"required,min=8,max=72"`
	FirstName   string     `json:"first_name" form:"first_name" validate:"required,not_blank,max=100"`
	LastName    string     `json:"last_name" form:"last_name" validate:"required,not_blank,max=100"`
	Phone       string     `json:"phone" form:"phone" validate:"omitempty,max=30"`
	Address     string     `json:"address" form:"address" validate:"omitempty,max=255"`
	DateOfBirth *time.Time `json:"date_of_birth" form:"date_of_birth" time_format:"2006-01-02"`
	Gender      string     `json:"gender" form:"gender" validate:"omitempty,max=20"`
	State       string     `json:"state" form:"state" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RegisterSchoolRequest struct {
	Name        string  `json:"name" form:"name" validate:"required,not_blank,min=2,max=200"`
	Address     string  `json:"address" form:"address" validate:"omitempty,max=255"`
	State       string  `json:"state" form:"state" validate:"omitempty,max=100"`
	Phone       string  `json:"phone" form:"phone" validate:"omitempty,max=30"`
	Email       string  `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Description string  `json:"description" form:"description" validate:"omitempty,max=2000"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
}

type EnrollRequest struct {
	SchoolID string `json:"school_id" form:"school_id" validate:"required,not_blank"`
}

type SubmitDocumentRequest struct {
	DocumentType models.DocumentType `json:"document_type" form:"document_type" validate:"required,document_type"`
	EnrollmentID string              `json:"enrollment_id" form:"enrollment_id"`
}

// FileUpload is an uploaded payload as the ledger sees it.
type FileUpload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// ===== RESPONSE DTOs =====

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type SchoolRegistration struct {
	School *models.DrivingSchool `json:"school"`
	User   *models.User          `json:"user"`
}

type DecisionResult struct {
	Document          *models.Document   `json:"document"`
	DocumentsComplete bool               `json:"documents_complete"`
	Enrollment        *models.Enrollment `json:"enrollment"`
}

type PendingDocument struct {
	Document     *models.Document `json:"document"`
	StudentName  string           `json:"student_name"`
	StudentEmail string           `json:"student_email"`
	SchoolID     string           `json:"school_id"`
	SchoolName   string           `json:"school_name"`
	EnrollmentID string           `json:"enrollment_id"`
}

type PendingEnrollment struct {
	Enrollment        *models.Enrollment `json:"enrollment"`
	StudentName       string             `json:"student_name"`
	StudentEmail      string             `json:"student_email"`
	SchoolName        string             `json:"school_name"`
	DocumentsComplete bool               `json:"documents_complete"`
}

type DashboardEnrollment struct {
	*models.Enrollment
	SchoolName        string                `json:"school_name"`
	DocumentsComplete bool                  `json:"documents_complete"`
	MissingDocuments  []models.DocumentType `json:"missing_documents"`
}

type DashboardResponse struct {
	User        *models.User          `json:"user"`
	Enrollments []DashboardEnrollment `json:"enrollments"`
}

type NotificationList struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest, photo *FileUpload) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type SchoolService interface {
	// Register creates a school owned by the caller and promotes the caller
	// to manager in the same transaction.
	Register(ctx context.Context, userID string, req *RegisterSchoolRequest) (*SchoolRegistration, error)
	ListOwned(ctx context.Context, userID string) ([]*models.DrivingSchool, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, studentID string, req *EnrollRequest) (*models.Enrollment, error)
	ListForStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	ListForManager(ctx context.Context, managerID string) ([]*models.Enrollment, error)

	Accept(ctx context.Context, managerID, enrollmentID string) (*models.Enrollment, error)
	Reject(ctx context.Context, managerID, enrollmentID, reason string) (*models.Enrollment, error)
	Complete(ctx context.Context, managerID, enrollmentID string) (*models.Enrollment, error)
}

type DocumentService interface {
	Submit(ctx context.Context, studentID string, req *SubmitDocumentRequest, file FileUpload) (*models.Document, error)
	Decide(ctx context.Context, managerID, documentID string, decision models.DocumentDecision, reason string) (*DecisionResult, error)

	ListForManager(ctx context.Context, managerID, schoolID string, status *models.DocumentStatus) ([]*models.Document, error)
	ListForStudent(ctx context.Context, studentID string) ([]*models.Document, error)
	ListForEnrollment(ctx context.Context, managerID, enrollmentID string) ([]*models.Document, error)
}

type ReviewService interface {
	PendingDocuments(ctx context.Context, managerID string) ([]PendingDocument, error)
	PendingEnrollments(ctx context.Context, managerID string, status *models.EnrollmentStatus) ([]PendingEnrollment, error)
	ExportPendingDocuments(ctx context.Context, managerID string) ([]byte, error)
}

type DashboardService interface {
	Get(ctx context.Context, userID string) (*DashboardResponse, error)
}

type NotificationService interface {
	events.Sink

	List(ctx context.Context, userID string, unreadOnly bool) (*NotificationList, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	School() SchoolService
	Enrollment() EnrollmentService
	Document() DocumentService
	Review() ReviewService
	Dashboard() DashboardService
	Notification() NotificationService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
