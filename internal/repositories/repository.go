package repositories

import "context"

// Repository groups every store the enrollment workflow needs. A Repository
// handed to a WithTransaction callback is bound to that transaction.
type Repository interface {
	// Identity domain
	User() UserRepository

	// School domain
	School() SchoolRepository

	// Workflow domain
	Enrollment() EnrollmentRepository
	Document() DocumentRepository

	// Inbox
	Notification() NotificationRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
