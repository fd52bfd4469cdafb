package services

import (
	"context"
	"fmt"
	"sync"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	// Service instances
	authService         AuthService
	schoolService       SchoolService
	enrollmentService   EnrollmentService
	documentService     DocumentService
	reviewService       ReviewService
	dashboardService    DashboardService
	notificationService NotificationService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies) ServiceManager {
	return &serviceManager{deps: deps.withDefaults()}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if sm.deps.Repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.deps.Blobs == nil {
		return fmt.Errorf("blob store is required")
	}
	if sm.deps.Tokens == nil {
		return fmt.Errorf("token service is required")
	}

	sm.authService = NewAuthService(sm.deps)
	sm.schoolService = NewSchoolService(sm.deps)
	sm.enrollmentService = NewEnrollmentService(sm.deps)
	sm.documentService = NewDocumentService(sm.deps)
	sm.reviewService = NewReviewService(sm.deps)
	sm.dashboardService = NewDashboardService(sm.deps)
	sm.notificationService = NewNotificationService(sm.deps)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) ready() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authService
}

func (sm *serviceManager) School() SchoolService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.schoolService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.enrollmentService
}

func (sm *serviceManager) Document() DocumentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.documentService
}

func (sm *serviceManager) Review() ReviewService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.reviewService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.dashboardService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.notificationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown closes the event publisher. The repository is owned and closed by
// its RepositoryManager.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true
	sm.deps.Logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}
	return nil
}
