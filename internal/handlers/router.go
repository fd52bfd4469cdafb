package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autoecole/enrollment-service/internal/auth"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

// cacheStatsReporter is implemented by repositories backed by a cache.
type cacheStatsReporter interface {
	CacheStats(ctx context.Context) map[string]interface{}
}

type HandlerManager struct {
	authHandler         *AuthHandler
	schoolHandler       *SchoolHandler
	enrollmentHandler   *EnrollmentHandler
	documentHandler     *DocumentHandler
	managerHandler      *ManagerHandler
	dashboardHandler    *DashboardHandler
	notificationHandler *NotificationHandler
	authMiddleware      *JWTAuthMiddleware

	services services.ServiceManager
	repo     repositories.Repository
	gatherer prometheus.Gatherer
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	repo repositories.Repository,
	tokens *auth.TokenService,
	gatherer prometheus.Gatherer,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		schoolHandler:       NewSchoolHandler(serviceManager.School(), logger),
		enrollmentHandler:   NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		documentHandler:     NewDocumentHandler(serviceManager.Document(), logger),
		managerHandler:      NewManagerHandler(serviceManager.Review(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		authMiddleware:      NewJWTAuthMiddleware(tokens, repo.User()),
		services:            serviceManager,
		repo:                repo,
		gatherer:            gatherer,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", hm.authHandler.Register)
		authRoutes.POST("/login", hm.authHandler.Login)
	}
	api.GET("/health", hm.health)
	api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(hm.gatherer, promhttp.HandlerOpts{})))

	// Everything below requires a bearer token
	secured := api.Group("")
	secured.Use(hm.authMiddleware.AuthMiddleware())
	{
		secured.GET("/users/me", hm.authHandler.Me)
		secured.POST("/driving-schools", hm.schoolHandler.RegisterSchool)
		secured.GET("/dashboard", hm.dashboardHandler.GetDashboard)

		enrollments := secured.Group("/enrollments")
		{
			enrollments.POST("", hm.enrollmentHandler.Enroll)
			enrollments.GET("", hm.enrollmentHandler.ListMyEnrollments)
		}

		documents := secured.Group("/documents")
		{
			documents.POST("/upload", hm.documentHandler.UploadDocument)
			documents.GET("", hm.documentHandler.ListMyDocuments)

			// Decisions - Managers and Admins only
			documents.POST("/accept/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.documentHandler.AcceptDocument)
			documents.POST("/refuse/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleManager), hm.documentHandler.RefuseDocument)
		}

		notifications := secured.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
		}

		// Review queue - Managers and Admins only
		managers := secured.Group("/managers")
		managers.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleManager))
		{
			managers.GET("/pending-documents", hm.managerHandler.PendingDocuments)
			managers.GET("/pending-documents/export", hm.managerHandler.ExportPendingDocuments)
			managers.GET("/pending-enrollments", hm.managerHandler.PendingEnrollments)
			managers.GET("/schools/:school_id/documents", hm.documentHandler.ListSchoolDocuments)
		}

		manager := secured.Group("/manager")
		manager.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleManager))
		{
			manager.GET("/school", hm.schoolHandler.ListOwnedSchools)
			manager.GET("/enrollments", hm.enrollmentHandler.ListSchoolEnrollments)
			manager.GET("/enrollments/:id/documents", hm.documentHandler.ListEnrollmentDocuments)
			manager.POST("/enrollments/:id/accept", hm.enrollmentHandler.AcceptEnrollment)
			manager.POST("/enrollments/:id/refuse", hm.enrollmentHandler.RefuseEnrollment)
			manager.POST("/enrollments/:id/complete", hm.enrollmentHandler.CompleteEnrollment)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	body := gin.H{"service": "enrollment-service", "status": "healthy"}
	if reporter, ok := hm.repo.(cacheStatsReporter); ok {
		body["cache"] = reporter.CacheStats(ctx)
	}

	if err := hm.services.HealthCheck(ctx); err != nil {
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
