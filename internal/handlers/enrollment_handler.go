package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// reasonRequest is the body of refusal endpoints, as JSON or form.
type reasonRequest struct {
	Reason string `json:"reason" form:"reason"`
}

// ===== STUDENT ENDPOINTS =====

// Enroll starts an enrollment in a school
// @Summary Enroll
// @Tags enrollments
// @Accept json
// @Produce json
// @Failure 409 {object} ErrorResponse "Active enrollment already exists"
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	h.LogRequest(c, "Creating enrollment")

	var req services.EnrollRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid enrollment request", err)
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enrollment_id": enrollment.ID,
		"status":        enrollment.Status,
		"enrollment":    enrollment,
	})
}

// ListMyEnrollments
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListMyEnrollments(c *gin.Context) {
	enrollments, err := h.service.ListForStudent(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

// ===== MANAGER ENDPOINTS =====

// ListSchoolEnrollments returns every enrollment of the caller's schools
// @Router /manager/enrollments [get]
func (h *EnrollmentHandler) ListSchoolEnrollments(c *gin.Context) {
	enrollments, err := h.service.ListForManager(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

// AcceptEnrollment approves an enrollment awaiting approval
// @Summary Approve enrollment
// @Tags managers
// @Produce json
// @Param id path string true "Enrollment ID"
// @Failure 409 {object} ErrorResponse "Not awaiting approval"
// @Router /manager/enrollments/{id}/accept [post]
func (h *EnrollmentHandler) AcceptEnrollment(c *gin.Context) {
	h.LogRequest(c, "Approving enrollment", "enrollment_id", c.Param("id"))
	h.respond(c)(h.service.Accept(c.Request.Context(), c.GetString("user_id"), c.Param("id")))
}

// RefuseEnrollment rejects an enrollment awaiting approval
// @Summary Refuse enrollment
// @Tags managers
// @Param id path string true "Enrollment ID"
// @Failure 400 {object} ErrorResponse "Missing reason"
// @Router /manager/enrollments/{id}/refuse [post]
func (h *EnrollmentHandler) RefuseEnrollment(c *gin.Context) {
	h.LogRequest(c, "Refusing enrollment", "enrollment_id", c.Param("id"))

	var req reasonRequest
	_ = c.ShouldBind(&req)
	h.respond(c)(h.service.Reject(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.Reason))
}

// CompleteEnrollment marks the course of an approved enrollment as finished
// @Router /manager/enrollments/{id}/complete [post]
func (h *EnrollmentHandler) CompleteEnrollment(c *gin.Context) {
	h.LogRequest(c, "Completing enrollment", "enrollment_id", c.Param("id"))
	h.respond(c)(h.service.Complete(c.Request.Context(), c.GetString("user_id"), c.Param("id")))
}

func (h *EnrollmentHandler) respond(c *gin.Context) func(*models.Enrollment, error) {
	return func(enrollment *models.Enrollment, err error) {
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"enrollment_id":     enrollment.ID,
			"enrollment_status": enrollment.Status,
			"enrollment":        enrollment,
		})
	}
}
