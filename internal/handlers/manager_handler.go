package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ManagerHandler serves the review queue of a school manager.
type ManagerHandler struct {
	BaseHandler
	service services.ReviewService
}

func NewManagerHandler(service services.ReviewService, logger utils.Logger) *ManagerHandler {
	return &ManagerHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// PendingDocuments lists documents awaiting a decision, oldest first
// @Summary Pending documents
// @Tags managers
// @Produce json
// @Router /managers/pending-documents [get]
func (h *ManagerHandler) PendingDocuments(c *gin.Context) {
	docs, err := h.service.PendingDocuments(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_pending": len(docs),
		"documents":     docs,
	})
}

// ExportPendingDocuments
// @Summary Export pending documents
// @Tags managers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /managers/pending-documents/export [get]
func (h *ManagerHandler) ExportPendingDocuments(c *gin.Context) {
	h.LogRequest(c, "Exporting pending documents")

	data, err := h.service.ExportPendingDocuments(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	name := fmt.Sprintf("pending-documents-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// PendingEnrollments lists enrollments still under review
// @Param status query string false "pending_documents | pending_approval"
// @Router /managers/pending-enrollments [get]
func (h *ManagerHandler) PendingEnrollments(c *gin.Context) {
	var status *models.EnrollmentStatus
	if raw := c.Query("status"); raw != "" {
		s := models.EnrollmentStatus(raw)
		if s != models.EnrollmentPendingDocuments && s != models.EnrollmentPendingApproval {
			h.badRequest(c, "Invalid status filter", errUnknownStatus)
			return
		}
		status = &s
	}

	enrollments, err := h.service.PendingEnrollments(c.Request.Context(), c.GetString("user_id"), status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_pending": len(enrollments),
		"enrollments":   enrollments,
	})
}
