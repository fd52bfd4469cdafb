package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

type DocumentHandler struct {
	BaseHandler
	service services.DocumentService
}

func NewDocumentHandler(service services.DocumentService, logger utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== STUDENT ENDPOINTS =====

// UploadDocument stores a supporting document for an enrollment
// @Summary Upload document
// @Description Multipart upload of one required document. The enrollment defaults to the caller's open one.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param document_type formData string true "profile_photo | id_card | medical_certificate | residence_certificate"
// @Param enrollment_id formData string false "Enrollment ID"
// @Param file formData file true "Document file"
// @Failure 400 {object} ErrorResponse "Invalid document"
// @Failure 409 {object} ErrorResponse "Enrollment does not accept uploads"
// @Router /documents/upload [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	h.LogRequest(c, "Uploading document")

	var req services.SubmitDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid document request", err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "A document file is required", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		h.badRequest(c, "Unreadable document file", err)
		return
	}
	defer file.Close()

	doc, err := h.service.Submit(c.Request.Context(), c.GetString("user_id"), &req, *fileUpload(header, file))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// ListMyDocuments
// @Router /documents [get]
func (h *DocumentHandler) ListMyDocuments(c *gin.Context) {
	docs, err := h.service.ListForStudent(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ===== MANAGER ENDPOINTS =====

// AcceptDocument
// @Summary Accept document
// @Tags documents
// @Param id path string true "Document ID"
// @Failure 409 {object} ErrorResponse "Document already decided"
// @Router /documents/accept/{id} [post]
func (h *DocumentHandler) AcceptDocument(c *gin.Context) {
	h.LogRequest(c, "Accepting document", "document_id", c.Param("id"))
	h.decide(c, models.DecisionAccept, "")
}

// RefuseDocument
// @Summary Refuse document
// @Tags documents
// @Param id path string true "Document ID"
// @Failure 400 {object} ErrorResponse "Missing reason"
// @Router /documents/refuse/{id} [post]
func (h *DocumentHandler) RefuseDocument(c *gin.Context) {
	h.LogRequest(c, "Refusing document", "document_id", c.Param("id"))

	var req reasonRequest
	_ = c.ShouldBind(&req)
	h.decide(c, models.DecisionRefuse, req.Reason)
}

func (h *DocumentHandler) decide(c *gin.Context, decision models.DocumentDecision, reason string) {
	result, err := h.service.Decide(c.Request.Context(), c.GetString("user_id"), c.Param("id"), decision, reason)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document":           result.Document,
		"documents_complete": result.DocumentsComplete,
		"enrollment_status":  result.Enrollment.Status,
	})
}

// ListSchoolDocuments returns the ledger of one school, optionally by status
// @Param school_id path string true "School ID"
// @Param status query string false "pending | accepted | refused"
// @Router /managers/schools/{school_id}/documents [get]
func (h *DocumentHandler) ListSchoolDocuments(c *gin.Context) {
	status, err := documentStatusQuery(c)
	if err != nil {
		h.badRequest(c, "Invalid status filter", err)
		return
	}

	docs, err := h.service.ListForManager(c.Request.Context(), c.GetString("user_id"), c.Param("school_id"), status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ListEnrollmentDocuments
// @Router /manager/enrollments/{id}/documents [get]
func (h *DocumentHandler) ListEnrollmentDocuments(c *gin.Context) {
	docs, err := h.service.ListForEnrollment(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

var errUnknownStatus = errors.New("unknown status")

func documentStatusQuery(c *gin.Context) (*models.DocumentStatus, error) {
	raw, ok := c.GetQuery("status")
	if !ok || raw == "" {
		return nil, nil
	}
	status := models.DocumentStatus(raw)
	switch status {
	case models.DocumentPending, models.DocumentAccepted, models.DocumentRefused:
		return &status, nil
	}
	return nil, errUnknownStatus
}
