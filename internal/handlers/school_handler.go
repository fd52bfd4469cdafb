package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

type SchoolHandler struct {
	BaseHandler
	service services.SchoolService
}

func NewSchoolHandler(service services.SchoolService, logger utils.Logger) *SchoolHandler {
	return &SchoolHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterSchool creates a driving school owned by the caller
// @Summary Register driving school
// @Description Registers a school and promotes the caller to manager
// @Tags schools
// @Accept json
// @Produce json
// @Success 201 {object} services.SchoolRegistration
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /driving-schools [post]
func (h *SchoolHandler) RegisterSchool(c *gin.Context) {
	h.LogRequest(c, "Registering driving school")

	var req services.RegisterSchoolRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid school request", err)
		return
	}

	reg, err := h.service.Register(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// ListOwnedSchools returns the schools the caller manages
// @Summary Manager schools
// @Tags managers
// @Produce json
// @Router /manager/school [get]
func (h *SchoolHandler) ListOwnedSchools(c *gin.Context) {
	schools, err := h.service.ListOwned(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schools": schools})
}
