package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetDashboard returns the caller with every enrollment and its missing documents
// @Summary Get dashboard
// @Description Current user, enrollments, completion and missing document types
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Inconsistent enrollment"
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard")

	dashboard, err := h.service.Get(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
