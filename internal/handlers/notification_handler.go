package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListNotifications returns the caller's inbox, newest first
// @Summary List notifications
// @Tags notifications
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} services.NotificationList
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	list, err := h.service.List(c.Request.Context(), c.GetString("user_id"), unreadOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead
// @Param id path string true "Notification ID"
// @Failure 404 {object} ErrorResponse "Unknown notification"
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
}
