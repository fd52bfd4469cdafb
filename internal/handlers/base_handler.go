package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// log returns the request-scoped logger when one is attached.
func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.LoggerFromContext(c.Request.Context(), h.logger)
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, fields ...interface{}) {
	fields = append(fields, "method", c.Request.Method, "path", c.Request.URL.Path)
	if userID := c.GetString("user_id"); userID != "" {
		fields = append(fields, "user_id", userID)
	}
	h.log(c).Info(message, fields...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, fields ...interface{}) {
	fields = append(fields, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	h.log(c).Error(message, fields...)
}

// currentUser returns the authenticated user set by the auth middleware.
func currentUser(c *gin.Context) *models.User {
	if user, ok := c.Get("user"); ok {
		if u, ok := user.(*models.User); ok {
			return u
		}
	}
	return nil
}

func (h *BaseHandler) badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: "VALIDATION_FAILED", Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:            http.StatusNotFound,
	services.KindUnauthorized:        http.StatusForbidden,
	services.KindUnauthenticated:     http.StatusUnauthorized,
	services.KindInvalidState:        http.StatusConflict,
	services.KindInconsistentState:   http.StatusInternalServerError,
	services.KindDuplicateEnrollment: http.StatusConflict,
	services.KindMissingReason:       http.StatusBadRequest,
	services.KindValidation:          http.StatusBadRequest,
	services.KindInternal:            http.StatusInternalServerError,
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status, ok := kindStatus[svcErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			h.LogError(c, err, "Request failed on inconsistent state")
		}
		c.JSON(status, ErrorResponse{
			Error:   svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		})
		return
	}

	h.LogError(c, err, "Unhandled service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "internal server error",
	})
}
