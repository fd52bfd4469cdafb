package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service services.AuthService
}

func NewAuthHandler(service services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Register creates a guest account
// @Summary Register
// @Description Create an account from JSON or a multipart form with an optional profile_photo file
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Registering user")

	var req services.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid registration request", err)
		return
	}

	var photo *services.FileUpload
	if header, err := c.FormFile("profile_photo"); err == nil {
		file, err := header.Open()
		if err != nil {
			h.badRequest(c, "Unreadable profile photo", err)
			return
		}
		defer file.Close()
		photo = fileUpload(header, file)
	}

	resp, err := h.service.Register(c.Request.Context(), &req, photo)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Login exchanges credentials for an access token
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid login request", err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.CurrentUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func fileUpload(header *multipart.FileHeader, file multipart.File) *services.FileUpload {
	return &services.FileUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
}
