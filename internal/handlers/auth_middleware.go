package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoecole/enrollment-service/internal/auth"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

// JWTAuthMiddleware authenticates bearer tokens. Tokens identify the user
// only; the role is re-read on every request so a promotion takes effect
// without a new token.
type JWTAuthMiddleware struct {
	tokens   *auth.TokenService
	userRepo repositories.UserRepository
}

func NewJWTAuthMiddleware(tokens *auth.TokenService, userRepo repositories.UserRepository) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{tokens: tokens, userRepo: userRepo}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
}

// AuthMiddleware returns a Gin middleware function for JWT authentication
func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(tokenParts[1])
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "token expired"
			}
			unauthorized(c, message)
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				unauthorized(c, "user no longer exists")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "INTERNAL_ERROR",
				"message": "failed to load user",
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role. Admins pass every
// role check.
func (m *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "user role not found in context",
			})
			return
		}

		role, _ := userRole.(models.UserRole)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "insufficient role",
		})
	}
}
