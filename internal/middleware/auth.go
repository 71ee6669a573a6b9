package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/handlers"
)

// AuthMiddleware authenticates callers via bearer JWT. The token's
// principal address becomes the caller identity every protocol entry
// point checks authorization against.
type AuthMiddleware struct {
	logger *logrus.Logger
}

// NewAuthMiddleware creates the JWT middleware.
func NewAuthMiddleware(logger *logrus.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthMiddleware{logger: logger}
}

// RequireAuth rejects requests without a valid bearer token and stores
// the caller principal in the context.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.reject(c, "MISSING_AUTH_HEADER", "Missing Authorization header. Please provide a valid JWT token.")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.reject(c, "INVALID_AUTH_FORMAT", "Authorization header must be in format: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			a.reject(c, "EMPTY_TOKEN", "Token cannot be empty")
			return
		}

		claims, err := handlers.ValidateJWTToken(tokenString)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			}).Warn("JWT validation failed")
			a.reject(c, "INVALID_TOKEN", "Token is invalid or expired")
			return
		}

		c.Set("principal", claims.Address)
		c.Next()
	}
}

func (a *AuthMiddleware) reject(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
	c.Abort()
}
