package auth

import (
	"strings"

	"codeberg.org/studyai/server/internal/errors"
	"codeberg.org/studyai/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// validates bearer tokens and adds user info to context
func AuthMiddleware(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.Unauthorized(c, "authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			errors.Unauthorized(c, "invalid authorization header format")
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("token rejected", "error", err, "request_id", c.GetString("request_id"))
			errors.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set("user_id", identity.UserID)
		c.Set("user_email", identity.Email)

		c.Next()
	}
}

// extracts user_id from context after AuthMiddleware
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		return "", false
	}

	return userID, true
}
