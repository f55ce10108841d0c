package errors

import (
	"errors"
	"net/http"

	"codeberg.org/studyai/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.Respond() for errors coming out of the gateway core, it maps
//     typed errors to their status and logs the server-side ones
//   - Use errors.InternalError(), errors.Unauthorized(), etc. for handler-local failures
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For services/stores/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond
//   - Do not log errors in non-handler code (avoid double logging)

// standard error codes
const (
	CodeUnauthorized    = "unauthorized"
	CodeNotFound        = "not_found"
	CodeServerError     = "server_error"
	CodeTooManyRequests = "too_many_requests"
	CodeQuotaExceeded   = "quota_exceeded"
	CodePaymentRequired = "payment_required"
	CodeUpstreamError   = "upstream_error"
)

// writes any error as the standard JSON shape
// errors implementing HTTPError keep their status and message; anything else is a 500
func Respond(c *gin.Context, err error) {
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		InternalError(c, "", err)
		return
	}

	status := httpErr.Status()
	if status >= http.StatusInternalServerError {
		logger.ErrorErr(err, httpErr.Message(),
			"category", classifyError(err).category,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"user_id", c.GetString("user_id"),
			"request_id", c.GetString("request_id"),
		)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: httpErr.Message(),
		Code:  httpErr.Code(),
	})
}

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error: message,
		Code:  CodeUnauthorized,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
		Error: message,
		Code:  CodeNotFound,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	info := classifyError(err)

	// log full error server-side with context
	logger.ErrorErr(err, message,
		"category", info.category,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"user_id", c.GetString("user_id"),
		"request_id", c.GetString("request_id"),
	)

	// return sanitized error to client
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   message,
		Code:    CodeServerError,
		Details: info.sanitized,
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
		Error: message,
		Code:  CodeTooManyRequests,
	})
}
