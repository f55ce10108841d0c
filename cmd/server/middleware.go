package main

import (
	"fmt"
	"net/http"
	"time"

	"codeberg.org/studyai/server/internal/errors"
	"codeberg.org/studyai/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "GET, POST, OPTIONS"

	requestIDHeader = "X-Request-ID"
	limiterPrefix   = "studyai:limiter"
)

// answers preflight requests and adds CORS headers to every response
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// turns a handler panic into the standard JSON 500
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		errors.InternalError(c, "", fmt.Errorf("panic: %v", recovered))
	})
}

// tags the request with an id and a logger carrying it
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		ctx := logger.WithContext(c.Request.Context(), logger.With("request_id", requestID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// logs one line per request once the handler is done
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
			"user_id", c.GetString("user_id"),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Warn("request failed", args...)
		case c.Request.Method == http.MethodOptions:
			logger.Debug("preflight", args...)
		default:
			logger.Info("request", args...)
		}
	}
}

// limits requests per caller; shared through redis when a client is given
func RateLimitMiddleware(formatted string, client *redis.Client) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", formatted, err)
	}

	store := memory.NewStore()
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   limiterPrefix,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	}

	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithKeyGetter(rateLimitKey),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn("rate limit exceeded", "key", rateLimitKey(c))

			c.Header("Retry-After", "60")
			errors.TooManyRequests(c, "Rate limit exceeded. Please try again in a moment.")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			errors.InternalError(c, "failed to check rate limit", err)
		}),
	), nil
}

// authenticated callers are limited per user, everyone else per IP
func rateLimitKey(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}

	return "ip:" + c.ClientIP()
}
