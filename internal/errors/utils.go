package errors

import (
	"context"
	"errors"
	"os"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/llm"
	"codeberg.org/studyai/server/internal/study"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// error categories, logged with every internal error
const (
	CategoryStore    = "store"
	CategoryQuota    = "quota"
	CategoryUpstream = "upstream"
	CategoryPayload  = "payload"
	CategoryNotFound = "not_found"
	CategoryTimeout  = "timeout"
	CategoryCanceled = "canceled"
	CategoryUnknown  = "unknown"
)

// maps an error onto a category and the detail safe to return to the client
// outside production the detail is the raw error text
func classifyError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{category: CategoryUnknown}
	}

	info := ErrorInfo{category: CategoryUnknown, sanitized: "an error occurred"}

	var pgErr *pgconn.PgError
	var statusErr *llm.StatusError

	switch {
	case errors.Is(err, accounts.ErrNotFound), errors.Is(err, pgx.ErrNoRows), errors.Is(err, redis.Nil):
		info = ErrorInfo{category: CategoryNotFound, sanitized: "account not found"}
	case errors.Is(err, accounts.ErrQuotaExhausted):
		info = ErrorInfo{category: CategoryQuota, sanitized: "daily limit reached"}
	case errors.As(err, &pgErr):
		info = ErrorInfo{category: CategoryStore, sanitized: "database operation failed"}
	case errors.Is(err, study.ErrInvalidQuiz), errors.Is(err, llm.ErrNoToolCall):
		info = ErrorInfo{category: CategoryPayload, sanitized: "AI service returned an unusable answer"}
	case errors.As(err, &statusErr), errors.Is(err, llm.ErrUpstream),
		errors.Is(err, llm.ErrRateLimited), errors.Is(err, llm.ErrPaymentRequired):
		info = ErrorInfo{category: CategoryUpstream, sanitized: "AI service error"}
	case errors.Is(err, context.DeadlineExceeded):
		info = ErrorInfo{category: CategoryTimeout, sanitized: "request timed out"}
	case errors.Is(err, context.Canceled):
		info = ErrorInfo{category: CategoryCanceled, sanitized: "request canceled"}
	}

	if os.Getenv("ENVIRONMENT") != "production" {
		info.sanitized = err.Error()
	}

	return info
}
