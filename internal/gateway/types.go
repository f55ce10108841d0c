package gateway

import (
	"fmt"
	"io"
	"net/http"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/study"
)

// failure classes surfaced to callers
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindQuotaExceeded
	KindRateLimited
	KindPaymentRequired
	KindUpstream
	KindInternal
)

const (
	msgMissingFields   = "Message and mode are required"
	msgRateLimited     = "Rate limit exceeded. Please try again in a moment."
	msgPaymentRequired = "AI service requires payment. Please add credits."
	msgUpstream        = "AI service error"
	msgAccountSetup    = "We couldn't set up your study account. Please sign out and sign back in."
	msgAccountLookup   = "We couldn't load your study account. Please try again."
)

// gateway failure with a user-facing message
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}

	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Message() string {
	return e.Msg
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindQuotaExceeded, KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) Code() string {
	switch e.Kind {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindRateLimited:
		return "rate_limited"
	case KindPaymentRequired:
		return "payment_required"
	case KindUpstream:
		return "upstream_error"
	default:
		return "server_error"
	}
}

// per-tier upstream parameters
type Settings struct {
	FreeModel        string
	PremiumModel     string
	FreeMaxTokens    int
	PremiumMaxTokens int
}

// body of a study request
type Request struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// outcome of a successful study request; exactly one of Quiz and Stream is set
type Result struct {
	Mode    study.Mode
	Account *accounts.Account
	Quiz    *study.Quiz
	Stream  io.ReadCloser
}
