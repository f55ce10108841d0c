package client

import (
	"time"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/study"
)

const (
	defaultEndpoint = "http://localhost:8080"
	defaultTimeout  = 2 * time.Minute

	readBufferSize   = 4 * 1024
	maxErrorBodySize = 8 * 1024

	// gateway error code for the upstream's billing failure
	codePaymentRequired = "payment_required"
)

// progress of a single study request
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSending
	StateRateLimited
	StateQuotaExceeded
	StateUpstreamFailed
	StateStreaming
	StateQuizReceived
	StateCancelled
	StateCompleted
	StateStreamError
)

var stateNames = map[State]string{
	StateIdle:           "idle",
	StateValidating:     "validating",
	StateSending:        "sending",
	StateRateLimited:    "rate_limited",
	StateQuotaExceeded:  "quota_exceeded",
	StateUpstreamFailed: "upstream_failed",
	StateStreaming:      "streaming",
	StateQuizReceived:   "quiz_received",
	StateCancelled:      "cancelled",
	StateCompleted:      "completed",
	StateStreamError:    "stream_error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// true for states that end a request cycle successfully
func (s State) Succeeded() bool {
	return s == StateCompleted || s == StateQuizReceived
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// user-visible message produced by a request cycle
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
}

// caller identity and the last known account state; passed explicitly to
// every call and not safe for concurrent requests
type Session struct {
	Token   string
	Account *accounts.Snapshot
}

// receives progress while a request runs; calls happen on the requesting goroutine
type Observer interface {
	OnState(State)
	OnDelta(fragment string)
}

// adapts plain functions to Observer; nil fields are skipped
type ObserverFuncs struct {
	State func(State)
	Delta func(string)
}

func (o ObserverFuncs) OnState(s State) {
	if o.State != nil {
		o.State(s)
	}
}

func (o ObserverFuncs) OnDelta(fragment string) {
	if o.Delta != nil {
		o.Delta(fragment)
	}
}

// outcome of one request cycle; Text holds whatever streamed before the end,
// including after cancellation or a stream error
type Result struct {
	State  State
	Mode   study.Mode
	Text   string
	Quiz   *study.Quiz
	Notice *Notice
	Err    error
}

type studyRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// JSON body of a non-streamed response, success or failure
type jsonResponse struct {
	Type  string      `json:"type"`
	Data  *study.Quiz `json:"data"`
	Error string      `json:"error"`
	Code  string      `json:"code"`
}
