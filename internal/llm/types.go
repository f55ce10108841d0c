package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// upstream answered 429
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// upstream answered 402, its own billing problem
	ErrPaymentRequired = errors.New("upstream payment required")

	// any other upstream or transport failure
	ErrUpstream = errors.New("upstream request failed")

	// structured request answered without invoking the tool
	ErrNoToolCall = errors.New("upstream did not call the tool")
)

// non-success upstream status other than 429 and 402
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

// talks to an OpenAI-compatible chat completions endpoint
type Completer interface {
	// streams the completion; the caller owns and must close the body
	StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error)

	// forces a single tool call and returns its raw arguments
	CallTool(ctx context.Context, req ChatRequest) (json.RawMessage, error)
}

// one system + user exchange
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Tool         *Tool // required for CallTool
}

// function definition offered to the model
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// holds configuration for the upstream client
type Config struct {
	APIKey  string
	BaseURL string // e.g., "https://ai.gateway.lovable.dev/v1"

	// bounds a structured call end to end and a stream until response headers
	Timeout time.Duration

	// bounds a whole stream including relay
	StreamTimeout time.Duration

	// outbound pacing shared by all calls
	RequestsPerSecond float64
	Burst             int
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model      string     `json:"model"`
	Messages   []message  `json:"messages"`
	MaxTokens  int        `json:"max_tokens,omitempty"`
	Stream     bool       `json:"stream,omitempty"`
	Tools      []toolSpec `json:"tools,omitempty"`
	ToolChoice any        `json:"tool_choice,omitempty"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type toolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}
