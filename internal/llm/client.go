package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://ai.gateway.lovable.dev/v1"
	defaultTimeout       = 60 * time.Second
	defaultStreamTimeout = 5 * time.Minute
	maxErrorBodyBytes    = 2048
)

// client for an OpenAI-compatible chat completions API
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Completer = (*Client)(nil)

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	if config.StreamTimeout <= 0 {
		config.StreamTimeout = defaultStreamTimeout
	}

	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 50
	}

	if config.Burst <= 0 {
		config.Burst = 10
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	// no client-wide Timeout: it would cut off long streams mid-relay
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: config.Timeout,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	body := chatRequest{
		Model:     req.Model,
		Messages:  buildMessages(req),
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.StreamTimeout)

	resp, err := c.do(ctx, body)
	if err != nil {
		cancel()
		return nil, err
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (c *Client) CallTool(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	if req.Tool == nil {
		return nil, fmt.Errorf("tool definition is required")
	}

	choice := toolChoice{Type: "function"}
	choice.Function.Name = req.Tool.Name

	body := chatRequest{
		Model:     req.Model,
		Messages:  buildMessages(req),
		MaxTokens: req.MaxTokens,
		Tools: []toolSpec{{
			Type: "function",
			Function: functionSpec{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Parameters,
			},
		}},
		ToolChoice: choice,
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close() //nolint:errcheck

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, ErrNoToolCall
	}

	for _, call := range chatResp.Choices[0].Message.ToolCalls {
		if call.Function.Name == req.Tool.Name && call.Function.Arguments != "" {
			return json.RawMessage(call.Function.Arguments), nil
		}
	}

	return nil, ErrNoToolCall
}

// sends the request and maps non-success statuses to the error vocabulary
// on success the caller owns resp.Body
func (c *Client) do(ctx context.Context, body chatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	// rate limiting
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close() //nolint:errcheck

	errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck

	return nil, mapStatus(resp.StatusCode, string(errBody))
}

func mapStatus(status int, body string) error {
	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	default:
		return &StatusError{StatusCode: status, Body: body}
	}
}

func buildMessages(req ChatRequest) []message {
	messages := make([]message, 0, 2)

	if req.SystemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: req.SystemPrompt})
	}

	return append(messages, message{Role: "user", Content: req.UserPrompt})
}

// releases the per-stream context once the body is closed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}
