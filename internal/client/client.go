package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/sse"
	"codeberg.org/studyai/server/internal/study"
)

var (
	ErrEmptyInput    = errors.New("empty study input")
	ErrQuotaExceeded = errors.New("daily limit reached")
	ErrUnexpected    = errors.New("unexpected response from gateway")
)

var (
	noticeEmptyInput  = Notice{Level: NoticeError, Title: "Error", Message: "Please enter something to study"}
	noticeQuota       = Notice{Level: NoticeError, Title: "Daily limit reached", Message: "Upgrade to Premium for unlimited access!"}
	noticeBilling     = Notice{Level: NoticeError, Title: "AI service unavailable", Message: "The AI service is temporarily unavailable. Please try again later."}
	noticeRateLimited = Notice{Level: NoticeError, Title: "Slow down", Message: "Too many requests right now. Please wait a moment and try again."}
	noticeFailed      = Notice{Level: NoticeError, Title: "Error", Message: "Something went wrong. Please try again."}
	noticeStreamError = Notice{Level: NoticeError, Title: "Connection lost", Message: "The answer stopped arriving. What you see so far is kept."}
	noticeTimeout     = Notice{Level: NoticeError, Title: "Timed out", Message: "The request took too long. Please try again."}
	noticeStopped     = Notice{Level: NoticeInfo, Title: "Stopped", Message: "Generation stopped."}
)

// talks to the study gateway
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// timeout bounds a whole request cycle including the streamed body
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// reads STUDYAI_API_ENDPOINT and STUDYAI_REQUEST_TIMEOUT
func NewFromEnv() *Client {
	timeout := defaultTimeout
	if raw := os.Getenv("STUDYAI_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	return New(os.Getenv("STUDYAI_API_ENDPOINT"), timeout)
}

// drives one study request to completion or cancellation
// cancelling ctx stops the request and keeps the text received so far
func (c *Client) Study(ctx context.Context, sess *Session, mode study.Mode, input string, obs Observer) *Result {
	if obs == nil {
		obs = ObserverFuncs{}
	}

	result := &Result{Mode: mode}
	set := func(s State) {
		result.State = s
		obs.OnState(s)
	}

	set(StateValidating)

	if strings.TrimSpace(input) == "" {
		return finish(result, obs, StateIdle, noticeEmptyInput, ErrEmptyInput)
	}

	if sess.Account != nil && sess.Account.Exhausted() {
		return finish(result, obs, StateQuotaExceeded, noticeQuota, ErrQuotaExceeded)
	}

	set(StateSending)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(reqCtx, sess, mode, input)
	if err != nil {
		return c.interrupted(ctx, result, obs, StateUpstreamFailed, noticeFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully handled below

	if resp.StatusCode != http.StatusOK {
		return c.failed(ctx, sess, result, obs, resp)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")) //nolint:errcheck // empty type falls through

	switch mediaType {
	case "text/event-stream":
		set(StateStreaming)
		return c.stream(ctx, reqCtx, sess, result, obs, resp.Body)

	case "application/json":
		return c.quiz(ctx, sess, result, obs, resp.Body)

	default:
		return finish(result, obs, StateUpstreamFailed, noticeFailed,
			fmt.Errorf("%w: content type %q", ErrUnexpected, mediaType))
	}
}

// fetches the caller's account snapshot and caches it on the session
func (c *Client) Account(ctx context.Context, sess *Session) (*accounts.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/account", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		message, _ := errorMessage(resp.Body)
		return nil, fmt.Errorf("account request failed with status %d: %s", resp.StatusCode, message)
	}

	var snapshot accounts.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}

	sess.Account = &snapshot
	return &snapshot, nil
}

func (c *Client) post(ctx context.Context, sess *Session, mode study.Mode, input string) (*http.Response, error) {
	payload, err := json.Marshal(studyRequest{Message: input, Mode: mode.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/v1/study", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream, application/json")
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// maps a non-success status to exactly one notice category
func (c *Client) failed(ctx context.Context, sess *Session, result *Result, obs Observer, resp *http.Response) *Result {
	message, code := errorMessage(resp.Body)
	err := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, message)

	var state State
	var notice Notice

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		state, notice = StateRateLimited, noticeRateLimited
	case http.StatusPaymentRequired:
		// the upstream's own billing failure; the user's allowance is untouched
		if code == codePaymentRequired {
			state, notice = StateUpstreamFailed, noticeBilling
			break
		}
		state, notice = StateQuotaExceeded, noticeQuota
		c.refresh(ctx, sess)
	default:
		state, notice = StateUpstreamFailed, noticeFailed
	}

	// the gateway's own wording wins when it sent one
	if message != "" {
		notice.Message = message
	}

	return finish(result, obs, state, notice, err)
}

func (c *Client) quiz(ctx context.Context, sess *Session, result *Result, obs Observer, body io.Reader) *Result {
	var resp jsonResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return finish(result, obs, StateUpstreamFailed, noticeFailed, fmt.Errorf("failed to parse response: %w", err))
	}

	if resp.Error != "" {
		notice := noticeFailed
		notice.Message = resp.Error
		return finish(result, obs, StateUpstreamFailed, notice, fmt.Errorf("gateway error: %s", resp.Error))
	}

	if resp.Type != "quiz" || resp.Data == nil {
		return finish(result, obs, StateUpstreamFailed, noticeFailed,
			fmt.Errorf("%w: json response of type %q", ErrUnexpected, resp.Type))
	}

	result.Quiz = resp.Data
	result.State = StateQuizReceived
	obs.OnState(StateQuizReceived)

	c.refresh(ctx, sess)
	return result
}

// accumulates streamed fragments in arrival order
func (c *Client) stream(ctx, reqCtx context.Context, sess *Session, result *Result, obs Observer, body io.Reader) *Result {
	decoder := sse.NewDecoder()
	var text strings.Builder

	appendFragments := func(fragments []string) bool {
		for _, fragment := range fragments {
			if reqCtx.Err() != nil {
				return false
			}

			text.WriteString(fragment)
			result.Text = text.String()
			obs.OnDelta(fragment)
		}

		return true
	}

	buf := make([]byte, readBufferSize)

	for {
		if reqCtx.Err() != nil {
			return c.interrupted(ctx, result, obs, StateStreamError, noticeStreamError, reqCtx.Err())
		}

		n, err := body.Read(buf)
		if n > 0 {
			fragments, done := decoder.Feed(buf[:n])
			if !appendFragments(fragments) {
				return c.interrupted(ctx, result, obs, StateStreamError, noticeStreamError, reqCtx.Err())
			}

			if done {
				break
			}
		}

		if errors.Is(err, io.EOF) {
			appendFragments(decoder.Flush())
			break
		}

		if err != nil {
			return c.interrupted(ctx, result, obs, StateStreamError, noticeStreamError, err)
		}
	}

	result.State = StateCompleted
	obs.OnState(StateCompleted)

	c.refresh(ctx, sess)
	return result
}

// classifies a failure that may have been caused by the caller cancelling
// or by the request deadline
func (c *Client) interrupted(ctx context.Context, result *Result, obs Observer, state State, notice Notice, err error) *Result {
	switch {
	case ctx.Err() != nil:
		return finish(result, obs, StateCancelled, noticeStopped, ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return finish(result, obs, state, noticeTimeout, err)
	default:
		return finish(result, obs, state, notice, err)
	}
}

// best-effort snapshot refresh; a stale snapshot only weakens the local quota check
func (c *Client) refresh(ctx context.Context, sess *Session) {
	if ctx.Err() != nil {
		return
	}

	c.Account(ctx, sess) //nolint:errcheck,gosec // best-effort
}

func finish(result *Result, obs Observer, state State, notice Notice, err error) *Result {
	result.State = state
	result.Notice = &notice
	result.Err = err
	obs.OnState(state)

	return result
}

// pulls the gateway's error text out of a failure body, if any
func errorMessage(body io.Reader) (message, code string) {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return "", ""
	}

	var resp jsonResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", ""
	}

	return resp.Error, resp.Code
}
