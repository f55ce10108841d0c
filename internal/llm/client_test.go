package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Timeout: 2 * time.Second,
	})
}

func TestStreamChat_RelaysBody(t *testing.T) {
	const stream = "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n"

	var got chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, stream) //nolint:errcheck,gosec // test fixture
	})

	body, err := client.StreamChat(context.Background(), ChatRequest{
		Model:        "google/gemini-2.5-flash",
		SystemPrompt: "be brief",
		UserPrompt:   "Photosynthesis",
		MaxTokens:    256,
	})
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, stream, string(data))

	assert.True(t, got.Stream)
	assert.Equal(t, "google/gemini-2.5-flash", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Photosynthesis", got.Messages[1].Content)
}

func TestStreamChat_MapsStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"payment required", http.StatusPaymentRequired, ErrPaymentRequired},
		{"server error", http.StatusInternalServerError, ErrUpstream},
		{"bad request", http.StatusBadRequest, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := client.StreamChat(context.Background(), ChatRequest{UserPrompt: "x"})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestStreamChat_StatusErrorCarriesBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.StreamChat(context.Background(), ChatRequest{UserPrompt: "x"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "model overloaded")
}

func TestStreamChat_TransportFailure(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := client.StreamChat(context.Background(), ChatRequest{UserPrompt: "x"})
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestCallTool_ReturnsArguments(t *testing.T) {
	var got map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"tool_calls":[{"id":"call_1","type":"function","function":{"name":"create_quiz","arguments":"{\"title\":\"WWII\"}"}}]}}]}`) //nolint:errcheck,gosec // test fixture
	})

	args, err := client.CallTool(context.Background(), ChatRequest{
		UserPrompt: "World War II",
		Tool: &Tool{
			Name:       "create_quiz",
			Parameters: map[string]any{"type": "object"},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"WWII"}`, string(args))

	assert.NotContains(t, got, "stream")
	choice, ok := got["tool_choice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "function", choice["type"])
	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

func TestCallTool_NoToolCall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":"here is your quiz in prose"}}]}`) //nolint:errcheck,gosec // test fixture
	})

	_, err := client.CallTool(context.Background(), ChatRequest{
		UserPrompt: "x",
		Tool:       &Tool{Name: "create_quiz"},
	})
	assert.True(t, errors.Is(err, ErrNoToolCall))
}

func TestCallTool_RequiresTool(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.CallTool(context.Background(), ChatRequest{UserPrompt: "x"})
	assert.Error(t, err)
}

func TestCallTool_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	client.config.Timeout = 100 * time.Millisecond

	_, err := client.CallTool(context.Background(), ChatRequest{
		UserPrompt: "x",
		Tool:       &Tool{Name: "create_quiz"},
	})
	assert.True(t, errors.Is(err, ErrUpstream))
}
