package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

type recorder struct {
	states    []State
	fragments []string
	onDelta   func(n int)
}

func (r *recorder) OnState(s State) {
	r.states = append(r.states, s)
}

func (r *recorder) OnDelta(fragment string) {
	r.fragments = append(r.fragments, fragment)
	if r.onDelta != nil {
		r.onDelta(len(r.fragments))
	}
}

// gateway double: study requests go to handler, account requests get a fixed snapshot
func newGateway(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var studyCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/api/v1/account":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(accounts.Snapshot{ //nolint:errcheck,gosec // test fixture
				UserID:     "u1",
				DailyUses:  5,
				DailyLimit: 15,
				Remaining:  10,
			})
		case "/api/v1/study":
			studyCalls.Add(1)
			handler(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &studyCalls
}

func streamHandler(body ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range body {
			w.Write([]byte(part)) //nolint:errcheck,gosec // test fixture
			w.(http.Flusher).Flush()
		}
	}
}

func TestStudy_EmptyInputIsRejectedLocally(t *testing.T) {
	srv, calls := newGateway(t, streamHandler())
	c := New(srv.URL, time.Second)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeExplain, "   ", nil)

	assert.Equal(t, StateIdle, result.State)
	require.NotNil(t, result.Notice)
	assert.Equal(t, "Please enter something to study", result.Notice.Message)
	assert.ErrorIs(t, result.Err, ErrEmptyInput)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStudy_CachedQuotaIsCheckedLocally(t *testing.T) {
	srv, calls := newGateway(t, streamHandler())
	c := New(srv.URL, time.Second)

	today := time.Now().UTC().Format(accounts.DateLayout)
	sess := &Session{Token: "tok", Account: &accounts.Snapshot{DailyUses: 15, DailyLimit: 15, Remaining: 0, LastUsageDate: today}}
	result := c.Study(context.Background(), sess, study.ModeExplain, "cells", nil)

	assert.Equal(t, StateQuotaExceeded, result.State)
	assert.Equal(t, "Daily limit reached", result.Notice.Title)
	assert.Equal(t, int32(0), calls.Load())

	// premium snapshots never block
	sess.Account = &accounts.Snapshot{IsPremium: true, Remaining: -1}
	result = c.Study(context.Background(), sess, study.ModeExplain, "cells", nil)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStudy_SpentSnapshotFromYesterdayDoesNotBlock(t *testing.T) {
	srv, calls := newGateway(t, streamHandler(frame("ok"), "data: [DONE]\n\n"))
	c := New(srv.URL, time.Second)

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(accounts.DateLayout)
	sess := &Session{Token: "tok", Account: &accounts.Snapshot{
		DailyUses:     15,
		DailyLimit:    15,
		Remaining:     0,
		LastUsageDate: yesterday,
	}}

	result := c.Study(context.Background(), sess, study.ModeExplain, "cells", nil)

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "ok", result.Text)
	assert.Nil(t, result.Notice)
	assert.Equal(t, int32(1), calls.Load())

	require.NotNil(t, sess.Account)
	assert.Equal(t, 10, sess.Account.Remaining, "snapshot refreshed from the gateway")
}

func TestStudy_StreamAccumulatesInOrder(t *testing.T) {
	srv, _ := newGateway(t, streamHandler(
		": keepalive\n\n",
		frame("Photo"),
		frame("synthesis"),
		"data: [DONE]\n\n",
		frame("ignored"),
	))
	c := New(srv.URL, time.Second)
	sess := &Session{Token: "tok"}
	rec := &recorder{}

	result := c.Study(context.Background(), sess, study.ModeExplain, "Photosynthesis", rec)

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "Photosynthesis", result.Text)
	assert.Nil(t, result.Notice)
	assert.NoError(t, result.Err)
	assert.Equal(t, []string{"Photo", "synthesis"}, rec.fragments)
	assert.Equal(t, []State{StateValidating, StateSending, StateStreaming, StateCompleted}, rec.states)

	require.NotNil(t, sess.Account, "snapshot refreshed after the stream")
	assert.Equal(t, 10, sess.Account.Remaining)
}

func TestStudy_FrameSplitAcrossReads(t *testing.T) {
	srv, _ := newGateway(t, streamHandler(
		`data: {"choices":[{"delta":`,
		`{"content":"Hello"}}]}`+"\n",
		"data: [DONE]\n",
	))
	c := New(srv.URL, time.Second)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeSummarize, "notes", nil)

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "Hello", result.Text)
}

func TestStudy_StreamWithoutSentinelIsFlushed(t *testing.T) {
	srv, _ := newGateway(t, streamHandler(frame("a"), `data: {"choices":[{"delta":{"content":"b"}}]}`))
	c := New(srv.URL, time.Second)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeFlashcards, "cards", nil)

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "ab", result.Text)
}

func TestStudy_Quiz(t *testing.T) {
	quiz := study.Quiz{Title: "World War II"}
	for i := 0; i < study.QuizQuestionCount; i++ {
		quiz.Questions = append(quiz.Questions, study.Question{
			Question:      "When did it start?",
			Options:       study.Options{A: "1939", B: "1914", C: "1941", D: "1945"},
			CorrectAnswer: "A",
			Explanation:   "September 1939",
		})
	}

	srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req studyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "quiz", req.Mode)
		assert.Equal(t, "World War II", req.Message)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(map[string]any{"type": "quiz", "data": quiz}) //nolint:errcheck,gosec // test fixture
	})
	c := New(srv.URL, time.Second)
	sess := &Session{Token: "tok"}

	result := c.Study(context.Background(), sess, study.ModeQuiz, "World War II", nil)

	assert.Equal(t, StateQuizReceived, result.State)
	require.NotNil(t, result.Quiz)
	assert.Len(t, result.Quiz.Questions, study.QuizQuestionCount)
	for _, q := range result.Quiz.Questions {
		assert.True(t, study.IsAnswerLabel(q.CorrectAnswer))
	}
	assert.Empty(t, result.Text)
	require.NotNil(t, sess.Account)
}

func TestStudy_JSONErrorField(t *testing.T) {
	srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"model unavailable"}`)) //nolint:errcheck,gosec // test fixture
	})
	c := New(srv.URL, time.Second)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeQuiz, "x", nil)

	assert.Equal(t, StateUpstreamFailed, result.State)
	assert.Equal(t, "model unavailable", result.Notice.Message)
}

func TestStudy_StatusCategories(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		state   State
		title   string
		message string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"Rate limit exceeded. Please try again in a moment."}`,
			StateRateLimited, "Slow down", "Rate limit exceeded. Please try again in a moment."},
		{"quota", http.StatusPaymentRequired, `{"error":"You've used all 15 free requests for today."}`,
			StateQuotaExceeded, "Daily limit reached", "You've used all 15 free requests for today."},
		{"quota with code", http.StatusPaymentRequired, `{"error":"You've used all 15 free requests for today.","code":"quota_exceeded"}`,
			StateQuotaExceeded, "Daily limit reached", "You've used all 15 free requests for today."},
		{"upstream billing", http.StatusPaymentRequired, `{"error":"AI service requires payment. Please add credits.","code":"payment_required"}`,
			StateUpstreamFailed, "AI service unavailable", "AI service requires payment. Please add credits."},
		{"quota without body", http.StatusPaymentRequired, ``,
			StateQuotaExceeded, "Daily limit reached", "Upgrade to Premium for unlimited access!"},
		{"server error", http.StatusInternalServerError, `{"error":"AI service error"}`,
			StateUpstreamFailed, "Error", "AI service error"},
		{"bad request without json", http.StatusBadRequest, `oops`,
			StateUpstreamFailed, "Error", "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck,gosec // test fixture
			})
			c := New(srv.URL, time.Second)

			result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeExplain, "x", nil)

			assert.Equal(t, tt.state, result.State)
			require.NotNil(t, result.Notice)
			assert.Equal(t, NoticeError, result.Notice.Level)
			assert.Equal(t, tt.title, result.Notice.Title)
			assert.Equal(t, tt.message, result.Notice.Message)
			assert.Error(t, result.Err)
		})
	}
}

func TestStudy_CancelKeepsPartialText(t *testing.T) {
	srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(frame("Hello, ") + frame("world"))) //nolint:errcheck,gosec // test fixture
		w.(http.Flusher).Flush()

		<-r.Context().Done()
		w.Write([]byte(frame("never"))) //nolint:errcheck,gosec // client is gone
	})
	c := New(srv.URL, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{onDelta: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	result := c.Study(ctx, &Session{Token: "tok"}, study.ModeExplain, "greeting", rec)

	assert.Equal(t, StateCancelled, result.State)
	assert.Equal(t, "Hello, world", result.Text)
	assert.Equal(t, []string{"Hello, ", "world"}, rec.fragments)
	require.NotNil(t, result.Notice)
	assert.Equal(t, NoticeInfo, result.Notice.Level)
	assert.Equal(t, "Stopped", result.Notice.Title)
}

func TestStudy_ConnectionDroppedMidStream(t *testing.T) {
	srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(frame("partial"))) //nolint:errcheck,gosec // test fixture
		w.(http.Flusher).Flush()

		panic(http.ErrAbortHandler)
	})
	c := New(srv.URL, 5*time.Second)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeExplain, "x", nil)

	assert.Equal(t, StateStreamError, result.State)
	assert.Equal(t, "partial", result.Text)
	assert.Equal(t, "Connection lost", result.Notice.Title)
}

func TestStudy_Timeout(t *testing.T) {
	srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	c := New(srv.URL, 50*time.Millisecond)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeExplain, "x", nil)

	assert.Equal(t, StateUpstreamFailed, result.State)
	assert.Equal(t, "Timed out", result.Notice.Title)
}

func TestStudy_SendsBearerAndBody(t *testing.T) {
	srv, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))

		var req studyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "summarize", req.Mode)
		assert.Equal(t, "my notes", req.Message)

		streamHandler("data: [DONE]\n")(w, r)
	})
	c := New(srv.URL+"/", time.Second)

	result := c.Study(context.Background(), &Session{Token: "tok"}, study.ModeSummarize, "my notes", nil)
	assert.Equal(t, StateCompleted, result.State)
	assert.Empty(t, result.Text)
}

func TestAccount(t *testing.T) {
	srv, _ := newGateway(t, streamHandler())
	c := New(srv.URL, time.Second)
	sess := &Session{Token: "tok"}

	snap, err := c.Account(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Remaining)
	assert.Same(t, snap, sess.Account)

	_, err = c.Account(context.Background(), &Session{Token: "wrong"})
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateQuizReceived.Succeeded())
	assert.False(t, StateCancelled.Succeeded())
}
