package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/auth"
	"codeberg.org/studyai/server/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret"

const sseBody = "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\ndata: [DONE]\n\n"

func newTestServer(t *testing.T, rateLimit string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseBody)) //nolint:errcheck,gosec // test fixture
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Environment:     "test",
		UpstreamAPIKey:  "key",
		UpstreamBaseURL: upstream.URL,
		UpstreamTimeout: 5 * time.Second,
		StreamTimeout:   5 * time.Second,
		FreeModel:       "free",
		PremiumModel:    "premium",
		AuthMode:        config.AuthJWT,
		JWTSecret:       testSecret,
		AccountStore:    config.StoreMemory,
		DailyLimit:      2,
		RateLimit:       rateLimit,
		CheckoutURL:     "https://billing.example.com",
	}

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return srv
}

func token(t *testing.T, userID string) string {
	t.Helper()

	tok, err := auth.GenerateJWT(testSecret, userID, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return tok
}

func do(srv *Server, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, "100-M")

	w := do(srv, http.MethodOptions, "/api/v1/study", "", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "content-type")
}

func TestStudyFlow_ChargesUntilExhausted(t *testing.T) {
	srv := newTestServer(t, "100-M")
	bearer := token(t, "student-1")

	for i := 0; i < 2; i++ {
		w := do(srv, http.MethodPost, "/api/v1/study", bearer, `{"message":"Explain gravity","mode":"explain"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		assert.Equal(t, sseBody, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}

	w := do(srv, http.MethodPost, "/api/v1/study", bearer, `{"message":"Explain gravity","mode":"explain"}`)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(srv, http.MethodGet, "/api/v1/account", bearer, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"remaining":0`)
}

func TestStudyFlow_Unauthorized(t *testing.T) {
	srv := newTestServer(t, "100-M")

	w := do(srv, http.MethodPost, "/api/v1/study", "", `{"message":"hi","mode":"explain"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, "100-M")

	w := do(srv, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRateLimit_Memory(t *testing.T) {
	srv := newTestServer(t, "1-M")
	bearer := token(t, "student-2")

	w := do(srv, http.MethodPost, "/api/v1/study", bearer, `{"message":"hi","mode":"explain"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(srv, http.MethodPost, "/api/v1/study", bearer, `{"message":"hi","mode":"explain"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestRateLimit_Redis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck,gosec // test cleanup

	limit, err := RateLimitMiddleware("2-M", client)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/limited", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_InvalidFormat(t *testing.T) {
	_, err := RateLimitMiddleware("lots", nil)
	assert.Error(t, err)
}

func TestPanicReturnsJSON(t *testing.T) {
	srv := newTestServer(t, "100-M")
	srv.router.GET("/api/v1/explode", func(c *gin.Context) { panic("boom") })

	w := do(srv, http.MethodGet, "/api/v1/explode", "", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), `"error":"an error occurred"`)
	assert.Contains(t, w.Body.String(), `"code":"server_error"`)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer_InitFailureClosesRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Environment:     "test",
		UpstreamAPIKey:  "key",
		UpstreamBaseURL: "http://127.0.0.1:1",
		AuthMode:        config.AuthJWT,
		JWTSecret:       testSecret,
		AccountStore:    config.StoreMemory,
		RedisURL:        "redis://" + mr.Addr(),
		DailyLimit:      2,
		RateLimit:       "lots",
	}

	_, err := NewServer(cfg)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCloseStore_ClosesSharedRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	closeStore(accounts.NewMemoryStore(), client)

	assert.ErrorIs(t, client.Ping(context.Background()).Err(), redis.ErrClosed)
}
