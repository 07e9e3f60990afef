package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saastools-backend/api/responses"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter { return &fakeLimiter{counts: map[string]int64{}} }

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func loginRequest(email, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = ip + ":5678"
	return req
}

func bodyPassthroughHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"password":"secret"`)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitPassesBodyThrough(t *testing.T) {
	policy := RateLimitPolicy{Name: "login", Window: time.Minute, PerIP: 2, PerEmail: 2}
	handler := RateLimit(policy, newFakeLimiter(), nil)(bodyPassthroughHandler(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("tester@example.com", "1.2.3.4"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitEmailLimitIgnoresCaseAndIP(t *testing.T) {
	limiter := newFakeLimiter()
	policy := RateLimitPolicy{Name: "login", Window: 15 * time.Minute, PerEmail: 2}
	handler := RateLimit(policy, limiter, nil)(bodyPassthroughHandler(t))

	emails := []string{"Blocked@example.com", "blocked@example.com", " BLOCKED@example.com"}
	for i, email := range emails {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(email, "10.0.0."+string(rune('1'+i))))
		if i < 2 {
			assert.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "900", rec.Header().Get("Retry-After"))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

		var body responses.ErrorEnvelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, string(pkgerrors.CodeRateLimit), body.Error.Code)
	}
	for scope := range limiter.counts {
		assert.NotContains(t, scope, "blocked@example.com")
	}
}

func TestRateLimitIPUsesForwardedHeader(t *testing.T) {
	limiter := newFakeLimiter()
	policy := RateLimitPolicy{Name: "register", Window: time.Hour, PerIP: 1}
	handler := RateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i, want := range []int{http.StatusCreated, http.StatusTooManyRequests} {
		req := loginRequest("user@example.com", "127.0.0.1")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "attempt %d", i)
	}
	assert.Contains(t, limiter.counts, "register:ip:203.0.113.9")
}

func TestRateLimitFailsClosed(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis down")
	policy := RateLimitPolicy{Name: "login", Window: time.Minute, PerIP: 5}
	called := false
	handler := RateLimit(policy, limiter, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "1.1.1.1"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, called)
}

func TestRateLimitDisabledPolicyIsPassthrough(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{Name: "login"}, newFakeLimiter(), nil)(bodyPassthroughHandler(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "1.1.1.1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
