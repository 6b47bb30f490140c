package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(requests int) *IPRateLimiter {
	rl := NewIPRateLimiter(requests, time.Minute, CleanupOpts{
		TTL:      time.Minute,
		Interval: time.Minute,
	})
	return rl
}

func TestAllowWithinBurst(t *testing.T) {
	rl := newTestLimiter(3)
	defer rl.Cancel()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// A different address has its own bucket.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	rl := newTestLimiter(1)
	defer rl.Cancel()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	rl := newTestLimiter(1)
	defer rl.Cancel()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.2")

	assert.Equal(t, ipAddr("198.51.100.2"), rl.GetClientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, ipAddr("10.0.0.1"), rl.GetClientIP(req))
}
