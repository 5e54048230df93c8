package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(max int) (*Limiter, *time.Time) {
	l := NewLimiter(&Config{Window: time.Minute, MaxRequests: max})
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterWindow(t *testing.T) {
	l, now := newTestLimiter(2)
	defer l.Close()

	first := l.Allow("ip-1")
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.True(t, l.Allow("ip-1").Allowed)

	blocked := l.Allow("ip-1")
	assert.False(t, blocked.Allowed)
	assert.Equal(t, time.Minute, blocked.RetryAfter)

	// Other callers are independent.
	assert.True(t, l.Allow("ip-2").Allowed)

	*now = now.Add(time.Minute)
	assert.True(t, l.Allow("ip-1").Allowed)
}

func TestLimiterDisabled(t *testing.T) {
	l, _ := newTestLimiter(0)
	defer l.Close()
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("x").Allowed)
	}
}

func TestCleanupDropsExpiredWindows(t *testing.T) {
	l, now := newTestLimiter(5)
	defer l.Close()
	l.Allow("a")
	*now = now.Add(2 * time.Minute)
	l.cleanup()
	assert.Empty(t, l.windows)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "192.168.1.9")
	assert.Equal(t, "192.168.1.9", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}
