// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	Window        time.Duration // length of one counting window
	MaxRequests   int           // requests allowed per caller per window
	CleanupPeriod time.Duration // how often expired windows are dropped
}

// DefaultProxyConfig allows perMinute requests per caller per minute.
func DefaultProxyConfig(perMinute int) *Config {
	return &Config{
		Window:        time.Minute,
		MaxRequests:   perMinute,
		CleanupPeriod: 10 * time.Minute,
	}
}

type window struct {
	start time.Time
	count int
}

// Info describes the outcome of one Allow call.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter is a fixed-window in-memory limiter keyed by caller.
type Limiter struct {
	config  *Config
	windows map[string]*window
	mu      sync.Mutex
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewLimiter starts a limiter and its cleanup goroutine. Call Close to stop it.
func NewLimiter(config *Config) *Limiter {
	l := &Limiter{
		config:  config,
		windows: make(map[string]*window),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if config.CleanupPeriod > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow counts one request for key. A non-positive MaxRequests disables limiting.
func (l *Limiter) Allow(key string) Info {
	if l.config.MaxRequests <= 0 {
		return Info{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.config.Window {
		w = &window{start: now}
		l.windows[key] = w
	}

	reset := w.start.Add(l.config.Window)
	if w.count >= l.config.MaxRequests {
		return Info{
			Allowed:    false,
			Limit:      l.config.MaxRequests,
			Remaining:  0,
			ResetTime:  reset,
			RetryAfter: reset.Sub(now),
		}
	}

	w.count++
	return Info{
		Allowed:   true,
		Limit:     l.config.MaxRequests,
		Remaining: l.config.MaxRequests - w.count,
		ResetTime: reset,
	}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.config.Window {
			delete(l.windows, key)
		}
	}
}

// Close stops the cleanup goroutine
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// The first entry is the original client.
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
