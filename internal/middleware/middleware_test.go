package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iakadir/go-iakadir/internal/auth"
	"github.com/iakadir/go-iakadir/internal/ratelimit"
)

type recordingLogger struct {
	msgs []string
	kvs  [][]interface{}
}

func (l *recordingLogger) Info(msg string, keysAndValues ...interface{}) {
	l.msgs = append(l.msgs, msg)
	l.kvs = append(l.kvs, keysAndValues)
}

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _ := SubjectFromContext(r.Context())
		_, _ = w.Write([]byte("sub=" + sub))
	})
}

func TestCredentialMiddleware(t *testing.T) {
	secret := []byte("jwt-secret")
	token, err := auth.GenerateSessionToken("user-7", secret, time.Hour)
	require.NoError(t, err)

	h := NewCredentialMiddleware(CredentialConfig{AnonKey: "anon", JWTSecret: secret})(subjectEcho())

	tests := []struct {
		name       string
		apikey     string
		bearer     string
		wantStatus int
		wantBody   string
	}{
		{"missing apikey", "", "", http.StatusUnauthorized, `{"error":"missing apikey header"}` + "\n"},
		{"wrong apikey", "nope", "", http.StatusUnauthorized, `{"error":"invalid apikey"}` + "\n"},
		{"apikey only", "anon", "", http.StatusOK, "sub="},
		{"anon bearer", "anon", "anon", http.StatusOK, "sub="},
		{"session bearer", "anon", token, http.StatusOK, "sub=user-7"},
		{"bad session bearer", "anon", "garbage", http.StatusUnauthorized, `{"error":"invalid session token"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.apikey != "" {
				req.Header.Set("apikey", tt.apikey)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestCredentialMiddlewareMarksAnonymousCallers(t *testing.T) {
	secret := []byte("jwt-secret")
	token, err := auth.GenerateSessionToken("user-7", secret, time.Hour)
	require.NoError(t, err)

	var anonymous bool
	h := NewCredentialMiddleware(CredentialConfig{AnonKey: "anon", JWTSecret: secret})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			anonymous = IsAnonymous(r.Context())
		}))

	tests := []struct {
		name   string
		bearer string
		want   bool
	}{
		{"apikey only", "", true},
		{"anon bearer", "anon", true},
		{"session bearer", token, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anonymous = !tt.want
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("apikey", "anon")
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, anonymous)
		})
	}
}

func TestCredentialMiddlewareWithoutConfiguredKeys(t *testing.T) {
	h := NewCredentialMiddleware(CredentialConfig{})(subjectEcho())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("apikey", "whatever")
	req.Header.Set("Authorization", "Bearer some-session")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{Window: time.Minute, MaxRequests: 1})
	defer limiter.Close()
	h := RateLimitMiddleware(limiter)(subjectEcho())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.1.1.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRecoverPanic(t *testing.T) {
	h := RecoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "apikey")
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	logger := &recordingLogger{}
	h := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	require.Len(t, logger.msgs, 1)
	assert.Contains(t, logger.kvs[0], http.StatusTeapot)
}
