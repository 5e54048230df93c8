package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iakadir/go-iakadir/internal/auth"
	"github.com/iakadir/go-iakadir/internal/middleware"
	"github.com/iakadir/go-iakadir/internal/ratelimit"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

func newTestProxy(t *testing.T, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := ai.DefaultConfig()
	cfg.APIKey = "sk-upstream"
	cfg.BaseURL = up.URL
	cfg.Timeout = 5 * time.Second

	limiter := ratelimit.NewLimiter(&ratelimit.Config{Window: time.Minute, MaxRequests: 100})
	t.Cleanup(limiter.Close)

	srv := httptest.NewServer(newRouter(routerDeps{
		provider:    ai.NewOpenAIProvider(cfg, &services.NoOpLogger{}),
		logger:      &services.NoOpLogger{},
		limiter:     limiter,
		credentials: middleware.CredentialConfig{AnonKey: "anon", JWTSecret: []byte("secret")},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, bearer, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", "anon")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestProxyEndToEnd(t *testing.T) {
	srv := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-upstream", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"Bonjour"}]}]}`))
	})

	token, err := auth.GenerateSessionToken("user-1", []byte("secret"), time.Hour)
	require.NoError(t, err)

	resp, body := post(t, srv.URL+"/", token, `{"input":[{"role":"user","content":"Salut"}]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"text":"Bonjour"}`, body)
	assert.Equal(t, "100", resp.Header.Get("X-RateLimit-Limit"))

	resp, body = post(t, srv.URL+"/", "anon", `{"task":"image","prompt":"cat"}`)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.JSONEq(t, `{"error":{"code":"insufficient_quota","message":"insufficient_quota"}}`, body)
}

func TestProxyPassesUpstreamQuotaThrough(t *testing.T) {
	upstreamBody := `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`
	srv := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(upstreamBody))
	})

	resp, body := post(t, srv.URL+"/", "", `{"task":"chat","input":[]}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, upstreamBody, body)
}

func TestProxyRequiresAPIKeyHeader(t *testing.T) {
	srv := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouterPublicRoutes(t *testing.T) {
	srv := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"list","data":[]}`))
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not found"}`, string(data))
}
