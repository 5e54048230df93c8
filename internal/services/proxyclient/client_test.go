package proxyclient

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

	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

type capturedRequest struct {
	apikey        string
	authorization string
	body          map[string]any
}

func newProxyServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.apikey = r.Header.Get("apikey")
		captured.authorization = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestClient(url string, tokens TokenSource) *Client {
	return NewClient(Config{URL: url, AnonKey: "anon-key"}, tokens, &services.NoOpLogger{})
}

func TestGenerateTextUsesAnonKeyWithoutSession(t *testing.T) {
	srv, captured := newProxyServer(t, http.StatusOK, `{"text":"pong"}`)
	client := newTestClient(srv.URL, nil)

	text, err := client.GenerateText(context.Background(), []ai.InputMessage{{Role: "user", Content: "ping"}}, nil, "gpt-4.1")
	require.NoError(t, err)
	assert.Equal(t, "pong", text)

	assert.Equal(t, "anon-key", captured.apikey)
	assert.Equal(t, "Bearer anon-key", captured.authorization)
	assert.Equal(t, "chat", captured.body["task"])
	assert.Equal(t, "gpt-4.1", captured.body["model"])
	assert.Contains(t, captured.body, "instructions")
	assert.Nil(t, captured.body["instructions"])
}

func TestGenerateTextPrefersSessionToken(t *testing.T) {
	srv, captured := newProxyServer(t, http.StatusOK, `{"text":"ok"}`)
	client := newTestClient(srv.URL, StaticToken("session-jwt"))

	instructions := "Be brief."
	_, err := client.GenerateText(context.Background(), nil, &instructions, "")
	require.NoError(t, err)

	assert.Equal(t, "anon-key", captured.apikey)
	assert.Equal(t, "Bearer session-jwt", captured.authorization)
	assert.Equal(t, "Be brief.", captured.body["instructions"])
	assert.Equal(t, []any{}, captured.body["input"])
	assert.NotContains(t, captured.body, "model")
}

func TestNon2xxCarriesRawBody(t *testing.T) {
	body := `{"error":{"code":"insufficient_quota","message":"insufficient_quota"}}`
	srv, _ := newProxyServer(t, http.StatusPaymentRequired, body)
	client := newTestClient(srv.URL, nil)

	_, err := client.GenerateText(context.Background(), nil, nil, "")
	require.Error(t, err)

	var proxyErr *Error
	require.True(t, errors.As(err, &proxyErr))
	assert.Equal(t, http.StatusPaymentRequired, proxyErr.StatusCode)
	assert.Equal(t, body, proxyErr.Error())
}

func TestTranscribeEncodesAudio(t *testing.T) {
	srv, captured := newProxyServer(t, http.StatusOK, `{"text":"hello world"}`)
	client := newTestClient(srv.URL, nil)

	text, err := client.Transcribe(context.Background(), []byte("ID3\x04"), "", nil, "gpt-4o-mini-transcribe")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	assert.Equal(t, "audio", captured.body["task"])
	assert.Equal(t, "SUQzBA==", captured.body["audioBase64"])
	assert.Equal(t, "audio.mp3", captured.body["filename"])
	assert.Nil(t, captured.body["prompt"])
}

func TestGenerateImageAppendsStyleHint(t *testing.T) {
	srv, captured := newProxyServer(t, http.StatusOK, `{"imageURL":"https://img.example/1.png"}`)
	client := newTestClient(srv.URL, nil)

	url, err := client.GenerateImage(context.Background(), "a lighthouse", domain.StylePixel)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", url)
	assert.Equal(t, "image", captured.body["task"])
	assert.Equal(t, "a lighthouse, pixel art, 16-bit, retro game style", captured.body["prompt"])
	assert.Equal(t, "pixel", captured.body["style"])
}

func TestGenerateImageQuotaFromServer(t *testing.T) {
	srv, _ := newProxyServer(t, http.StatusPaymentRequired, `{"error":{"code":"insufficient_quota","message":"insufficient_quota"}}`)
	client := newTestClient(srv.URL, nil)

	_, err := client.GenerateImage(context.Background(), "a cat", domain.StyleAnime)
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
}

func TestUnreachableProxyIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, nil).GenerateText(context.Background(), nil, nil, "")
	require.Error(t, err)
	assert.Equal(t, CategoryGeneric, ClassifyError(err))
}

func TestUnreachableKeywordHostIsGeneric(t *testing.T) {
	client := NewClient(Config{URL: "http://balance-api.invalid/", AnonKey: "anon-key", Timeout: 5 * time.Second}, nil, &services.NoOpLogger{})

	_, err := client.GenerateText(context.Background(), nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance-api.invalid")
	assert.Equal(t, CategoryGeneric, ClassifyError(err))
	assert.Equal(t, "Could not reach the assistant right now.", UserMessage(err, domain.ModeAssistant, ActionSend, ""))
}

func TestSuccessWithoutTextIsAnError(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing field", `{"reply":"hi"}`},
		{"null text", `{"text":null}`},
		{"numeric text", `{"text":42}`},
		{"not json", `<html>ok</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newProxyServer(t, http.StatusOK, tt.response)
			client := newTestClient(srv.URL, nil)

			_, err := client.GenerateText(context.Background(), nil, nil, "")
			var proxyErr *Error
			require.True(t, errors.As(err, &proxyErr))
			assert.Equal(t, http.StatusOK, proxyErr.StatusCode)
			assert.Equal(t, tt.response, proxyErr.Body)

			_, err = client.Transcribe(context.Background(), []byte("ID3"), "", nil, "")
			assert.Error(t, err)
		})
	}
}

func TestEmptyTextIsAccepted(t *testing.T) {
	srv, _ := newProxyServer(t, http.StatusOK, `{"text":""}`)
	text, err := newTestClient(srv.URL, nil).GenerateText(context.Background(), nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}
