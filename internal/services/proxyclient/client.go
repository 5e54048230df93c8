// File: internal/services/proxyclient/client.go
package proxyclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

// Logger defines the logging interface used by the proxy client
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// TokenSource supplies the current session token. An empty token means
// the caller is not signed in.
type TokenSource interface {
	SessionToken() string
}

// StaticToken is a fixed session token.
type StaticToken string

func (t StaticToken) SessionToken() string { return string(t) }

type Config struct {
	URL     string
	AnonKey string
	// Zero keeps the transport default.
	Timeout time.Duration
}

// Client calls the request proxy with the best available credential.
type Client struct {
	url     string
	anonKey string
	tokens  TokenSource
	http    *http.Client
	logger  Logger
}

func NewClient(cfg Config, tokens TokenSource, logger Logger) *Client {
	return &Client{
		url:     cfg.URL,
		anonKey: cfg.AnonKey,
		tokens:  tokens,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type chatRequest struct {
	Task         string            `json:"task"`
	Model        string            `json:"model,omitempty"`
	Instructions *string           `json:"instructions"`
	Input        []ai.InputMessage `json:"input"`
}

type audioRequest struct {
	Task        string  `json:"task"`
	Model       string  `json:"model,omitempty"`
	Prompt      *string `json:"prompt"`
	Filename    string  `json:"filename"`
	AudioBase64 string  `json:"audioBase64"`
}

type imageRequest struct {
	Task   string            `json:"task"`
	Prompt string            `json:"prompt"`
	Style  domain.ImageStyle `json:"style,omitempty"`
}

// GenerateText sends a chat task and returns the reply text.
func (c *Client) GenerateText(ctx context.Context, input []ai.InputMessage, instructions *string, model string) (string, error) {
	if input == nil {
		input = []ai.InputMessage{}
	}
	body, err := c.post(ctx, chatRequest{
		Task:         "chat",
		Model:        model,
		Instructions: instructions,
		Input:        input,
	})
	if err != nil {
		return "", err
	}
	return replyText(body)
}

// Transcribe sends an audio task with the payload base64 encoded.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string, prompt *string, model string) (string, error) {
	if filename == "" {
		filename = ai.DefaultAudioFilename
	}
	body, err := c.post(ctx, audioRequest{
		Task:        "audio",
		Model:       model,
		Prompt:      prompt,
		Filename:    filename,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
	})
	if err != nil {
		return "", err
	}
	return replyText(body)
}

// GenerateImage sends an image task with the style hint appended to the
// prompt and returns the image URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string, style domain.ImageStyle) (string, error) {
	if hint := style.PromptHint(); hint != "" {
		prompt = prompt + ", " + hint
	}
	body, err := c.post(ctx, imageRequest{Task: "image", Prompt: prompt, Style: style})
	if err != nil {
		return "", err
	}
	for _, path := range []string{"imageURL", "url", "data.0.url"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
			return v.String(), nil
		}
	}
	return "", &Error{StatusCode: http.StatusOK, Body: string(body)}
}

// replyText reads the text field of a success body. A reply without one
// is treated like an error answer.
func replyText(body []byte) (string, error) {
	v := gjson.GetBytes(body, "text")
	if v.Type != gjson.String {
		return "", &Error{StatusCode: http.StatusOK, Body: string(body)}
	}
	return v.String(), nil
}

func (c *Client) post(ctx context.Context, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.credential())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("proxy unreachable", "error", err)
		return nil, fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read proxy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("proxy returned error", "status", resp.StatusCode)
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// credential prefers the session token and falls back to the anon key.
func (c *Client) credential() string {
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.SessionToken()); token != "" {
			return token
		}
	}
	return c.anonKey
}

// Error is a non-2xx proxy answer. Its message is the raw response body.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("proxy returned status %d", e.StatusCode)
	}
	return e.Body
}
