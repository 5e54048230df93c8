// File: internal/services/ai/openai_provider.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	config       *Config
	clientConfig openai.ClientConfig
	logger       Logger
}

func NewOpenAIProvider(config *Config, logger Logger) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIProvider{
		config:       config,
		clientConfig: clientConfig,
		logger:       logger,
	}
}

// Configured reports whether an upstream credential is present.
func (p *OpenAIProvider) Configured() bool {
	return p.config.APIKey != ""
}

// CreateResponse posts to /responses and extracts the reply text.
func (p *OpenAIProvider) CreateResponse(ctx context.Context, req ResponseRequest) (string, error) {
	if !p.Configured() {
		return "", NewConfigError("Missing OPENAI_API_KEY")
	}
	if req.Model == "" {
		req.Model = p.config.DefaultChatModel
	}
	if req.Input == nil {
		req.Input = []InputMessage{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", NewValidationError("responses", "could not encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("/responses"), bytes.NewReader(payload))
	if err != nil {
		return "", NewProviderError("responses", "could not build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := p.do(httpReq, "responses")
	if err != nil {
		return "", err
	}
	text := ExtractOutputText(body)
	p.logger.Debug("upstream response received", "model", req.Model, "reply_length", len(text))
	return text, nil
}

// Transcribe posts a multipart upload to /audio/transcriptions.
func (p *OpenAIProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	if !p.Configured() {
		return "", NewConfigError("Missing OPENAI_API_KEY")
	}
	if len(req.Audio) == 0 {
		return "", NewValidationError("transcription", "audio payload is empty")
	}
	if req.Model == "" {
		req.Model = p.config.DefaultTranscribeModel
	}
	if req.Filename == "" {
		req.Filename = DefaultAudioFilename
	}

	body, contentType, err := buildTranscriptionForm(req)
	if err != nil {
		return "", NewProviderError("transcription", "could not build multipart body", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("/audio/transcriptions"), body)
	if err != nil {
		return "", NewProviderError("transcription", "could not build request", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	respBody, err := p.do(httpReq, "transcription")
	if err != nil {
		return "", err
	}
	text := ExtractTranscript(respBody)
	p.logger.Debug("upstream transcription received", "model", req.Model, "bytes", len(req.Audio), "transcript_length", len(text))
	return text, nil
}

// HealthCheck lists models through the go-openai client.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if !p.Configured() {
		return NewConfigError("Missing OPENAI_API_KEY")
	}
	client := openai.NewClientWithConfig(p.clientConfig)
	if _, err := client.ListModels(ctx); err != nil {
		return NewProviderError("health", "failed to list models", err)
	}
	return nil
}

func (p *OpenAIProvider) GetStatus(ctx context.Context) ProviderStatus {
	if !p.Configured() {
		return ProviderStatus{Message: "Missing OPENAI_API_KEY"}
	}
	if err := p.HealthCheck(ctx); err != nil {
		return ProviderStatus{Configured: true, Message: err.Error()}
	}
	return ProviderStatus{IsHealthy: true, Configured: true, Message: "upstream reachable"}
}

func (p *OpenAIProvider) url(path string) string {
	return p.clientConfig.BaseURL + path
}

// do sends an authenticated request. Non-2xx answers become *UpstreamError.
func (p *OpenAIProvider) do(req *http.Request, operation string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.clientConfig.HTTPClient.Do(req)
	if err != nil {
		p.logger.Error("upstream call failed", "operation", operation, "error", err)
		return nil, NewNetworkError(operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError(operation, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn("upstream returned error status", "operation", operation, "status", resp.StatusCode)
		return nil, &UpstreamError{
			Operation:   operation,
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}
	}
	return body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func buildTranscriptionForm(req TranscriptionRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("model", req.Model); err != nil {
		return nil, "", err
	}
	if req.Prompt != "" {
		if err := w.WriteField("prompt", req.Prompt); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.Filename)))
	header.Set("Content-Type", AudioMIMEType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
