// File: internal/services/ai/interface.go
package ai

import "context"

// InputMessage is one turn forwarded to the text-generation operation.
type InputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseRequest mirrors the upstream text-generation body. A nil
// Instructions is sent as JSON null.
type ResponseRequest struct {
	Model        string         `json:"model"`
	Instructions *string        `json:"instructions"`
	Input        []InputMessage `json:"input"`
}

// TranscriptionRequest carries decoded audio for the transcription operation.
type TranscriptionRequest struct {
	Model    string
	Prompt   string
	Filename string
	Audio    []byte
}

// ProviderStatus represents upstream health
type ProviderStatus struct {
	IsHealthy  bool   `json:"healthy"`
	Configured bool   `json:"configured"`
	Message    string `json:"message"`
}

// ResponseGenerator forwards chat input and returns the extracted reply text.
type ResponseGenerator interface {
	CreateResponse(ctx context.Context, req ResponseRequest) (string, error)
}

// Transcriber forwards audio and returns the transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}

// Provider is everything the proxy needs from the upstream API.
type Provider interface {
	ResponseGenerator
	Transcriber
	Configured() bool
	HealthCheck(ctx context.Context) error
	GetStatus(ctx context.Context) ProviderStatus
}
