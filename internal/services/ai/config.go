// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

const (
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultChatModel       = "gpt-4.1"
	DefaultTranscribeModel = "gpt-4o-mini-transcribe"
	DefaultAudioFilename   = "audio.mp3"
	AudioMIMEType          = "audio/mpeg"
)

type Config struct {
	// Upstream credentials. An empty key is a server misconfiguration
	// reported per request, not at start-up.
	APIKey  string
	BaseURL string

	// Zero means no client-side deadline.
	Timeout time.Duration

	DefaultChatModel       string
	DefaultTranscribeModel string
}

// Validate reports a missing credential as a CONFIG error.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return NewConfigError("Missing OPENAI_API_KEY")
	}
	if c.BaseURL == "" {
		return NewConfigError("Missing OPENAI_BASE_URL")
	}
	if c.Timeout < 0 {
		return NewConfigError(fmt.Sprintf("timeout must not be negative, got %s", c.Timeout))
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:                DefaultBaseURL,
		Timeout:                5 * time.Minute,
		DefaultChatModel:       DefaultChatModel,
		DefaultTranscribeModel: DefaultTranscribeModel,
	}
}
