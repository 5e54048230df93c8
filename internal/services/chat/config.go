// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"

	"github.com/iakadir/go-iakadir/internal/services/ai"
)

type Config struct {
	// Model Configuration
	ChatModel       string // model for text replies
	TranscribeModel string // model for audio transcription

	// Conversation Configuration
	HistoryLimit int    // messages forwarded as context
	AudioPrompt  string // optional transcription hint

	// Zero leaves the request unbounded.
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("chat_model is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		ChatModel:       ai.DefaultChatModel,
		TranscribeModel: ai.DefaultTranscribeModel,
		HistoryLimit:    20,
	}
}
