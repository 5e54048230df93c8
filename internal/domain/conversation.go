// File: internal/domain/conversation.go
package domain

import (
	"fmt"
	"time"
)

// Mode selects the assistant behavior of a conversation. It is fixed at creation.
type Mode string

const (
	ModeAssistant      Mode = "assistant"
	ModeSummarizeAudio Mode = "summarizeAudio"
	ModeGenerateImage  Mode = "generateImage"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeAssistant, ModeSummarizeAudio, ModeGenerateImage:
		return true
	}
	return false
}

// ParseMode accepts the JSON value of a mode plus a few short aliases used by the CLI.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "assistant", "chat":
		return ModeAssistant, nil
	case "summarizeAudio", "audio", "summarize":
		return ModeSummarizeAudio, nil
	case "generateImage", "image":
		return ModeGenerateImage, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

const untitledConversation = "New conversation"

// Conversation is one chat thread owned by a single identity partition.
type Conversation struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	LastMessagePreview string    `json:"lastMessagePreview"`
	UpdatedAt          time.Time `json:"updatedAt"`
	Messages           []Message `json:"messages"`
	Mode               Mode      `json:"mode"`
}

// DisplayTitle is what list rows show: the custom title, else the preview.
func (c Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.LastMessagePreview != "" {
		return c.LastMessagePreview
	}
	return untitledConversation
}

// Clone returns a deep copy so callers never share the message slice.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = CloneMessages(c.Messages)
	return out
}
