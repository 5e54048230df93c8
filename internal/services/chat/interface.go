// File: internal/services/chat/interface.go
package chat

import (
	"context"

	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

// ConversationStore is the part of the conversation store a session needs.
type ConversationStore interface {
	GetConversation(id string) (domain.Conversation, bool)
	CreateConversation(ctx context.Context, mode domain.Mode) (domain.Conversation, error)
	UpdateMessages(ctx context.Context, id string, messages []domain.Message) bool
}

// Assistant issues requests through the proxy.
type Assistant interface {
	GenerateText(ctx context.Context, input []ai.InputMessage, instructions *string, model string) (string, error)
	Transcribe(ctx context.Context, audio []byte, filename string, prompt *string, model string) (string, error)
	GenerateImage(ctx context.Context, prompt string, style domain.ImageStyle) (string, error)
}
