// File: internal/services/chat/session.go
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/services/ai"
	"github.com/iakadir/go-iakadir/internal/services/proxyclient"
)

var modeInstructions = map[domain.Mode]string{
	domain.ModeAssistant:      "You are Iakadir, a helpful assistant. Answer clearly and concisely.",
	domain.ModeSummarizeAudio: "You summarize audio from its transcript. Give a clear summary followed by the key points.",
}

// Session drives one open conversation: it appends the user turn and a
// placeholder, calls the proxy, then fills the placeholder with the reply
// or with a user-facing error text. Only one request runs at a time.
type Session struct {
	store  ConversationStore
	client Assistant
	config *Config
	logger Logger

	inFlight atomic.Bool

	mu             sync.Mutex
	conversationID string
	mode           domain.Mode
	messages       []domain.Message
	style          domain.ImageStyle
}

// NewSession opens conversationID, or creates a conversation of mode when
// the id is empty or unknown.
func NewSession(ctx context.Context, store ConversationStore, client Assistant, config *Config, logger Logger, mode domain.Mode, conversationID string) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat config: %w", err)
	}

	s := &Session{
		store:  store,
		client: client,
		config: config,
		logger: logger,
		style:  domain.StyleRealistic,
	}

	if conversationID != "" {
		if conv, ok := store.GetConversation(conversationID); ok {
			s.conversationID = conv.ID
			s.mode = conv.Mode
			s.messages = domain.CloneMessages(conv.Messages)
			s.restoreStyle()
			return s, nil
		}
		logger.Warn("conversation not found, starting a new one", "conversation_id", conversationID)
	}

	conv, err := store.CreateConversation(ctx, mode)
	if err != nil {
		return nil, err
	}
	s.conversationID = conv.ID
	s.mode = conv.Mode
	s.messages = domain.CloneMessages(conv.Messages)
	return s, nil
}

func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Messages returns a copy of the current message list.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneMessages(s.messages)
}

// InFlight reports whether a request is running.
func (s *Session) InFlight() bool {
	return s.inFlight.Load()
}

func (s *Session) ImageStyle() domain.ImageStyle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// SetImageStyle selects the style for the next image request.
func (s *Session) SetImageStyle(style domain.ImageStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = style
}

// LastReply returns the latest settled assistant text.
func (s *Session) LastReply() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.IsUser || m.IsPlaceholder() {
			continue
		}
		if m.ImageURL != nil {
			return *m.ImageURL, true
		}
		return m.Text, true
	}
	return "", false
}

// Send submits text and waits for the reply. Upstream failures do not
// return an error: the reply slot holds the user-facing failure text.
func (s *Session) Send(ctx context.Context, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, ErrEmptyInput
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.Message{}, ErrBusy
	}
	defer s.inFlight.Store(false)

	return s.exchange(ctx, text, proxyclient.ActionSend)
}

// SendAudio transcribes a recording and sends the transcript for summary.
func (s *Session) SendAudio(ctx context.Context, audio []byte, filename string) (domain.Message, error) {
	if s.Mode() != domain.ModeSummarizeAudio {
		return domain.Message{}, ErrWrongMode
	}
	if len(audio) == 0 {
		return domain.Message{}, ErrEmptyInput
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.Message{}, ErrBusy
	}
	defer s.inFlight.Store(false)

	reqCtx, cancel := s.withTimeout(ctx)
	var prompt *string
	if s.config.AudioPrompt != "" {
		prompt = &s.config.AudioPrompt
	}
	transcript, err := s.client.Transcribe(reqCtx, audio, filename, prompt, s.config.TranscribeModel)
	cancel()
	transcript = strings.TrimSpace(transcript)

	if err != nil || transcript == "" {
		if err != nil {
			s.logger.Warn("transcription failed", "conversation_id", s.ConversationID(), "category", proxyclient.ClassifyError(err).String(), "error", err)
		}
		reply := s.newReply(proxyclient.UserMessage(err, domain.ModeSummarizeAudio, proxyclient.ActionSend, ""))
		s.mu.Lock()
		s.messages = append(s.messages, reply)
		s.persistLocked(ctx)
		s.mu.Unlock()
		return reply, nil
	}

	return s.exchange(ctx, transcript, proxyclient.ActionSend)
}

// Regenerate drops the last assistant message and asks again.
func (s *Session) Regenerate(ctx context.Context) (domain.Message, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.Message{}, ErrBusy
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	last := -1
	for i := len(s.messages) - 1; i >= 0; i-- {
		if !s.messages[i].IsUser {
			last = i
			break
		}
	}
	if last < 0 {
		s.mu.Unlock()
		return domain.Message{}, ErrNothingToRegenerate
	}
	removed := s.messages[last]
	s.messages = append(s.messages[:last], s.messages[last+1:]...)
	if removed.ImageStyle != nil {
		s.style = *removed.ImageStyle
	}
	s.mu.Unlock()

	return s.request(ctx, proxyclient.ActionRegenerate)
}

// exchange appends the user turn and runs one request.
func (s *Session) exchange(ctx context.Context, text string, action proxyclient.Action) (domain.Message, error) {
	s.mu.Lock()
	s.messages = append(s.messages, domain.Message{
		ID:     uuid.NewString(),
		Text:   text,
		IsUser: true,
		Kind:   domain.KindText,
	})
	s.mu.Unlock()

	return s.request(ctx, action)
}

// request appends a placeholder, persists, calls the proxy and settles the
// placeholder in place. The caller holds the in-flight flag.
func (s *Session) request(ctx context.Context, action proxyclient.Action) (domain.Message, error) {
	s.mu.Lock()
	mode := s.mode
	style := s.style
	placeholder := domain.Message{ID: uuid.NewString(), Text: domain.PlaceholderText, Kind: domain.KindText}
	if mode == domain.ModeGenerateImage {
		placeholder.Text = domain.GeneratingText
		placeholder.Kind = domain.KindImageResult
		placeholder.ImageStyle = &style
	}
	s.messages = append(s.messages, placeholder)
	input := historyInput(s.messages, s.config.HistoryLimit)
	prompt := lastUserText(s.messages)
	s.persistLocked(ctx)
	s.mu.Unlock()

	reqCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	settled := placeholder
	switch mode {
	case domain.ModeGenerateImage:
		url, err := s.client.GenerateImage(reqCtx, prompt, style)
		if err != nil {
			s.logFailure(err, action)
			settled.Text = proxyclient.UserMessage(err, mode, action, style)
		} else {
			settled.Text = fmt.Sprintf("Here is your %s image.", strings.ToLower(style.Label()))
			settled.ImageURL = &url
		}
	default:
		var instructions *string
		if text, ok := modeInstructions[mode]; ok {
			instructions = &text
		}
		reply, err := s.client.GenerateText(reqCtx, input, instructions, s.config.ChatModel)
		if err != nil {
			s.logFailure(err, action)
			settled.Text = proxyclient.UserMessage(err, mode, action, "")
		} else {
			settled.Text = reply
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.messages {
		if s.messages[i].ID == placeholder.ID {
			s.messages[i] = settled
			replaced = true
			break
		}
	}
	if !replaced {
		s.messages = append(s.messages, settled)
	}
	s.persistLocked(ctx)
	return settled, nil
}

func (s *Session) newReply(text string) domain.Message {
	return domain.Message{ID: uuid.NewString(), Text: text, Kind: domain.KindText}
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Session) persistLocked(ctx context.Context) {
	if !s.store.UpdateMessages(ctx, s.conversationID, domain.CloneMessages(s.messages)) {
		s.logger.Warn("conversation no longer exists, messages kept in memory only", "conversation_id", s.conversationID)
	}
}

func (s *Session) logFailure(err error, action proxyclient.Action) {
	s.logger.Warn("assistant request failed",
		"conversation_id", s.ConversationID(),
		"regenerate", action == proxyclient.ActionRegenerate,
		"category", proxyclient.ClassifyError(err).String(),
		"error", err,
	)
}

func (s *Session) restoreStyle() {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if st := s.messages[i].ImageStyle; st != nil {
			s.style = *st
			return
		}
	}
}

// historyInput converts the last limit messages, skipping pending assistant
// placeholders, into proxy input turns.
func historyInput(messages []domain.Message, limit int) []ai.InputMessage {
	filtered := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if !m.IsUser && m.IsPlaceholder() {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	input := make([]ai.InputMessage, 0, len(filtered))
	for _, m := range filtered {
		role := openai.ChatMessageRoleAssistant
		if m.IsUser {
			role = openai.ChatMessageRoleUser
		}
		input = append(input, ai.InputMessage{Role: role, Content: m.Text})
	}
	return input
}

func lastUserText(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsUser {
			return messages[i].Text
		}
	}
	return ""
}
