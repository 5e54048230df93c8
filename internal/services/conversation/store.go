// File: internal/services/conversation/store.go
package conversation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/repository/kv"
)

// DefaultBaseKey prefixes every persisted conversation list.
const DefaultBaseKey = "chat_conversations_v1"

var ErrInvalidMode = errors.New("invalid conversation mode")

// Snapshot is what observers receive after the visible list changes.
type Snapshot struct {
	Identity      string
	Conversations []domain.Conversation
}

// Observer is called outside the store lock with a private copy of the list.
type Observer func(Snapshot)

// Store holds the conversations of the active identity and persists them per identity.
type Store struct {
	mu            sync.RWMutex
	kv            kv.Store
	baseKey       string
	identity      string
	conversations []domain.Conversation

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int

	now    func() time.Time
	newID  func() string
	logger Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithBaseKey overrides DefaultBaseKey.
func WithBaseKey(base string) Option {
	return func(s *Store) { s.baseKey = base }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore builds a store bound to the guest partition and loads it.
func NewStore(ctx context.Context, store kv.Store, logger Logger, opts ...Option) *Store {
	s := &Store{
		kv:        store,
		baseKey:   DefaultBaseKey,
		observers: make(map[int]Observer),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.conversations = s.load(ctx, "")
	return s
}

// StorageKey returns the durable key of an identity; "" is the guest partition.
func StorageKey(base, identity string) string {
	if identity == "" {
		return base + "_guest"
	}
	return base + "_user_" + identity
}

// ActiveIdentity returns the current partition; "" means guest.
func (s *Store) ActiveIdentity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetActiveIdentity swaps the visible data set. The same identity is a no-op.
// It reports whether a reload happened.
func (s *Store) SetActiveIdentity(ctx context.Context, identity string) bool {
	s.mu.Lock()
	if identity == s.identity {
		s.mu.Unlock()
		return false
	}
	s.identity = identity
	s.conversations = s.load(ctx, identity)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("conversation partition switched", "guest", identity == "", "count", len(snap.Conversations))
	s.notify(snap)
	return true
}

// Conversations returns the list sorted by most recent update first.
func (s *Store) Conversations() []domain.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked().Conversations
}

// CreateConversation inserts an empty conversation of the given mode at the head.
func (s *Store) CreateConversation(ctx context.Context, mode domain.Mode) (domain.Conversation, error) {
	if !mode.Valid() {
		return domain.Conversation{}, ErrInvalidMode
	}

	conv := domain.Conversation{
		ID:        s.newID(),
		UpdatedAt: s.now(),
		Messages:  []domain.Message{},
		Mode:      mode,
	}

	s.mu.Lock()
	s.conversations = append([]domain.Conversation{conv}, s.conversations...)
	s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return conv.Clone(), nil
}

// GetConversation returns a copy of the conversation with the given id.
func (s *Store) GetConversation(id string) (domain.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Conversation{}, false
	}
	return s.conversations[idx].Clone(), true
}

// UpdateMessages replaces the message list, refreshes the preview and touches updatedAt.
// Unknown ids are ignored without a write.
func (s *Store) UpdateMessages(ctx context.Context, id string, messages []domain.Message) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	conv := &s.conversations[idx]
	conv.Messages = domain.CloneMessages(messages)
	if conv.Messages == nil {
		conv.Messages = []domain.Message{}
	}
	conv.LastMessagePreview = domain.DerivePreview(conv.Messages, conv.Mode)
	conv.UpdatedAt = s.now()
	s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// RenameConversation stores the trimmed title. Unknown ids are ignored.
func (s *Store) RenameConversation(ctx context.Context, id, title string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.conversations[idx].Title = strings.TrimSpace(title)
	s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// DeleteConversation removes the conversation. Unknown ids leave the store untouched.
func (s *Store) DeleteConversation(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Subscribe registers an observer and returns its cancel function.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(Snapshot{Identity: snap.Identity, Conversations: cloneAll(snap.Conversations)})
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() Snapshot {
	list := cloneAll(s.conversations)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return Snapshot{Identity: s.identity, Conversations: list}
}

// load never fails: missing or corrupt data yields an empty set.
func (s *Store) load(ctx context.Context, identity string) []domain.Conversation {
	key := StorageKey(s.baseKey, identity)
	data, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("failed to read conversations", "key", key, "error", err)
		return []domain.Conversation{}
	}
	if !found || len(data) == 0 {
		return []domain.Conversation{}
	}
	convs, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding undecodable conversations", "key", key, "error", err)
		return []domain.Conversation{}
	}
	return convs
}

// saveLocked drops the write on failure; in-memory state is already updated.
func (s *Store) saveLocked(ctx context.Context) {
	key := StorageKey(s.baseKey, s.identity)
	data, err := Encode(s.conversations)
	if err != nil {
		s.logger.Warn("failed to encode conversations", "key", key, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.logger.Warn("failed to persist conversations", "key", key, "error", err)
	}
}

func cloneAll(in []domain.Conversation) []domain.Conversation {
	out := make([]domain.Conversation, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
