package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "chat_conversations_v1_guest", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "chat_conversations_v1_user_42", []byte(`[{"id":"a"}]`)))
	require.NoError(t, s.Set(ctx, "chat_conversations_v1_user_42", []byte(`[{"id":"b"}]`)))

	v, found, err := s.Get(ctx, "chat_conversations_v1_user_42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"b"}]`, string(v))

	v, found, err = s.Get(ctx, "chat_conversations_v1_guest")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(v))
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv", "store.bolt")
	s, err := OpenBolt(path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	// Values survive a reopen.
	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()
	v, found, err := s.Get(context.Background(), "chat_conversations_v1_user_42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"b"}]`, string(v))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	require.NoError(t, s.Close())
	_, _, err := s.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "x", nil), ErrClosed)
}
