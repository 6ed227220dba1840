package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	peers, err := s.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.Empty(t, peers)

	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"alice", "bob"}))

	peers, err = s.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, peers)
}

func TestSaveReplacesSet(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"alice", "bob"}))

	// Removing a conversation prunes its row.
	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"bob"}))
	peers, err := s.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, peers)

	// An empty set clears everything.
	require.NoError(t, s.SaveActiveConversations(ctx, "me", nil))
	peers, err = s.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.Empty(t, peers)
}

func TestSetsAreScopedPerParticipant(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"alice"}))
	require.NoError(t, s.SaveActiveConversations(ctx, "other", []string{"bob"}))

	peers, err := s.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, peers)

	// Clearing one participant leaves the other untouched.
	require.NoError(t, s.SaveActiveConversations(ctx, "me", nil))
	peers, err = s.LoadActiveConversations(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, peers)
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "retrochat.db")

	s, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"alice"}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	peers, err := s2.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, peers)
}

func TestSaveIsIdempotent(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"alice"}))
	require.NoError(t, s.SaveActiveConversations(ctx, "me", []string{"alice"}))

	peers, err := s.LoadActiveConversations(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, peers)
}
