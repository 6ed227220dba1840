package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceSyncReplacesMembership(t *testing.T) {
	p := newPresenceSet()
	require.False(t, p.Valid())

	p.Sync([]string{"alice", "bob"})
	require.True(t, p.Valid())
	require.Equal(t, []string{"alice", "bob"}, p.Online())

	// A later sync is authoritative, not additive.
	p.Sync([]string{"carol"})
	require.Equal(t, []string{"carol"}, p.Online())
	require.False(t, p.IsOnline("alice"))
}

func TestPresenceJoinLeaveAreSetOperations(t *testing.T) {
	p := newPresenceSet()
	p.Sync(nil)

	p.Join("alice")
	p.Join("alice")
	require.Equal(t, []string{"alice"}, p.Online())

	// One leave removes the member regardless of duplicate joins.
	p.Leave("alice")
	require.False(t, p.IsOnline("alice"))

	// Leaving an absent member is a no-op.
	p.Leave("ghost")
	require.Empty(t, p.Online())
}

func TestPresenceClearInvalidatesUntilNextSync(t *testing.T) {
	p := newPresenceSet()
	p.Sync([]string{"alice"})

	p.Clear()
	require.False(t, p.Valid())
	require.Empty(t, p.Online())

	p.Sync([]string{"bob"})
	require.True(t, p.Valid())
	require.Equal(t, []string{"bob"}, p.Online())
}

func TestSeenSetEvictsOldestBeyondCapacity(t *testing.T) {
	s := newSeenSet(3)

	s.add("a")
	s.add("b")
	s.add("a") // duplicate adds do not grow the queue
	s.add("c")
	require.True(t, s.has("a"))

	s.add("d")
	require.False(t, s.has("a"))
	require.True(t, s.has("b"))
	require.True(t, s.has("d"))
}
