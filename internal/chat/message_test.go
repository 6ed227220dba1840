package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPeerResolvesBothDirections(t *testing.T) {
	msg := Message{SenderID: "alice", RecipientID: "bob"}

	require.Equal(t, "bob", msg.Peer("alice"))
	require.Equal(t, "alice", msg.Peer("bob"))
	// A third party sees the sender.
	require.Equal(t, "alice", msg.Peer("carol"))
}

func TestLessOrdersByTimeThenID(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	early := Message{ID: "b", CreatedAt: base}
	late := Message{ID: "a", CreatedAt: base.Add(time.Second)}
	require.True(t, early.Less(late))
	require.False(t, late.Less(early))

	// Same instant falls back to identifier order.
	tieA := Message{ID: "a", CreatedAt: base}
	tieB := Message{ID: "b", CreatedAt: base}
	require.True(t, tieA.Less(tieB))
	require.False(t, tieB.Less(tieA))
}

func TestScopeZeroValueIsPublic(t *testing.T) {
	var s Scope
	require.True(t, s.IsPublic())
	require.Equal(t, Public(), s)
	require.Equal(t, "public", s.String())

	dm := Direct("bob")
	require.True(t, dm.IsDirect())
	require.Equal(t, "bob", dm.Other())
	require.Equal(t, "direct:bob", dm.String())
}

func TestParticipantNamePrefersDisplayName(t *testing.T) {
	require.Equal(t, "Alice", Participant{Username: "alice99", DisplayName: "Alice"}.Name())
	require.Equal(t, "alice99", Participant{Username: "alice99"}.Name())
}
