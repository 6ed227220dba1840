// Package backend defines the interfaces the sync engine consumes —
// message queries, writes, the push feed, and identity — plus the
// websocket/REST gateway implementation of them.
package backend

import (
	"context"
	"time"

	"retrochat/internal/chat"
)

// ChannelStatus describes the health of a push transport as reported
// to subscription handlers.
type ChannelStatus string

const (
	StatusConnecting   ChannelStatus = "connecting"
	StatusActive       ChannelStatus = "active"
	StatusDegraded     ChannelStatus = "degraded"
	StatusDisconnected ChannelStatus = "disconnected"
)

// MessageFilter selects a slice of the message table. A nil Scope
// selects every message visible to the authenticated participant
// (public plus their direct conversations); a nil After selects the
// full history.
type MessageFilter struct {
	Scope *chat.Scope
	After *time.Time
}

// Querier is the read side of the message store.
type Querier interface {
	// FetchMessages returns matching messages ordered by creation time
	// ascending.
	FetchMessages(ctx context.Context, filter MessageFilter) ([]chat.Message, error)

	// FetchParticipants returns the participant directory.
	FetchParticipants(ctx context.Context) ([]chat.Participant, error)
}

// Writer is the write side of the message store.
type Writer interface {
	// InsertMessage persists a draft and returns the confirmed row with
	// the store-assigned identifier and timestamp.
	InsertMessage(ctx context.Context, draft chat.Message) (chat.Message, error)
}

// MessageHandlers receives message-change events from the push feed.
// OnState reports transport transitions; handlers must not block.
type MessageHandlers struct {
	OnEvent func(chat.Message)
	OnState func(ChannelStatus)
}

// PresenceHandlers receives presence signals. OnSync carries the full
// current membership and replaces all previous knowledge.
type PresenceHandlers struct {
	OnSync  func(ids []string)
	OnJoin  func(id string)
	OnLeave func(id string)
	OnState func(ChannelStatus)
}

// Subscription is an active push subscription.
type Subscription interface {
	Unsubscribe() error
}

// Pusher is the live change-notification feed.
type Pusher interface {
	SubscribeMessages(ctx context.Context, h MessageHandlers) (Subscription, error)
	SubscribePresence(ctx context.Context, h PresenceHandlers) (Subscription, error)

	// AnnouncePresence marks the participant online. Clients re-announce
	// periodically; the server expires silent members.
	AnnouncePresence(ctx context.Context, participantID, displayName string) error

	// AnnounceDeparture marks the participant offline. Leaving is not
	// implicit on disconnect; clients send it during teardown.
	AnnounceDeparture(ctx context.Context, participantID string) error
}

// Backend bundles the full remote surface the engine depends on.
type Backend interface {
	Querier
	Writer
	Pusher
}

// Identity resolves the local participant.
type Identity interface {
	ParticipantID() string
	DisplayName() string
}
