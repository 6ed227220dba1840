// Package chat defines the core message and scope model shared by the
// sync engine, the gateway client, and the TUI.
package chat

import (
	"time"
)

// Message is a single chat message. Confirmed messages carry a
// store-assigned ID and server timestamp; provisional messages carry a
// client-assigned ID (see NewProvisionalID) and the client clock until
// the authoritative row arrives.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`

	// RecipientID is empty for public messages.
	RecipientID string `json:"recipient_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// ClientToken is a client-generated idempotency token attached on
	// send and echoed back by the store. It disambiguates provisional
	// reconciliation when a sender repeats the same body.
	ClientToken string `json:"client_token,omitempty"`

	// Provisional marks a locally created, unconfirmed echo.
	Provisional bool `json:"-"`
}

// IsDirect reports whether the message is addressed to a single
// participant rather than the public lobby.
func (m Message) IsDirect() bool {
	return m.RecipientID != ""
}

// Peer returns the non-local party of a direct message from the point
// of view of localID. For public messages it returns the sender.
func (m Message) Peer(localID string) string {
	if m.SenderID == localID && m.RecipientID != "" {
		return m.RecipientID
	}
	return m.SenderID
}

// Less orders messages by creation time ascending, ties broken by ID.
// Push and poll can deliver the same second's worth of events in
// different relative order; this ordering is what restores a total
// order.
func (m Message) Less(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// Participant is a profile row from the participant directory.
type Participant struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// Name returns the best human-readable name for the participant.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
