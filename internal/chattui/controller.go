// Package chattui implements the terminal chat client: a message
// pane, a sidebar with online users and conversations, and an input
// bar, drawn in a retro desktop style.
package chattui

import (
	"retrochat/internal/chat"
	"retrochat/internal/engine"
)

// Controller is the surface the UI drives. *engine.Engine satisfies
// it; tests substitute a fake.
type Controller interface {
	Send(text string) error
	SwitchScope(scope chat.Scope) error
	RemoveConversation(other string) error
	RefreshParticipants()

	Messages() []chat.Message
	Scope() chat.Scope
	Online() ([]string, bool)
	Unread() map[string]int
	Conversations() []string
	Participants() map[string]chat.Participant
	ConnectionStatus() engine.Status
	Updates() <-chan engine.Update

	LocalID() string
	DisplayName() string
}

var _ Controller = (*engine.Engine)(nil)
