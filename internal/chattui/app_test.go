package chattui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"retrochat/internal/chat"
	"retrochat/internal/engine"
)

// fakeController is a scripted Controller for UI tests.
type fakeController struct {
	localID string

	messages      []chat.Message
	scope         chat.Scope
	online        []string
	presenceValid bool
	unread        map[string]int
	conversations []string
	participants  map[string]chat.Participant
	status        engine.Status
	updates       chan engine.Update

	sent     []string
	sendErr  error
	switched []chat.Scope
	removed  []string
}

func newFakeController() *fakeController {
	return &fakeController{
		localID:       "me",
		presenceValid: true,
		unread:        map[string]int{},
		participants:  map[string]chat.Participant{},
		status:        engine.StatusConnected,
		updates:       make(chan engine.Update, 8),
	}
}

func (f *fakeController) Send(text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeController) SwitchScope(scope chat.Scope) error {
	f.switched = append(f.switched, scope)
	f.scope = scope
	return nil
}

func (f *fakeController) RemoveConversation(other string) error {
	f.removed = append(f.removed, other)
	return nil
}

func (f *fakeController) RefreshParticipants() {}

func (f *fakeController) Messages() []chat.Message { return f.messages }
func (f *fakeController) Scope() chat.Scope { return f.scope }
func (f *fakeController) Online() ([]string, bool) { return f.online, f.presenceValid }
func (f *fakeController) Unread() map[string]int { return f.unread }
func (f *fakeController) Conversations() []string { return f.conversations }
func (f *fakeController) Participants() map[string]chat.Participant { return f.participants }
func (f *fakeController) ConnectionStatus() engine.Status { return f.status }
func (f *fakeController) Updates() <-chan engine.Update { return f.updates }
func (f *fakeController) LocalID() string { return f.localID }
func (f *fakeController) DisplayName() string { return "Me" }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func typeString(m *Model, s string) {
	for _, r := range s {
		m.Update(key(string(r)))
	}
}

func TestSidebarEntriesMergeConversationsAndOnline(t *testing.T) {
	ctrl := newFakeController()
	ctrl.conversations = []string{"alice"}
	ctrl.online = []string{"alice", "bob", "me"}
	m := NewModel(ctrl, Config{})

	entries := m.sidebarEntries()
	require.Len(t, entries, 3)
	require.Equal(t, entryPublic, entries[0].kind)
	require.Equal(t, entryConversation, entries[1].kind)
	require.Equal(t, "alice", entries[1].id)
	// The local user and already-listed conversations are not repeated
	// in the online section.
	require.Equal(t, entryParticipant, entries[2].kind)
	require.Equal(t, "bob", entries[2].id)
}

func TestSidebarFilterNarrowsByName(t *testing.T) {
	ctrl := newFakeController()
	ctrl.online = []string{"u1", "u2"}
	ctrl.participants = map[string]chat.Participant{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob"},
	}
	m := NewModel(ctrl, Config{})
	m.focus = focusSidebar

	m.Update(key("/"))
	typeString(m, "ali")

	entries := m.sidebarEntries()
	require.Len(t, entries, 2) // public + alice
	require.Equal(t, "u1", entries[1].id)
}

func TestEnterOnParticipantOpensDirectScope(t *testing.T) {
	ctrl := newFakeController()
	ctrl.online = []string{"bob"}
	m := NewModel(ctrl, Config{})
	m.focus = focusSidebar

	m.Update(key("down"))
	m.Update(key("enter"))

	require.Equal(t, []chat.Scope{chat.Direct("bob")}, ctrl.switched)
	require.Equal(t, focusInput, m.focus)
}

func TestEnterOnPublicReturnsToLobby(t *testing.T) {
	ctrl := newFakeController()
	ctrl.scope = chat.Direct("bob")
	ctrl.conversations = []string{"bob"}
	m := NewModel(ctrl, Config{})
	m.focus = focusSidebar
	m.sidebarIndex = 0

	m.Update(key("enter"))
	require.Equal(t, []chat.Scope{chat.Public()}, ctrl.switched)
}

func TestRemoveOnlyAppliesToConversationRows(t *testing.T) {
	ctrl := newFakeController()
	ctrl.conversations = []string{"alice"}
	ctrl.online = []string{"bob"}
	m := NewModel(ctrl, Config{})
	m.focus = focusSidebar

	// Public row: no-op.
	m.Update(key("x"))
	require.Empty(t, ctrl.removed)

	// Conversation row: removed.
	m.Update(key("down"))
	m.Update(key("x"))
	require.Equal(t, []string{"alice"}, ctrl.removed)

	// Participant row: no-op.
	m.sidebarIndex = 2
	m.Update(key("x"))
	require.Equal(t, []string{"alice"}, ctrl.removed)
}

func TestInputSendsOnEnterAndClears(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, Config{})

	typeString(m, "hello")
	require.Equal(t, "hello", m.input)

	m.Update(key("enter"))
	require.Equal(t, []string{"hello"}, ctrl.sent)
	require.Empty(t, m.input)
}

func TestInputKeepsTextWhenSendFails(t *testing.T) {
	ctrl := newFakeController()
	ctrl.sendErr = chat.ErrMessageTooLong
	m := NewModel(ctrl, Config{})

	typeString(m, "hi")
	m.Update(key("enter"))

	require.Equal(t, "hi", m.input, "failed input should stay editable")
	require.NotEmpty(t, m.statusLine)
}

func TestBlankInputIsNotSent(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, Config{})

	typeString(m, "   ")
	m.Update(key("enter"))
	require.Empty(t, ctrl.sent)
}

func TestEngineUpdateSurfacesSendFailure(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, Config{})

	_, cmd := m.Update(engineUpdateMsg{
		update: engine.Update{Kind: engine.UpdateSendFailed, Err: chat.ErrMessageTooLong},
		ok:     true,
	})
	require.NotNil(t, cmd, "the model should keep listening for updates")
	require.Contains(t, m.statusLine, chat.ErrMessageTooLong.Error())
}

func TestClosedUpdateChannelQuits(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, Config{})

	_, cmd := m.Update(engineUpdateMsg{ok: false})
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestViewRendersAllRegions(t *testing.T) {
	ctrl := newFakeController()
	ctrl.conversations = []string{"u1"}
	ctrl.unread = map[string]int{"u1": 3}
	ctrl.online = []string{"u1"}
	ctrl.participants = map[string]chat.Participant{
		"u1": {ID: "u1", Username: "alice", DisplayName: "Alice"},
	}
	ctrl.messages = []chat.Message{
		{ID: "m1", SenderID: "u1", SenderName: "Alice", Body: "hello there", CreatedAt: time.Now()},
		{ID: "local-1", SenderID: "me", SenderName: "Me", Body: "typing", CreatedAt: time.Now(), Provisional: true},
	}

	m := NewModel(ctrl, Config{ShowTimestamps: true})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	out := m.View()
	require.Contains(t, out, "RetroChat")
	require.Contains(t, out, "# general")
	require.Contains(t, out, "Alice")
	require.Contains(t, out, "(3)")
	require.Contains(t, out, "hello there")
	require.Contains(t, out, "connected")
}

func TestViewBeforeFirstResize(t *testing.T) {
	m := NewModel(newFakeController(), Config{})
	require.Equal(t, "loading...", m.View())
}
