package chattui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"retrochat/internal/chat"
	"retrochat/internal/engine"
)

// Config holds cosmetic options for the UI.
type Config struct {
	Theme          string
	ShowTimestamps bool
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

type entryKind int

const (
	entryPublic entryKind = iota
	entryConversation
	entryParticipant
)

// sidebarEntry is one selectable row in the sidebar.
type sidebarEntry struct {
	kind entryKind
	id   string // participant id for conversation/participant rows
}

// engineUpdateMsg wraps one engine change notification.
type engineUpdateMsg struct {
	update engine.Update
	ok     bool
}

// Model is the root bubbletea model.
type Model struct {
	ctrl  Controller
	theme Theme

	showTimestamps bool

	width  int
	height int

	focus        focusArea
	input        string
	sidebarIndex int
	filter       string
	filtering    bool
	scroll       int
	statusLine   string
}

// NewModel builds the root model around a controller.
func NewModel(ctrl Controller, cfg Config) *Model {
	return &Model{
		ctrl:           ctrl,
		theme:          themeByName(cfg.Theme),
		showTimestamps: cfg.ShowTimestamps,
	}
}

// Run starts the terminal UI and blocks until it exits.
func Run(ctrl Controller, cfg Config) error {
	program := tea.NewProgram(NewModel(ctrl, cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate blocks on the engine's update channel and feeds the
// notification back into the bubbletea loop.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.ctrl.Updates()
		return engineUpdateMsg{update: update, ok: ok}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case engineUpdateMsg:
		if !typed.ok {
			return m, tea.Quit
		}
		if typed.update.Kind == engine.UpdateSendFailed && typed.update.Err != nil {
			m.statusLine = "send failed: " + typed.update.Err.Error()
		}
		m.clampSidebarIndex()
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m.handleKey(typed)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "esc":
		m.focus = focusSidebar
		return m, nil
	case "backspace", "ctrl+h":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil
	case "pgup":
		m.scroll++
		return m, nil
	case "pgdown":
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil
	case "enter":
		text := m.input
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if err := m.ctrl.Send(text); err != nil {
			m.statusLine = err.Error()
			return m, nil
		}
		m.input = ""
		m.statusLine = ""
		m.scroll = 0
		return m, nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
		m.input += string(msg.Runes)
		m.statusLine = ""
	}
	return m, nil
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filter = ""
			return m, nil
		case "enter":
			m.filtering = false
			return m, nil
		case "backspace", "ctrl+h":
			if len(m.filter) > 0 {
				runes := []rune(m.filter)
				m.filter = string(runes[:len(runes)-1])
			}
			m.clampSidebarIndex()
			return m, nil
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
			m.filter += string(msg.Runes)
			m.clampSidebarIndex()
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "esc":
		m.focus = focusInput
		return m, nil
	case "/":
		m.filtering = true
		m.filter = ""
		return m, nil
	case "r":
		m.ctrl.RefreshParticipants()
		return m, nil
	case "up", "k":
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil
	case "down", "j":
		if m.sidebarIndex < len(m.sidebarEntries())-1 {
			m.sidebarIndex++
		}
		return m, nil
	case "enter":
		return m.openSelected()
	case "x", "delete":
		return m.removeSelected()
	}
	return m, nil
}

// openSelected switches scope to the highlighted sidebar row. A
// participant row opens (and registers) a direct conversation.
func (m *Model) openSelected() (tea.Model, tea.Cmd) {
	entries := m.sidebarEntries()
	if m.sidebarIndex >= len(entries) {
		return m, nil
	}
	entry := entries[m.sidebarIndex]

	var scope chat.Scope
	switch entry.kind {
	case entryPublic:
		scope = chat.Public()
	case entryConversation, entryParticipant:
		if entry.id == m.ctrl.LocalID() {
			return m, nil
		}
		scope = chat.Direct(entry.id)
	}

	if err := m.ctrl.SwitchScope(scope); err != nil {
		m.statusLine = err.Error()
		return m, nil
	}
	m.focus = focusInput
	m.filter = ""
	m.scroll = 0
	m.statusLine = ""
	return m, nil
}

func (m *Model) removeSelected() (tea.Model, tea.Cmd) {
	entries := m.sidebarEntries()
	if m.sidebarIndex >= len(entries) {
		return m, nil
	}
	entry := entries[m.sidebarIndex]
	if entry.kind != entryConversation {
		return m, nil
	}
	if err := m.ctrl.RemoveConversation(entry.id); err != nil {
		m.statusLine = err.Error()
	}
	m.clampSidebarIndex()
	return m, nil
}

// sidebarEntries builds the selectable rows: the public channel, then
// active conversations, then everyone currently online. The filter
// narrows conversation and participant rows by display name.
func (m *Model) sidebarEntries() []sidebarEntry {
	entries := []sidebarEntry{{kind: entryPublic}}

	conversations := m.ctrl.Conversations()
	seen := make(map[string]struct{}, len(conversations))
	for _, peer := range conversations {
		if !m.matchesFilter(peer) {
			continue
		}
		entries = append(entries, sidebarEntry{kind: entryConversation, id: peer})
		seen[peer] = struct{}{}
	}

	online, _ := m.ctrl.Online()
	for _, id := range online {
		if id == m.ctrl.LocalID() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if !m.matchesFilter(id) {
			continue
		}
		entries = append(entries, sidebarEntry{kind: entryParticipant, id: id})
	}

	return entries
}

func (m *Model) matchesFilter(id string) bool {
	if m.filter == "" {
		return true
	}
	name := strings.ToLower(m.displayName(id))
	return strings.Contains(name, strings.ToLower(m.filter)) ||
		strings.Contains(strings.ToLower(id), strings.ToLower(m.filter))
}

func (m *Model) clampSidebarIndex() {
	n := len(m.sidebarEntries())
	if m.sidebarIndex >= n {
		m.sidebarIndex = n - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

// displayName resolves a participant id to something readable.
func (m *Model) displayName(id string) string {
	if p, ok := m.ctrl.Participants()[id]; ok {
		return p.Name()
	}
	return id
}
