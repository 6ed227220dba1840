package chattui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"retrochat/internal/chat"
	"retrochat/internal/engine"
)

const (
	sidebarWidth  = 24
	minPaneWidth  = 20
	chromeHeight  = 4 // title bar, input bar, status bar, spacing
	publicChannel = "# general"
)

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}

	title := m.renderTitleBar()
	status := m.renderStatusBar()
	input := m.renderInputBar()

	bodyHeight := m.height - lipgloss.Height(title) - lipgloss.Height(status) - lipgloss.Height(input)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	sidebar := m.renderSidebar(bodyHeight)
	pane := m.renderMessagePane(bodyHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, pane)
	return lipgloss.JoinVertical(lipgloss.Left, title, body, input, status)
}

func (m *Model) renderTitleBar() string {
	scope := m.ctrl.Scope()
	label := publicChannel
	if scope.IsDirect() {
		label = "@ " + m.displayName(scope.Other())
	}

	left := "RetroChat - " + label
	right := m.ctrl.DisplayName()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return m.theme.titleBar().Width(m.width).Render(line)
}

// renderSidebar draws the channel, conversation, and online sections.
func (m *Model) renderSidebar(height int) string {
	width := sidebarWidth
	if m.width < sidebarWidth+minPaneWidth {
		width = m.width / 3
	}

	unread := m.ctrl.Unread()
	ids, presenceValid := m.ctrl.Online()
	online := make(map[string]bool, len(ids))
	for _, id := range ids {
		online[id] = true
	}

	entries := m.sidebarEntries()
	var lines []string
	section := ""
	for i, entry := range entries {
		if s := m.sectionFor(entry.kind); s != section {
			section = s
			lines = append(lines, m.theme.muted().Render(section))
		}
		lines = append(lines, m.renderSidebarEntry(entry, i == m.sidebarIndex && m.focus == focusSidebar, unread, online, width-4))
	}

	if !presenceValid {
		lines = append(lines, "", m.theme.muted().Render("presence syncing..."))
	}
	if m.filtering || m.filter != "" {
		lines = append(lines, "", m.theme.accent().Render("/"+m.filter))
	}

	content := strings.Join(lines, "\n")
	return m.theme.panel(m.focus == focusSidebar).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)
}

func (m *Model) sectionFor(kind entryKind) string {
	switch kind {
	case entryPublic:
		return "CHANNELS"
	case entryConversation:
		return "CONVERSATIONS"
	default:
		return "ONLINE"
	}
}

func (m *Model) renderSidebarEntry(entry sidebarEntry, selected bool, unread map[string]int, online map[string]bool, width int) string {
	var label string
	switch entry.kind {
	case entryPublic:
		label = publicChannel
	default:
		dot := " "
		if online[entry.id] {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.OnlineDot)).Render("*")
		}
		label = dot + " " + m.displayName(entry.id)
		if n := unread[entry.id]; n > 0 {
			badge := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.UnreadBadge)).
				Bold(true).
				Render(fmt.Sprintf("(%d)", n))
			label += " " + badge
		}
	}

	prefix := "  "
	if selected {
		prefix = "> "
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.SelectedItem)).
			Bold(true).
			Render(prefix + label)
	}
	return prefix + label
}

// renderMessagePane draws the visible timeline, newest at the bottom.
func (m *Model) renderMessagePane(height int) string {
	width := m.width - sidebarWidth
	if width < minPaneWidth {
		width = minPaneWidth
	}
	innerWidth := width - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	var lines []string
	for _, msg := range m.ctrl.Messages() {
		lines = append(lines, m.renderMessage(msg, innerWidth)...)
	}

	visible := height - 2
	if visible < 1 {
		visible = 1
	}

	// Anchor to the bottom, offset by the scroll position.
	end := len(lines) - m.scroll*visible
	if end > len(lines) {
		end = len(lines)
	}
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}

	content := strings.Join(lines[start:end], "\n")
	return m.theme.panel(m.focus == focusInput).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)
}

func (m *Model) renderMessage(msg chat.Message, width int) []string {
	senderColor := m.theme.OtherSender
	if msg.SenderID == m.ctrl.LocalID() {
		senderColor = m.theme.OwnSender
	}

	sender := lipgloss.NewStyle().
		Foreground(lipgloss.Color(senderColor)).
		Bold(true).
		Render(m.senderName(msg))

	header := sender
	if m.showTimestamps {
		ts := m.theme.muted().Render(msg.CreatedAt.Local().Format("15:04"))
		header = ts + " " + sender
	}

	body := msg.Body
	if msg.Provisional {
		body += " ..."
	}
	wrapped := wordwrap.String(body, width)

	bodyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Foreground))
	if msg.Provisional {
		bodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Pending)).Faint(true)
	}

	lines := []string{header}
	for _, line := range strings.Split(wrapped, "\n") {
		lines = append(lines, bodyStyle.Render("  "+line))
	}
	return lines
}

func (m *Model) senderName(msg chat.Message) string {
	if msg.SenderName != "" {
		return msg.SenderName
	}
	return m.displayName(msg.SenderID)
}

func (m *Model) renderInputBar() string {
	prompt := m.theme.accent().Render("> ")
	cursor := " "
	if m.focus == focusInput {
		cursor = lipgloss.NewStyle().Reverse(true).Render(" ")
	}
	return prompt + m.input + cursor
}

func (m *Model) renderStatusBar() string {
	status := m.ctrl.ConnectionStatus()
	color := m.theme.StatusBad
	switch status {
	case engine.StatusConnected:
		color = m.theme.StatusOK
	case engine.StatusDegraded, engine.StatusConnecting:
		color = m.theme.StatusDegraded
	}
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("*")

	left := dot + " " + string(status)
	if m.statusLine != "" {
		left += "  " + lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.UnreadBadge)).
			Render(m.statusLine)
	}

	help := "tab: focus  enter: send/open  /: search  x: remove  q: quit"
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		gap = 1
	}
	return m.theme.muted().Render(left + strings.Repeat(" ", gap) + help)
}
