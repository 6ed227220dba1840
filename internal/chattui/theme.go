package chattui

import "github.com/charmbracelet/lipgloss"

// Theme defines the chat UI color tokens (ANSI-256 codes).
type Theme struct {
	Name string

	TitleBarBg   string
	TitleBarFg   string
	PanelBorder  string
	ActiveBorder string
	Foreground   string
	Muted        string
	Accent       string

	OwnSender   string
	OtherSender string
	Pending     string

	OnlineDot    string
	UnreadBadge  string
	SelectedItem string

	StatusOK       string
	StatusDegraded string
	StatusBad      string
}

// XPTheme mimics the old desktop messenger look: deep blue chrome,
// gray panels, green presence dots.
var XPTheme = Theme{
	Name:         "xp",
	TitleBarBg:   "25",
	TitleBarFg:   "231",
	PanelBorder:  "245",
	ActiveBorder: "33",
	Foreground:   "252",
	Muted:        "245",
	Accent:       "33",

	OwnSender:   "39",
	OtherSender: "141",
	Pending:     "245",

	OnlineDot:    "40",
	UnreadBadge:  "196",
	SelectedItem: "33",

	StatusOK:       "40",
	StatusDegraded: "220",
	StatusBad:      "196",
}

// PhosphorTheme is a green-on-black terminal palette.
var PhosphorTheme = Theme{
	Name:         "phosphor",
	TitleBarBg:   "22",
	TitleBarFg:   "120",
	PanelBorder:  "28",
	ActiveBorder: "46",
	Foreground:   "120",
	Muted:        "28",
	Accent:       "46",

	OwnSender:   "46",
	OtherSender: "84",
	Pending:     "28",

	OnlineDot:    "46",
	UnreadBadge:  "190",
	SelectedItem: "46",

	StatusOK:       "46",
	StatusDegraded: "190",
	StatusBad:      "160",
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"xp":       XPTheme,
	"phosphor": PhosphorTheme,
}

func themeByName(name string) Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return XPTheme
}

func (t Theme) titleBar() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.TitleBarFg)).
		Background(lipgloss.Color(t.TitleBarBg)).
		Bold(true).
		Padding(0, 1)
}

func (t Theme) panel(active bool) lipgloss.Style {
	border := t.PanelBorder
	if active {
		border = t.ActiveBorder
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(border))
}

func (t Theme) muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted))
}

func (t Theme) accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent))
}
