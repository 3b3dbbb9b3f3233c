package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Dim      lipgloss.Style
	Cursor   lipgloss.Style
	Error    lipgloss.Style
	Loading  lipgloss.Style
	Detail   lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
	Selected lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Cursor:  lipgloss.NewStyle().Background(lipgloss.Color("238")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Loading: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Detail: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		Help:     lipgloss.NewStyle().Faint(true),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
	}
}
