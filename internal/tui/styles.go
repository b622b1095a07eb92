package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	status    lipgloss.Style
	userLabel lipgloss.Style
	botLabel  lipgloss.Style
	userText  lipgloss.Style
	typing    lipgloss.Style
	help      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		userLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		botLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		userText:  lipgloss.NewStyle(),
		typing:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
