package session

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	agent      lipgloss.Style
	phase      lipgloss.Style
	detail     lipgloss.Style
	insight    lipgloss.Style
	errored    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	metricKey  lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		agent:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		phase:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		insight:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		errored:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		metricKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
