package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedColumnStyle = columnStyle.BorderForeground(lipgloss.Color("63"))

	cardStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cardStyle.Reverse(true)
	grabbedStyle  = cardStyle.Background(lipgloss.Color("63")).Foreground(lipgloss.Color("230"))
	dropStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	levelStyles = map[string]lipgloss.Style{
		"success": lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)
