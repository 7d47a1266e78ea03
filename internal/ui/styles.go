package ui

import "github.com/charmbracelet/lipgloss"

// Lipgloss Styles
var (
	docStyle     = lipgloss.NewStyle().Margin(0, 1)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	speakerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
