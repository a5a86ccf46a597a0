package report

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}

	okStyle     = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(warningColor)
	codeStyle   = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	pathStyle   = lipgloss.NewStyle().Bold(true)
	detailStyle = lipgloss.NewStyle().PaddingLeft(4)
	addStyle    = lipgloss.NewStyle().Foreground(successColor)
	delStyle    = lipgloss.NewStyle().Foreground(errorColor)
)
