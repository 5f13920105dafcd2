package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/steady/pkg/model"
)

var (
	accent      = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#8BC34A"}
	muted       = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	border      = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
	danger      = lipgloss.Color("#E53935")
	warning     = lipgloss.Color("#FFC107")
	information = lipgloss.Color("#2196F3")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	warnStyle   = lipgloss.NewStyle().Foreground(warning)
	okStyle     = lipgloss.NewStyle().Foreground(accent)
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder()).BorderForeground(accent)
)

func priorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return cellStyle.Foreground(danger)
	case model.PriorityMedium:
		return cellStyle.Foreground(warning)
	case model.PriorityLow:
		return cellStyle.Foreground(information)
	default:
		return cellStyle
	}
}
