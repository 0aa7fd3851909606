package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tfmusic/workflow-assistant/internal/storage"
)

var (
	metricLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#9a9a9a"})

	metricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#f5f5f5"})

	metricBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7d56f4")).
			Padding(0, 1).
			MarginRight(1)

	projectTypeHelp = "A: >$100k, B: >$25k, C: <$25k"
)

// RenderMetrics draws the four project figures side by side.
func RenderMetrics(m storage.Metrics, width int) string {
	boxWidth := 18
	if width > 0 {
		if w := width/4 - 3; w > 12 && w < boxWidth {
			boxWidth = w
		}
	}

	box := func(label, value string) string {
		return metricBoxStyle.Width(boxWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				metricLabelStyle.Render(label),
				metricValueStyle.Render(value),
			),
		)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("Project Type", m.ProjectType),
		box("Budget", m.Budget),
		box("Payout", m.Payout),
		box("Margin", m.Margin),
	)
}
