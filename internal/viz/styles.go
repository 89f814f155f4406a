package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899")).
		Width(14)

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffaa00"))

	// heat shades from cold to hot
	Cold = lipgloss.NewStyle().Foreground(lipgloss.Color("#4477ff"))
	Warm = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	Hot  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// KV renders one aligned label/value line.
func KV(label, value string) string {
	return Label.Render(label) + Value.Render(value)
}

// Box renders a titled panel around lines.
func Box(title string, lines ...string) string {
	body := strings.Join(lines, "\n")
	return Panel.Render(Title.Render(title) + "\n" + body)
}

func Separator(width int) string {
	if width < 7 {
		width = 7
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
