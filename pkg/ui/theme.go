package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors for light and dark terminals. Light mode colors are tuned
// for contrast on white backgrounds.
var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// Theme bundles the styles the view composes from.
type Theme struct {
	Title     lipgloss.Style
	StatusBar lipgloss.Style
	Stats     lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Vertex    lipgloss.Style
	Edge      lipgloss.Style
	Label     lipgloss.Style
	InputBox  lipgloss.Style
}

// DefaultTheme returns the standard adaptive theme.
func DefaultTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		StatusBar: lipgloss.NewStyle().
			Foreground(ColorSubtext),
		Stats: lipgloss.NewStyle().
			Foreground(ColorInfo),
		Error: lipgloss.NewStyle().
			Foreground(ColorDanger).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Vertex: lipgloss.NewStyle().
			Foreground(ColorSuccess),
		Edge: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Label: lipgloss.NewStyle().
			Foreground(ColorSubtext),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1),
	}
}
