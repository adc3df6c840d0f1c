package render

import "github.com/charmbracelet/lipgloss"

// Tokyo Night inspired color palette.
var (
	colorPrimary = lipgloss.Color("#7aa2f7") // Blue
	colorSuccess = lipgloss.Color("#9ece6a") // Green
	colorWarning = lipgloss.Color("#e0af68") // Yellow
	colorError   = lipgloss.Color("#f7768e") // Red
	colorMuted   = lipgloss.Color("#565f89") // Gray
	colorFg      = lipgloss.Color("#c0caf5") // Foreground
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	textStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	verifiedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	debunkedStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	uncertainStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	otherLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)
)

// LabelStyle returns the terminal style for a verdict label. Labels
// outside the core set (free-text overrides) get the neutral accent.
func LabelStyle(label string) lipgloss.Style {
	switch label {
	case "VERIFIED", "TRUE":
		return verifiedStyle
	case "DEBUNKED", "FALSE":
		return debunkedStyle
	case "UNCERTAIN", "UNVERIFIED", "MISLEADING":
		return uncertainStyle
	default:
		return otherLabelStyle
	}
}
