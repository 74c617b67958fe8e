package tui

import "github.com/charmbracelet/lipgloss"

// Terminal palette, matching the site's dark terminal modal.
var (
	colorBackground = lipgloss.Color("#111827")
	colorBorder     = lipgloss.Color("#374151")
	colorPrompt     = lipgloss.Color("#34d399")
	colorPath       = lipgloss.Color("#60a5fa")
	colorText       = lipgloss.Color("#d1d5db")
	colorMuted      = lipgloss.Color("#6b7280")
	colorScore      = lipgloss.Color("#fbbf24")
)

// Styles holds the rendered styles of the terminal.
type Styles struct {
	Header     lipgloss.Style
	Score      lipgloss.Style
	Output     lipgloss.Style
	Prompt     lipgloss.Style
	Path       lipgloss.Style
	Input      lipgloss.Style
	Suggestion lipgloss.Style
	Muted      lipgloss.Style
}

// DefaultStyles returns the dark terminal styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBackground).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorBorder).
			Bold(true),
		Score:      lipgloss.NewStyle().Foreground(colorScore).Bold(true),
		Output:     lipgloss.NewStyle().Foreground(colorText),
		Prompt:     lipgloss.NewStyle().Foreground(colorPrompt).Bold(true),
		Path:       lipgloss.NewStyle().Foreground(colorPath),
		Input:      lipgloss.NewStyle().Foreground(colorText),
		Suggestion: lipgloss.NewStyle().Foreground(colorText).Background(colorBorder).Padding(0, 1),
		Muted:      lipgloss.NewStyle().Foreground(colorMuted),
	}
}
