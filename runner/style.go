package runner

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors of console output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Added   lipgloss.Color
	Removed lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the standard theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Added:   lipgloss.Color("#3fb950"),
	Removed: lipgloss.Color("#f85149"),
	Error:   lipgloss.Color("#ff5f87"),
}

// Styles are the rendered styles derived from a Theme.
type Styles struct {
	Prompt  lipgloss.Style
	Label   lipgloss.Style
	Header  lipgloss.Style
	Tool    lipgloss.Style
	Added   lipgloss.Style
	Removed lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles binds the theme to w; writers that are not terminals render
// without escape codes.
func NewStyles(w io.Writer, t Theme) Styles {
	r := lipgloss.NewRenderer(w)

	return Styles{
		Prompt:  r.NewStyle().Bold(true),
		Label:   r.NewStyle().Bold(true).Foreground(t.Primary),
		Header:  r.NewStyle().Bold(true).Foreground(t.Primary),
		Tool:    r.NewStyle().Foreground(t.Dim),
		Added:   r.NewStyle().Foreground(t.Added),
		Removed: r.NewStyle().Foreground(t.Removed),
		Error:   r.NewStyle().Bold(true).Foreground(t.Error),
	}
}
