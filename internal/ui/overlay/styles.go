package overlay

import (
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all overlay-specific styles
type Styles struct {
	MenuItem       lipgloss.Style
	MenuItemActive lipgloss.Style
	MenuKey        lipgloss.Style
	MenuHeader     lipgloss.Style
	Checked        lipgloss.Style
	Muted          lipgloss.Style
	Error          lipgloss.Style
	Footer         lipgloss.Style
}

// New creates overlay styles from the shared palette
func New() *Styles {
	return &Styles{
		MenuItem: lipgloss.NewStyle().
			Foreground(styles.Text),

		MenuItemActive: lipgloss.NewStyle().
			Foreground(styles.Blue).
			Bold(true),

		MenuKey: lipgloss.NewStyle().
			Foreground(styles.Yellow).
			Bold(true),

		MenuHeader: lipgloss.NewStyle().
			Foreground(styles.Sapphire).
			Bold(true),

		Checked: lipgloss.NewStyle().
			Foreground(styles.Green),

		Muted: lipgloss.NewStyle().
			Foreground(styles.Overlay0),

		Error: lipgloss.NewStyle().
			Foreground(styles.Red),

		Footer: lipgloss.NewStyle().
			Foreground(styles.Subtext0).
			MarginTop(1),
	}
}
