// Package statusbar renders the bottom line of the TUI.
package statusbar

import (
	"github.com/Benbentwo/aim/internal/types"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar represents the status bar at the bottom of the TUI
type StatusBar struct {
	view   types.View
	width  int
	info   string
	styles *styles.Styles
}

// New creates a new StatusBar with the given view, width, and styles
func New(view types.View, width int, styles *styles.Styles) StatusBar {
	return StatusBar{
		view:   view,
		width:  width,
		styles: styles,
	}
}

// WithInfo sets text shown after the hints, such as a spinner or polling state
func (sb StatusBar) WithInfo(info string) StatusBar {
	sb.info = info
	return sb
}

// Render renders the status bar as a string
func (sb StatusBar) Render() string {
	badge := sb.styles.StatusMode.Render(sb.view.String())

	parts := []string{badge}
	separator := sb.styles.StatusHint.Render(" │ ")
	if hints := GetHints(sb.view); hints != "" {
		parts = append(parts, separator, sb.styles.StatusHint.Render(hints))
	}
	if sb.info != "" {
		parts = append(parts, separator, sb.styles.StatusInfo.Render(sb.info))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Left, parts...)
	return sb.styles.StatusBar.Width(sb.width).MaxHeight(1).Render(content)
}
