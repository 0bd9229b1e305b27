// Package styles holds the lipgloss palette and the shared styles of the TUI.
package styles

import (
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the UI styles
type Styles struct {
	// Sidebar
	Sidebar         lipgloss.Style
	WorkspaceHeader lipgloss.Style
	WorkspaceActive lipgloss.Style
	SessionRow      lipgloss.Style
	SessionActive   lipgloss.Style
	SessionCursor   lipgloss.Style
	SectionHeader   lipgloss.Style
	Branch          lipgloss.Style
	Muted           lipgloss.Style

	// Board
	Column             lipgloss.Style
	ColumnHeader       lipgloss.Style
	ColumnHeaderActive lipgloss.Style
	Card               lipgloss.Style
	CardActive         lipgloss.Style
	CardBound          lipgloss.Style
	IssueID            lipgloss.Style
	IssueTitle         lipgloss.Style
	LabelBadge         lipgloss.Style

	// Badges
	PriorityBadge func(priority int) lipgloss.Style

	// Dashboard
	Panel      lipgloss.Style
	PanelTitle lipgloss.Style
	Stat       lipgloss.Style
	StatLabel  lipgloss.Style
	Stuck      lipgloss.Style

	// Status bar
	StatusBar  lipgloss.Style
	StatusMode lipgloss.Style
	StatusHint lipgloss.Style
	StatusInfo lipgloss.Style

	// Overlays
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style

	// Toasts
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style
}

// New creates a new Styles instance with Catppuccin Macchiato theme
func New() *Styles {
	return &Styles{
		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Padding(0, 1),

		WorkspaceHeader: lipgloss.NewStyle().
			Foreground(Subtext1).
			Bold(true),

		WorkspaceActive: lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true),

		SessionRow: lipgloss.NewStyle().
			Foreground(Text),

		SessionActive: lipgloss.NewStyle().
			Foreground(Lavender).
			Bold(true),

		SessionCursor: lipgloss.NewStyle().
			Background(Surface0),

		SectionHeader: lipgloss.NewStyle().
			Foreground(Overlay1).
			Italic(true),

		Branch: lipgloss.NewStyle().
			Foreground(Teal),

		Muted: lipgloss.NewStyle().
			Foreground(Overlay0),

		Column: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Padding(0, 1),

		ColumnHeader: lipgloss.NewStyle().
			Foreground(Subtext0).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1),

		ColumnHeaderActive: lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1),

		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Padding(0, 1),

		CardActive: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Lavender).
			Padding(0, 1),

		CardBound: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Teal).
			Padding(0, 1),

		IssueID: lipgloss.NewStyle().
			Foreground(Overlay1).
			Bold(true),

		IssueTitle: lipgloss.NewStyle().
			Foreground(Text),

		LabelBadge: lipgloss.NewStyle().
			Foreground(Subtext0).
			Background(Surface1).
			Padding(0, 1),

		PriorityBadge: func(priority int) lipgloss.Style {
			color := PriorityColors[max(0, min(priority, len(PriorityColors)-1))]
			return lipgloss.NewStyle().
				Foreground(Base).
				Background(color).
				Padding(0, 1).
				Bold(true)
		},

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Padding(0, 1),

		PanelTitle: lipgloss.NewStyle().
			Foreground(Subtext1).
			Bold(true),

		Stat: lipgloss.NewStyle().
			Foreground(Text).
			Bold(true),

		StatLabel: lipgloss.NewStyle().
			Foreground(Subtext0),

		Stuck: lipgloss.NewStyle().
			Foreground(Red).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Background(Surface0).
			Foreground(Subtext0).
			Padding(0, 1),

		StatusMode: lipgloss.NewStyle().
			Background(Blue).
			Foreground(Base).
			Bold(true).
			Padding(0, 1),

		StatusHint: lipgloss.NewStyle().
			Foreground(Overlay1),

		StatusInfo: lipgloss.NewStyle().
			Foreground(Subtext0),

		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Background(Base).
			Padding(1, 2),

		OverlayTitle: lipgloss.NewStyle().
			Foreground(Text).
			Bold(true).
			MarginBottom(1),

		ToastInfo: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Blue).
			Foreground(Blue).
			Padding(0, 1),

		ToastSuccess: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Foreground(Green).
			Padding(0, 1),

		ToastWarning: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Yellow).
			Foreground(Yellow).
			Padding(0, 1),

		ToastError: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Foreground(Red).
			Padding(0, 1),
	}
}

// Status returns the foreground style for a session status
func (s *Styles) Status(status domain.Status) lipgloss.Style {
	color, ok := StatusColors[status]
	if !ok {
		color = Subtext0
	}
	return lipgloss.NewStyle().Foreground(color)
}

// StateType returns the header style for an issue state type
func (s *Styles) StateType(t domain.StateType) lipgloss.Style {
	color, ok := StateTypeColors[t]
	if !ok {
		color = Subtext0
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
