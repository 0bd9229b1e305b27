package styles

import (
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Macchiato palette
var (
	// Base colors
	Base     = lipgloss.Color("#24273a")
	Mantle   = lipgloss.Color("#1e2030")
	Crust    = lipgloss.Color("#181926")
	Surface0 = lipgloss.Color("#363a4f")
	Surface1 = lipgloss.Color("#494d64")
	Surface2 = lipgloss.Color("#5b6078")
	Overlay0 = lipgloss.Color("#6e738d")
	Overlay1 = lipgloss.Color("#8087a2")
	Subtext0 = lipgloss.Color("#a5adcb")
	Subtext1 = lipgloss.Color("#b8c0e0")
	Text     = lipgloss.Color("#cad3f5")

	// Accent colors
	Mauve    = lipgloss.Color("#c6a0f6")
	Red      = lipgloss.Color("#ed8796")
	Peach    = lipgloss.Color("#f5a97f")
	Yellow   = lipgloss.Color("#eed49f")
	Green    = lipgloss.Color("#a6da95")
	Teal     = lipgloss.Color("#8bd5ca")
	Sapphire = lipgloss.Color("#7dc4e4")
	Blue     = lipgloss.Color("#8aadf4")
	Lavender = lipgloss.Color("#b7bdf8")
)

// PriorityColors is indexed by tracker priority (0 = none, 1 = urgent ... 4 = low)
var PriorityColors = []lipgloss.Color{
	Overlay0,
	Red,
	Peach,
	Yellow,
	Green,
}

// StatusColors maps session status to colors
var StatusColors = map[domain.Status]lipgloss.Color{
	domain.StatusIdle:     Subtext0,
	domain.StatusThinking: Blue,
	domain.StatusWaiting:  Yellow,
	domain.StatusStopped:  Overlay0,
	domain.StatusErrored:  Red,
}

// StateTypeColors maps issue state types to column header colors
var StateTypeColors = map[domain.StateType]lipgloss.Color{
	domain.StateTriage:    Mauve,
	domain.StateBacklog:   Overlay1,
	domain.StateUnstarted: Subtext1,
	domain.StateStarted:   Yellow,
	domain.StateCompleted: Green,
	domain.StateCanceled:  Overlay0,
}
