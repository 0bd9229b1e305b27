// Package types contains shared types used across the application.
package types

// View is the top-level screen shown by the TUI
type View int

const (
	ViewSessions View = iota
	ViewBoard
	ViewDashboard
)

// Views lists the views in tab order
var Views = []View{ViewSessions, ViewBoard, ViewDashboard}

// Next returns the view after v, wrapping around
func (v View) Next() View {
	return Views[(int(v)+1)%len(Views)]
}

// String returns the label shown in the status bar
func (v View) String() string {
	switch v {
	case ViewSessions:
		return "SESSIONS"
	case ViewBoard:
		return "BOARD"
	case ViewDashboard:
		return "DASHBOARD"
	default:
		return "UNKNOWN"
	}
}
