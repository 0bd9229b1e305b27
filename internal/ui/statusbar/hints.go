package statusbar

import "github.com/Benbentwo/aim/internal/types"

// GetHints returns the keybinding hints for the given view
func GetHints(view types.View) string {
	switch view {
	case types.ViewSessions:
		return "j/k: move  Enter: attach  n: new  a/u: archive  D: delete  Tab: view  ?: help  q: quit"
	case types.ViewBoard:
		return "h/l: columns  j/k: issues  w: start work  p/o/s/t: filter  S: sort  r: refresh  Tab: view"
	case types.ViewDashboard:
		return "Tab: view  ?: help  q: quit"
	default:
		return ""
	}
}
