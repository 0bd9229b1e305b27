// Package status classifies raw agent signals into domain statuses.
package status

import (
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/charmbracelet/x/ansi"
)

// Pattern maps a literal marker in agent output to a status
type Pattern struct {
	Marker string
	Status domain.Status
}

// Patterns are checked in order; the first marker found wins.
var Patterns = []Pattern{
	// Prompt box and input cursor
	{"╭─", domain.StatusIdle},
	{"> ", domain.StatusIdle},

	// Spinner and thinking banner
	{"Thinking", domain.StatusThinking},
	{"◓", domain.StatusThinking},
	{"◑", domain.StatusThinking},
	{"◒", domain.StatusThinking},
	{"●", domain.StatusThinking},
}

// Detect returns the status implied by an output chunk given the current status.
// Escape sequences are stripped before matching. Output with no known marker
// moves an idle or stopped session to thinking; otherwise the status is kept.
func Detect(current domain.Status, chunk []byte) domain.Status {
	text := ansi.Strip(string(chunk))

	for _, p := range Patterns {
		if strings.Contains(text, p.Marker) {
			return p.Status
		}
	}

	if (current == domain.StatusIdle || current == domain.StatusStopped) && strings.TrimSpace(text) != "" {
		return domain.StatusThinking
	}
	return current
}
