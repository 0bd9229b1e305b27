// Package sidebar renders the workspace and session tree of the sessions view.
package sidebar

import (
	"fmt"
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/x/ansi"
)

// RowKind is the kind of a sidebar line
type RowKind int

const (
	RowWorkspace RowKind = iota
	RowSession
	RowArchivedHeader
	RowArchived
)

// Row is one selectable sidebar line
type Row struct {
	Kind        RowKind
	WorkspaceID string
	Workspace   domain.Workspace
	Session     domain.Session
	Count       int
}

// Rows flattens workspaces into sidebar lines: each workspace followed by its
// live sessions when expanded, then one archived section for all workspaces.
func Rows(workspaces []domain.Workspace) []Row {
	var rows []Row
	var archived []Row

	for _, ws := range workspaces {
		active := ws.ActiveSessions()
		rows = append(rows, Row{Kind: RowWorkspace, WorkspaceID: ws.ID, Workspace: ws, Count: len(active)})
		if ws.Expanded {
			for _, s := range active {
				rows = append(rows, Row{Kind: RowSession, WorkspaceID: ws.ID, Session: s})
			}
		}
		for _, s := range ws.ArchivedSessions() {
			archived = append(archived, Row{Kind: RowArchived, WorkspaceID: ws.ID, Workspace: ws, Session: s})
		}
	}

	if len(archived) > 0 {
		rows = append(rows, Row{Kind: RowArchivedHeader, Count: len(archived)})
		rows = append(rows, archived...)
	}
	return rows
}

// IndexOfSession returns the row showing sessionID, or -1
func IndexOfSession(rows []Row, sessionID string) int {
	for i, r := range rows {
		if (r.Kind == RowSession || r.Kind == RowArchived) && r.Session.ID == sessionID {
			return i
		}
	}
	return -1
}

// Render draws rows with the cursor line highlighted. activeID is the
// session currently selected in the store.
func Render(rows []Row, cursor int, activeID string, s *styles.Styles, width, height int) string {
	inner := max(8, width-4)

	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		line := ansi.Truncate(renderRow(r, activeID, s), inner, "…")
		if i == cursor {
			line = s.SessionCursor.Render(padRight(line, inner))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, s.Muted.Render("No workspaces. Run `aim add <path>`."))
	}

	// keep the cursor visible
	visible := max(1, height-2)
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(len(lines), start+visible)

	return s.Sidebar.Width(max(1, width-2)).Height(visible).Render(strings.Join(lines[start:end], "\n"))
}

func renderRow(r Row, activeID string, s *styles.Styles) string {
	switch r.Kind {
	case RowWorkspace:
		arrow := "▸"
		if r.Workspace.Expanded {
			arrow = "▾"
		}
		label := fmt.Sprintf("%s %s %s", arrow, r.Workspace.Name, s.Muted.Render(fmt.Sprintf("(%d)", r.Count)))
		if r.Workspace.Cloned {
			label += s.Muted.Render(" ⇣")
		}
		return s.WorkspaceHeader.Render(label)

	case RowArchivedHeader:
		return s.SectionHeader.Render(fmt.Sprintf("Archived (%d)", r.Count))

	case RowArchived:
		return "  " + s.Muted.Render(r.Session.Name+"  "+r.Workspace.Name)

	default:
		sess := r.Session
		icon := s.Status(sess.Status).Render(sess.Status.Icon())
		name := s.SessionRow.Render(sess.Name)
		if sess.ID == activeID {
			name = s.SessionActive.Render(sess.Name)
		}
		line := fmt.Sprintf("  %s %s", icon, name)
		if sess.Branch != "" {
			line += " " + s.Branch.Render(sess.Branch)
		}
		return line
	}
}

func padRight(line string, width int) string {
	if w := ansi.StringWidth(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}
