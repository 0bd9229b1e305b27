package app

import (
	"fmt"
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/types"
	"github.com/Benbentwo/aim/internal/ui/board"
	dashview "github.com/Benbentwo/aim/internal/ui/dashboard"
	"github.com/Benbentwo/aim/internal/ui/sidebar"
	"github.com/Benbentwo/aim/internal/ui/statusbar"
	"github.com/Benbentwo/aim/internal/ui/toast"
	"github.com/charmbracelet/lipgloss"
)

// View renders the model
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	tabs := m.renderTabs()
	status := statusbar.New(m.view, m.width, m.styles).WithInfo(m.statusInfo()).Render()
	toasts := toast.New(m.styles).Render(m.toasts, m.width)

	bodyHeight := m.height - lipgloss.Height(tabs) - lipgloss.Height(status)
	if toasts != "" {
		bodyHeight -= lipgloss.Height(toasts)
	}
	bodyHeight = max(1, bodyHeight)

	var body string
	if !m.overlays.IsEmpty() {
		body = m.renderOverlay(bodyHeight)
	} else {
		body = m.renderBody(bodyHeight)
	}
	body = lipgloss.NewStyle().
		Width(m.width).MaxWidth(m.width).
		Height(bodyHeight).MaxHeight(bodyHeight).
		Render(body)

	parts := []string{tabs, body}
	if toasts != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toasts))
	}
	parts = append(parts, status)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTabs() string {
	tabs := []string{m.styles.PanelTitle.Render("aim")}
	for _, v := range types.Views {
		label := " " + v.String() + " "
		if v == m.view {
			tabs = append(tabs, m.styles.StatusMode.Render(label))
		} else {
			tabs = append(tabs, m.styles.Muted.Render(label))
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(1).Render(strings.Join(tabs, " "))
}

func (m Model) renderBody(height int) string {
	switch m.view {
	case types.ViewBoard:
		return m.renderBoard(height)
	case types.ViewDashboard:
		return dashview.Render(m.metrics, m.styles, m.width, height)
	default:
		return m.renderSessions(height)
	}
}

func (m Model) renderSessions(height int) string {
	sidebarWidth := min(40, max(24, m.width/3))
	activeID := ""
	if m.deps.Store != nil {
		activeID, _ = m.deps.Store.Active()
	}

	left := sidebar.Render(m.rows, m.cursor, activeID, m.styles, sidebarWidth, height)
	detailWidth := max(10, m.width-sidebarWidth)
	right := m.styles.Panel.
		Width(max(1, detailWidth-2)).
		Height(max(1, height-2)).
		MaxHeight(height).
		Render(m.renderDetail())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderDetail() string {
	row, ok := m.currentRow()
	if !ok {
		return m.styles.Muted.Render("Add a workspace with `aim add <path>`, then press n to start a session.")
	}

	switch row.Kind {
	case sidebar.RowWorkspace:
		ws := row.Workspace
		lines := []string{
			m.styles.PanelTitle.Render(ws.Name),
			field(m, "path", ws.Path),
			field(m, "agent", string(ws.Agent)),
			field(m, "sessions", fmt.Sprintf("%d active, %d archived", len(ws.ActiveSessions()), len(ws.ArchivedSessions()))),
			"",
			m.styles.Muted.Render("n: new session  space: expand/collapse"),
		}
		return strings.Join(lines, "\n")

	case sidebar.RowArchivedHeader:
		return m.styles.Muted.Render(fmt.Sprintf("%d archived session(s). u: unarchive  D: delete", row.Count))

	default:
		return m.sessionDetail(row.Session, row.Kind == sidebar.RowArchived)
	}
}

func (m Model) sessionDetail(s domain.Session, archived bool) string {
	lines := []string{
		m.styles.PanelTitle.Render(s.Name),
		field(m, "status", m.styles.Status(s.Status).Render(s.Status.Icon()+" "+string(s.Status))),
		field(m, "agent", string(s.Agent)),
		field(m, "directory", s.Directory),
	}
	if s.WorktreePath != "" {
		lines = append(lines, field(m, "worktree", s.WorktreePath))
	}
	if s.Branch != "" {
		lines = append(lines, field(m, "branch", m.styles.Branch.Render(s.Branch)))
	}
	if m.deps.Bindings != nil {
		if b, ok := m.deps.Bindings.ForSession(s.ID); ok {
			lines = append(lines, field(m, "issue", b.IssueIdentifier))
		}
	}
	if m.deps.Dashboard != nil {
		for _, sm := range m.metrics.Sessions {
			if sm.SessionID == s.ID {
				lines = append(lines, field(m, "thinking", dashview.FormatDuration(sm.ThinkingTime)))
				if sm.Stuck {
					lines = append(lines, m.styles.Stuck.Render("waiting for input for "+dashview.FormatDuration(m.now().Sub(sm.WaitingSince))))
				}
				break
			}
		}
	}

	lines = append(lines, "")
	switch {
	case archived:
		when := ""
		if s.ArchivedAt != nil {
			when = " " + s.ArchivedAt.Format("2006-01-02 15:04")
		}
		lines = append(lines, m.styles.Muted.Render("archived"+when+"  u: unarchive  D: delete"))
	case s.Status.Live():
		lines = append(lines, m.styles.Muted.Render("enter: attach (ctrl+] detaches)  o: open link  a: archive  x: close"))
	default:
		lines = append(lines, m.styles.Muted.Render("enter: resume and attach  a: archive  x: close"))
	}
	return strings.Join(lines, "\n")
}

func field(m Model, label, value string) string {
	return m.styles.StatLabel.Render(fmt.Sprintf("%-10s", label)) + " " + value
}

func (m Model) renderBoard(height int) string {
	if !m.connected || m.deps.Board == nil {
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			m.styles.Muted.Render("Linear is not connected. Set a Linear API key in settings or AIM_LINEAR_API_KEY."))
	}

	mode, _ := m.deps.Board.Mode()
	header := lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(1).
		Render(board.Header(mode, m.deps.Board.Query(), m.deps.Board.Polling(), m.styles))
	if len(m.columns) == 0 {
		return header + "\n" + m.styles.Muted.Render("No issues.")
	}
	columns := board.Render(m.columns, m.boardCursor, m.boundIssues(), m.styles, m.width, max(1, height-1))
	return lipgloss.JoinVertical(lipgloss.Left, header, columns)
}

func (m Model) renderOverlay(height int) string {
	current := m.overlays.Current()
	view := current.View()
	if title := current.Title(); title != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, m.styles.OverlayTitle.Render(title), view)
	}

	w, h := current.Size()
	box := m.styles.Overlay
	if w > 0 {
		box = box.Width(min(w, m.width-4))
	}
	if h > 0 {
		box = box.Height(min(h, max(1, height-2)))
	}
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, box.MaxHeight(height).Render(view))
}

func (m Model) statusInfo() string {
	var parts []string
	if m.pending > 0 {
		parts = append(parts, m.spinner.View()+" working")
	}
	if m.deps.Store != nil {
		live := 0
		for _, s := range m.deps.Store.Sessions() {
			if !s.Archived && s.Status.Live() {
				live++
			}
		}
		parts = append(parts, fmt.Sprintf("%d live", live))
	}
	if n := len(m.metrics.Stuck); n > 0 {
		parts = append(parts, fmt.Sprintf("%d stuck", n))
	}
	return strings.Join(parts, "  ")
}
