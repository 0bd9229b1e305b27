package app

import (
	"fmt"

	"github.com/Benbentwo/aim/internal/terminal"
	"github.com/Benbentwo/aim/internal/types"
	"github.com/Benbentwo/aim/internal/ui/overlay"
	"github.com/Benbentwo/aim/internal/ui/sidebar"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Confirm dialog actions
const (
	actionDeleteArchived = "delete-archived"
	actionCloseSession   = "close-session"
)

type workspacesLoadedMsg struct {
	err error
}

type opResultMsg struct {
	op            string
	message       string
	selectSession string
	err           error
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	row, hasRow := m.currentRow()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if hasRow && row.Kind == sidebar.RowWorkspace {
			m.deps.Store.ToggleWorkspace(row.WorkspaceID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Attach):
		if !hasRow {
			return m, nil
		}
		switch row.Kind {
		case sidebar.RowWorkspace:
			m.deps.Store.ToggleWorkspace(row.WorkspaceID)
			return m, nil
		case sidebar.RowSession:
			m.deps.Store.SetActiveSession(row.Session.ID, row.WorkspaceID)
			return m, m.attachCmd(row.Session)
		case sidebar.RowArchived:
			m.addToast(types.ToastWarning, "Unarchive the session to attach")
		}
		return m, nil

	case key.Matches(msg, m.keys.NewSession):
		if !hasRow || row.WorkspaceID == "" {
			m.addToast(types.ToastWarning, "Select a workspace first")
			return m, nil
		}
		return m.startOp(m.instantSessionCmd(row.WorkspaceID))

	case key.Matches(msg, m.keys.CloseSess):
		if hasRow && row.Kind == sidebar.RowSession {
			dialog := overlay.NewConfirmDialog("Close session",
				fmt.Sprintf("Stop %q and discard its scrollback? The worktree is kept.", row.Session.Name),
				actionCloseSession, row.Session.ID)
			return m, m.overlays.Push(dialog)
		}
		return m, nil

	case key.Matches(msg, m.keys.Archive):
		if hasRow && row.Kind == sidebar.RowSession {
			return m.startOp(m.archiveCmd(row.Session.ID))
		}
		return m, nil

	case key.Matches(msg, m.keys.Unarchive):
		if hasRow && row.Kind == sidebar.RowArchived {
			return m.startOp(m.unarchiveCmd(row.Session.ID))
		}
		return m, nil

	case key.Matches(msg, m.keys.OpenLink):
		if hasRow && (row.Kind == sidebar.RowSession || row.Kind == sidebar.RowArchived) {
			return m.startOp(m.openLinkCmd(row.Session.ID))
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if hasRow && row.Kind == sidebar.RowArchived {
			dialog := overlay.NewConfirmDialog("Delete session",
				fmt.Sprintf("Permanently delete %q and its scrollback?", row.Session.Name),
				actionDeleteArchived, row.Session.ID)
			return m, m.overlays.Push(dialog)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) currentRow() (sidebar.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return sidebar.Row{}, false
	}
	return m.rows[m.cursor], true
}

// refreshRows rebuilds the sidebar, keeping the cursor on the same session
// or workspace when it still exists
func (m *Model) refreshRows() {
	if m.deps.Store == nil {
		return
	}
	prev, hadPrev := m.currentRow()
	m.rows = sidebar.Rows(m.deps.Store.Workspaces())

	if hadPrev {
		for i, r := range m.rows {
			if r.Kind == prev.Kind && r.WorkspaceID == prev.WorkspaceID && r.Session.ID == prev.Session.ID {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
}

// selectSession moves the cursor to sessionID when its row is visible
func (m *Model) selectSession(sessionID string) {
	m.refreshRows()
	if idx := sidebar.IndexOfSession(m.rows, sessionID); idx >= 0 {
		m.cursor = idx
	}
}

func (m Model) loadWorkspacesCmd() tea.Cmd {
	if m.deps.Workspaces == nil || m.deps.Store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		workspaces, err := m.deps.Workspaces.List(ctx)
		if err != nil {
			return workspacesLoadedMsg{err: err}
		}
		m.deps.Store.ReplaceAll(workspaces)
		return workspacesLoadedMsg{}
	}
}

func (m Model) instantSessionCmd(workspaceID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		session, err := m.deps.Instant.CreateInstant(ctx, workspaceID)
		if err != nil {
			return opResultMsg{op: "new session", err: err}
		}
		return opResultMsg{
			op:            "new session",
			message:       "Started " + session.Name,
			selectSession: session.ID,
		}
	}
}

func (m Model) archiveCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := m.deps.Sessions.Archive(ctx, id); err != nil {
			return opResultMsg{op: "archive", err: err}
		}
		m.deps.Store.ArchiveSession(id)
		m.deps.Lifecycle.Forget(id)
		return opResultMsg{op: "archive", message: "Session archived"}
	}
}

func (m Model) unarchiveCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := m.deps.Sessions.Unarchive(ctx, id); err != nil {
			return opResultMsg{op: "unarchive", err: err}
		}
		m.deps.Store.UnarchiveSession(id)
		return opResultMsg{op: "unarchive", message: "Session restored", selectSession: id}
	}
}

func (m Model) deleteArchivedCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := m.deps.Sessions.DeleteArchived(ctx, id); err != nil {
			return opResultMsg{op: "delete", err: err}
		}
		m.deps.Store.DeleteArchivedSession(id)
		return opResultMsg{op: "delete", message: "Session deleted"}
	}
}

func (m Model) openLinkCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		link, err := terminal.OpenLastLink(ctx, m.deps.Sessions, id, m.deps.Opener)
		if err != nil {
			return opResultMsg{op: "open link", err: err}
		}
		return opResultMsg{op: "open link", message: "Opened " + link}
	}
}

func (m Model) closeSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := m.deps.Sessions.Close(ctx, id); err != nil {
			return opResultMsg{op: "close", err: err}
		}
		m.deps.Store.RemoveSession(id)
		m.deps.Lifecycle.Forget(id)
		return opResultMsg{op: "close", message: "Session closed"}
	}
}
