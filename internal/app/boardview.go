package app

import (
	"errors"
	"fmt"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/kanban"
	"github.com/Benbentwo/aim/internal/types"
	"github.com/Benbentwo/aim/internal/ui/overlay"
	"github.com/Benbentwo/aim/internal/workflow"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type boardOpenedMsg struct {
	mode kanban.Mode
	// user marks opens started from a key press, which count as pending work
	user bool
	err  error
}

type workStartedMsg struct {
	run *workflow.Run
	err error
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.boardCursor.Column--
		m.boardCursor = m.boardCursor.Clamp(m.columns)
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.boardCursor.Column++
		m.boardCursor = m.boardCursor.Clamp(m.columns)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.boardCursor.Issue--
		m.boardCursor = m.boardCursor.Clamp(m.columns)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.boardCursor.Issue++
		m.boardCursor = m.boardCursor.Clamp(m.columns)
		return m, nil
	}

	if !m.connected {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.StartWork):
		issue, ok := m.boardCursor.Selected(m.columns)
		if !ok {
			return m, nil
		}
		if b, bound := m.deps.Bindings.Get(issue.ID); bound && len(b.SessionIDs) > 0 {
			m.view = types.ViewSessions
			m.selectSession(b.SessionIDs[0])
			m.addToast(types.ToastInfo, fmt.Sprintf("%s already has %d session(s)", issue.Identifier, len(b.SessionIDs)))
			return m, nil
		}
		return m, m.startWorkCmd(issue)

	case key.Matches(msg, m.keys.Refresh):
		return m.startOp(m.refreshBoardCmd())

	case key.Matches(msg, m.keys.CycleMode):
		mode, _ := m.deps.Board.Mode()
		if mode == kanban.ModeCycle {
			return m.startOp(m.openBoardCmd(kanban.ModeMyIssues, "", true))
		}
		if m.deps.TeamID == "" {
			m.addToast(types.ToastWarning, "Set a Linear team to use the cycle view")
			return m, nil
		}
		return m.startOp(m.openBoardCmd(kanban.ModeCycle, m.deps.TeamID, true))

	case key.Matches(msg, m.keys.FilterPriority):
		m.deps.Board.UpdateQuery(func(q *kanban.Query) { q.Filter.CyclePriority() })
	case key.Matches(msg, m.keys.FilterAssignee):
		m.deps.Board.UpdateQuery(func(q *kanban.Query) { q.Filter.CycleAssignee() })
	case key.Matches(msg, m.keys.FilterState):
		m.deps.Board.UpdateQuery(func(q *kanban.Query) { q.Filter.CycleStateType() })
	case key.Matches(msg, m.keys.FilterTeam):
		teams := kanban.TeamKeys(m.deps.Board.Snapshot().Issues)
		m.deps.Board.UpdateQuery(func(q *kanban.Query) { q.Filter.CycleTeam(teams) })
	case key.Matches(msg, m.keys.Sort):
		m.deps.Board.UpdateQuery(func(q *kanban.Query) { q.Sort = q.Sort.Next() })
	case key.Matches(msg, m.keys.ClearFilter):
		m.deps.Board.UpdateQuery(func(q *kanban.Query) { q.Filter.Clear() })
	}
	return m, nil
}

// boundIssues marks the issues that have work started
func (m Model) boundIssues() map[string]bool {
	bound := make(map[string]bool)
	if m.deps.Bindings == nil {
		return bound
	}
	for _, b := range m.deps.Bindings.All() {
		if len(b.SessionIDs) > 0 || b.Status == domain.BindingDetecting {
			bound[b.IssueID] = true
		}
	}
	return bound
}

func (m Model) openBoardCmd(mode kanban.Mode, teamID string, user bool) tea.Cmd {
	if m.deps.Board == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return boardOpenedMsg{mode: mode, user: user, err: m.deps.Board.Open(ctx, mode, teamID)}
	}
}

func (m Model) refreshBoardCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := m.deps.Board.Refresh(ctx); err != nil {
			return opResultMsg{op: "refresh", err: err}
		}
		return opResultMsg{op: "refresh", message: "Issues refreshed"}
	}
}

func (m Model) handleBoardOpened(msg boardOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.user {
		m.pending = max(0, m.pending-1)
	}
	switch {
	case errors.Is(msg.err, domain.ErrNotConnected):
		m.connected = false
	case msg.err != nil:
		m.connected = true
		m.logger.Warn("failed to open board", "mode", msg.mode, "error", msg.err)
		m.addToast(types.ToastError, "Issues: "+msg.err.Error())
	default:
		m.connected = true
		m.columns = m.deps.Board.Columns()
		m.boardCursor = m.boardCursor.Clamp(m.columns)
	}
	return m, nil
}

func (m Model) startWorkCmd(issue domain.Issue) tea.Cmd {
	notify := m.post
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		run, err := m.deps.Flow.StartWork(ctx, issue, func(workflow.State) {
			notify(workChangedMsg{})
		})
		return workStartedMsg{run: run, err: err}
	}
}

func (m Model) handleWorkStarted(msg workStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.addToast(types.ToastError, "Start work: "+msg.err.Error())
		return m, nil
	}
	var cmds []tea.Cmd
	if prev := m.run; prev != nil {
		cmds = append(cmds, cancelRunCmd(prev))
	}
	m.run = msg.run
	cmds = append(cmds, m.overlays.Push(overlay.NewStartWorkOverlay(msg.run.State())))
	return m, tea.Batch(cmds...)
}

// syncWorkOverlay pushes the run's latest state into the open overlay
func (m Model) syncWorkOverlay() tea.Cmd {
	if m.run == nil {
		return nil
	}
	cmd, _ := m.overlays.Send(overlay.WorkStateMsg{State: m.run.State()}, overlay.IsStartWork)
	return cmd
}

func (m Model) handleWorkSelection(msg overlay.SelectionMsg) (tea.Model, tea.Cmd) {
	run := m.run
	if run == nil {
		return m, nil
	}

	switch msg.Key {
	case overlay.StartWorkParse:
		run.Parse()
	case overlay.StartWorkManual:
		run.Skip()
	case overlay.StartWorkCancel:
		m.overlays.Pop()
		m.run = nil
		return m, cancelRunCmd(run)
	case overlay.StartWorkConfirm:
		repos, _ := msg.Value.([]string)
		identifier := run.State().Issue.Identifier
		return m.startOp(func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			if err := run.Confirm(ctx, repos); err != nil {
				return opResultMsg{op: "start work", err: err}
			}
			return opResultMsg{op: "start work", message: fmt.Sprintf("Started %d session(s) for %s", len(repos), identifier)}
		})
	}
	return m, nil
}

func cancelRunCmd(run *workflow.Run) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		run.Cancel(ctx)
		return nil
	}
}
