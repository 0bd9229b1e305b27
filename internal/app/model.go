// Package app implements the aim terminal UI.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/dashboard"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/kanban"
	"github.com/Benbentwo/aim/internal/services/worktree"
	"github.com/Benbentwo/aim/internal/store"
	"github.com/Benbentwo/aim/internal/terminal"
	"github.com/Benbentwo/aim/internal/types"
	"github.com/Benbentwo/aim/internal/ui/board"
	"github.com/Benbentwo/aim/internal/ui/overlay"
	"github.com/Benbentwo/aim/internal/ui/sidebar"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/Benbentwo/aim/internal/workflow"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// notifyBuffer bounds pending change signals; extra signals are coalesced
const notifyBuffer = 16

const (
	tickInterval = time.Second
	opTimeout    = 30 * time.Second
)

// Deps are the services the UI drives
type Deps struct {
	Store      *store.Store
	Sessions   backend.Sessions
	Workspaces backend.Workspaces
	Instant    *worktree.SessionService
	Lifecycle  *worktree.Lifecycle
	Board      *kanban.Board
	Bindings   *kanban.Bindings
	Flow       *workflow.Flow
	Dashboard  *dashboard.Aggregator
	Bus        *events.Bus
	Opener     terminal.Opener

	// TeamID selects the team shown in cycle mode
	TeamID string
	Logger *slog.Logger
}

// Model is the root bubbletea model
type Model struct {
	deps   Deps
	keys   keyMap
	styles *styles.Styles
	logger *slog.Logger
	now    func() time.Time

	view   types.View
	width  int
	height int

	rows   []sidebar.Row
	cursor int

	columns     []kanban.Column
	boardCursor board.Cursor
	connected   bool

	metrics dashboard.Data

	toasts   []types.Toast
	spinner  spinner.Model
	pending  int
	overlays *overlay.Stack
	run      *workflow.Run

	notify  chan tea.Msg
	cleanup []func()
}

// Change signals posted from service callbacks. They carry no state: the
// model re-reads its sources when one arrives.
type (
	storeChangedMsg   struct{}
	boardChangedMsg   struct{}
	metricsChangedMsg struct{}
	workChangedMsg    struct{}
)

type tickMsg time.Time

// New creates the model and registers change listeners on the services
func New(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.New().StatusInfo

	m := Model{
		deps:     deps,
		keys:     defaultKeyMap(),
		styles:   styles.New(),
		logger:   logger,
		now:      time.Now,
		spinner:  s,
		overlays: overlay.NewStack(),
		notify:   make(chan tea.Msg, notifyBuffer),
	}

	if deps.Store != nil {
		m.cleanup = append(m.cleanup, deps.Store.OnChange(func() { m.post(storeChangedMsg{}) }))
		m.rows = sidebar.Rows(deps.Store.Workspaces())
	}
	if deps.Board != nil {
		deps.Board.OnChange(func() { m.post(boardChangedMsg{}) })
		m.cleanup = append(m.cleanup, func() { deps.Board.OnChange(nil) })
		m.columns = deps.Board.Columns()
	}
	if deps.Bus != nil {
		sub := deps.Bus.Subscribe(events.MetricsUpdated, "", func(any) { m.post(metricsChangedMsg{}) })
		m.cleanup = append(m.cleanup, sub.Unsubscribe)
	}
	if deps.Dashboard != nil {
		m.metrics = deps.Dashboard.Data()
	}
	return m
}

// Close removes the listeners registered by New
func (m Model) Close() {
	for _, fn := range m.cleanup {
		fn()
	}
}

// post delivers a change signal without blocking the caller
func (m Model) post(msg tea.Msg) {
	select {
	case m.notify <- msg:
	default:
	}
}

func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.notify
	}
}

// Init starts the background commands
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.listen(),
		tickEvery(tickInterval),
		m.loadWorkspacesCmd(),
		m.openBoardCmd(kanban.ModeMyIssues, "", false),
	)
}

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.toasts = types.Expire(m.toasts, m.now())
		return m, tickEvery(tickInterval)

	case tea.KeyMsg:
		if !m.overlays.IsEmpty() {
			return m, m.overlays.Update(msg)
		}
		return m.handleKey(msg)

	case storeChangedMsg:
		m.refreshRows()
		return m, m.listen()

	case boardChangedMsg:
		if m.deps.Board != nil {
			m.columns = m.deps.Board.Columns()
			m.boardCursor = m.boardCursor.Clamp(m.columns)
		}
		return m, m.listen()

	case metricsChangedMsg:
		if m.deps.Dashboard != nil {
			m.metrics = m.deps.Dashboard.Data()
		}
		return m, m.listen()

	case workChangedMsg:
		cmd := m.syncWorkOverlay()
		return m, tea.Batch(cmd, m.listen())

	case overlay.CloseOverlayMsg:
		if _, ok := m.overlays.Pop().(*overlay.StartWorkOverlay); ok {
			m.run = nil
		}
		return m, nil

	case overlay.SelectionMsg:
		return m.handleSelection(msg)

	case boardOpenedMsg:
		return m.handleBoardOpened(msg)

	case workStartedMsg:
		return m.handleWorkStarted(msg)

	case opResultMsg:
		m.pending = max(0, m.pending-1)
		if msg.err != nil {
			m.logger.Warn("operation failed", "op", msg.op, "error", msg.err)
			m.addToast(types.ToastError, msg.op+": "+msg.err.Error())
		} else if msg.message != "" {
			m.addToast(types.ToastSuccess, msg.message)
		}
		if msg.selectSession != "" {
			m.selectSession(msg.selectSession)
		}
		return m, nil

	case workspacesLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("failed to load workspaces", "error", msg.err)
			m.addToast(types.ToastError, "Load workspaces: "+msg.err.Error())
		}
		return m, nil

	case attachDoneMsg:
		return m.handleAttachDone(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		return m, m.overlays.Push(overlay.NewHelpOverlay(m.keys.categories()))
	case key.Matches(msg, m.keys.NextView):
		m.view = m.view.Next()
		return m, nil
	}

	switch m.view {
	case types.ViewSessions:
		return m.handleSessionsKey(msg)
	case types.ViewBoard:
		return m.handleBoardKey(msg)
	}
	return m, nil
}

func (m Model) handleSelection(msg overlay.SelectionMsg) (tea.Model, tea.Cmd) {
	switch msg.Key {
	case overlay.StartWorkParse, overlay.StartWorkManual, overlay.StartWorkCancel, overlay.StartWorkConfirm:
		return m.handleWorkSelection(msg)
	}

	if result, ok := msg.Value.(overlay.ConfirmResult); ok {
		m.overlays.Pop()
		if !result.Confirmed {
			return m, nil
		}
		id, _ := result.Payload.(string)
		switch result.Action {
		case actionDeleteArchived:
			return m.startOp(m.deleteArchivedCmd(id))
		case actionCloseSession:
			return m.startOp(m.closeSessionCmd(id))
		}
	}
	return m, nil
}

// startOp runs cmd while the spinner shows pending work
func (m Model) startOp(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if cmd == nil {
		return m, nil
	}
	m.pending++
	return m, cmd
}

func (m *Model) addToast(level types.ToastLevel, message string) {
	m.toasts = append(m.toasts, types.NewToast(level, message, m.now()))
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}
