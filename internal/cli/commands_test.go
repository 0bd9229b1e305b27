package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWorkspaces struct {
	list    []domain.Workspace
	added   []backend.AddWorkspaceRequest
	addErr  error
	preview string
}

func (m *mockWorkspaces) List(context.Context) ([]domain.Workspace, error) { return m.list, nil }

func (m *mockWorkspaces) Add(_ context.Context, req backend.AddWorkspaceRequest) (domain.Workspace, error) {
	m.added = append(m.added, req)
	if m.addErr != nil {
		return domain.Workspace{}, m.addErr
	}
	path := req.Path
	if req.RepoURL != "" {
		path = m.preview
	}
	return domain.Workspace{ID: "ws-1", Name: "api", Path: path, Agent: req.Agent}, nil
}

func (m *mockWorkspaces) Remove(context.Context, string) error { return nil }

func (m *mockWorkspaces) PreviewCloneDestination(repoURL, baseDir string) (string, error) {
	return m.preview, nil
}

type mockSessions struct {
	backend.Sessions
	calls []string
	err   error
}

func (m *mockSessions) Archive(_ context.Context, id string) error {
	m.calls = append(m.calls, "archive "+id)
	return m.err
}

func (m *mockSessions) Unarchive(_ context.Context, id string) error {
	m.calls = append(m.calls, "unarchive "+id)
	return m.err
}

type mockTracker struct {
	connected bool
	snap      domain.IssueSnapshot
	cycleTeam string
}

func (m *mockTracker) IsConnected() bool { return m.connected }
func (m *mockTracker) Me(context.Context) (domain.User, error) {
	return domain.User{ID: "u1", Name: "Ada"}, nil
}
func (m *mockTracker) Teams(context.Context) ([]domain.Team, error) { return nil, nil }
func (m *mockTracker) MyIssues(context.Context) (domain.IssueSnapshot, error) {
	return m.snap, nil
}
func (m *mockTracker) CycleIssues(_ context.Context, teamID string) (domain.IssueSnapshot, error) {
	m.cycleTeam = teamID
	return m.snap, nil
}
func (m *mockTracker) StartPolling(string, time.Duration) {}
func (m *mockTracker) StopPolling()                       {}

func TestListCommand(t *testing.T) {
	var out bytes.Buffer
	ws := &mockWorkspaces{list: []domain.Workspace{
		{ID: "w1", Name: "api", Sessions: []domain.Session{
			{ID: "s1", Name: "fix login", Status: domain.StatusThinking, Branch: "aim/linear/eng-1"},
			{ID: "s2", Name: "old", Status: domain.StatusStopped, Archived: true},
		}},
		{ID: "w2", Name: "web"},
	}}

	err := ListCommand(context.Background(), &Dependencies{Workspaces: ws, Out: &out})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "WORKSPACE")
	assert.Contains(t, text, "fix login")
	assert.Contains(t, text, "aim/linear/eng-1")
	assert.Contains(t, text, "archived")
	assert.Contains(t, text, "web")
}

func TestListCommand_Empty(t *testing.T) {
	var out bytes.Buffer
	err := ListCommand(context.Background(), &Dependencies{Workspaces: &mockWorkspaces{}, Out: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No workspaces")
}

func TestAddCommand(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantURL string
		wantDir string
	}{
		{name: "local path", target: "/src/api", wantDir: "/src/api"},
		{name: "ssh url", target: "git@github.com:acme/api.git", wantURL: "git@github.com:acme/api.git"},
		{name: "https url", target: "https://github.com/acme/api", wantURL: "https://github.com/acme/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ws := &mockWorkspaces{preview: "/repos/acme/api"}
			deps := &Dependencies{Workspaces: ws, ReposBaseDir: "/repos", Out: &out}

			err := AddCommand(context.Background(), deps, tt.target, AddOptions{Name: "api", Agent: "codex"})
			require.NoError(t, err)
			require.Len(t, ws.added, 1)

			req := ws.added[0]
			assert.Equal(t, tt.wantURL, req.RepoURL)
			assert.Equal(t, tt.wantDir, req.Path)
			assert.Equal(t, domain.AgentCodex, req.Agent)
			assert.Equal(t, "/repos", req.ReposBaseDir)
			if tt.wantURL != "" {
				assert.Contains(t, out.String(), "Cloning")
			}
			assert.Contains(t, out.String(), "Added workspace api")
		})
	}
}

func TestAddCommand_Errors(t *testing.T) {
	deps := &Dependencies{Workspaces: &mockWorkspaces{addErr: domain.ErrNotGitRepo}, Out: &bytes.Buffer{}}

	err := AddCommand(context.Background(), deps, "/tmp/nope", AddOptions{})
	assert.ErrorIs(t, err, domain.ErrNotGitRepo)

	err = AddCommand(context.Background(), deps, "  ", AddOptions{})
	assert.Error(t, err)
}

func TestIssuesCommand(t *testing.T) {
	started := domain.State{ID: "st-1", Name: "In Progress", Type: domain.StateStarted}
	todo := domain.State{ID: "st-2", Name: "Todo", Type: domain.StateUnstarted}
	tracker := &mockTracker{connected: true, snap: domain.IssueSnapshot{Issues: []domain.Issue{
		{ID: "i1", Identifier: "ENG-1", Title: "Fix login", Priority: domain.PriorityUrgent, State: started, Assignee: &domain.User{ID: "u1", Name: "Ada"}},
		{ID: "i2", Identifier: "ENG-2", Title: "Add search", Priority: domain.PriorityLow, State: todo},
	}}}

	t.Run("my issues", func(t *testing.T) {
		var out bytes.Buffer
		err := IssuesCommand(context.Background(), &Dependencies{Tracker: tracker, Out: &out}, IssuesOptions{})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "In Progress (1)")
		assert.Contains(t, text, "Todo (1)")
		assert.Contains(t, text, "ENG-1")
		assert.Contains(t, text, "Urgent")
		assert.Contains(t, text, "Ada")
	})

	t.Run("cycle falls back to configured team", func(t *testing.T) {
		var out bytes.Buffer
		deps := &Dependencies{Tracker: tracker, TeamID: "team-9", Out: &out}
		err := IssuesCommand(context.Background(), deps, IssuesOptions{Cycle: true})
		require.NoError(t, err)
		assert.Equal(t, "team-9", tracker.cycleTeam)
	})

	t.Run("cycle without team", func(t *testing.T) {
		err := IssuesCommand(context.Background(), &Dependencies{Tracker: tracker, Out: &bytes.Buffer{}}, IssuesOptions{Cycle: true})
		assert.Error(t, err)
	})

	t.Run("not connected", func(t *testing.T) {
		err := IssuesCommand(context.Background(), &Dependencies{Tracker: &mockTracker{}, Out: &bytes.Buffer{}}, IssuesOptions{})
		assert.ErrorIs(t, err, domain.ErrNotConnected)
	})
}

func TestArchiveCommands(t *testing.T) {
	var out bytes.Buffer
	sessions := &mockSessions{}
	deps := &Dependencies{Sessions: sessions, Out: &out}

	require.NoError(t, ArchiveCommand(context.Background(), deps, "s1"))
	require.NoError(t, UnarchiveCommand(context.Background(), deps, "s1"))
	assert.Equal(t, []string{"archive s1", "unarchive s1"}, sessions.calls)
	assert.Contains(t, out.String(), "Archived s1")
	assert.Contains(t, out.String(), "Restored s1")

	sessions.err = &domain.BackendError{Op: "archive", ID: "s2", Err: domain.ErrNotFound}
	err := ArchiveCommand(context.Background(), deps, "s2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestWidth_NonTerminal(t *testing.T) {
	assert.Equal(t, defaultWidth, Width(&bytes.Buffer{}))
}

func TestPrintUsage(t *testing.T) {
	var out bytes.Buffer
	PrintUsage(&out)
	assert.Contains(t, out.String(), "aim add <path|url>")
}
