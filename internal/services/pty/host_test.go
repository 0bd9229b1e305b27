package pty

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	mu    sync.Mutex
	input bytes.Buffer
	cols  int
	rows  int

	exit     chan int
	exitOnce sync.Once
}

func newFakeProcess() *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{outR: r, outW: w, exit: make(chan int, 1)}
}

func (p *fakeProcess) Read(b []byte) (int, error) { return p.outR.Read(b) }

func (p *fakeProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input.Write(b)
}

func (p *fakeProcess) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.rows = cols, rows
	return nil
}

func (p *fakeProcess) Wait() int { return <-p.exit }

func (p *fakeProcess) Kill() error {
	p.Exit(-1)
	return nil
}

func (p *fakeProcess) Close() error { return p.outR.Close() }

func (p *fakeProcess) Exit(code int) {
	p.exitOnce.Do(func() { p.exit <- code })
}

func (p *fakeProcess) Emit(s string) {
	_, _ = p.outW.Write([]byte(s))
}

func (p *fakeProcess) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input.String()
}

type fakeLauncher struct {
	mu    sync.Mutex
	specs []LaunchSpec
	procs []*fakeProcess
	err   error
}

func (l *fakeLauncher) Launch(spec LaunchSpec) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p := newFakeProcess()
	l.specs = append(l.specs, spec)
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *fakeLauncher) last() (*fakeProcess, LaunchSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[len(l.procs)-1], l.specs[len(l.specs)-1]
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

type fakeWorktrees struct {
	mu      sync.Mutex
	created []string
	removed []string
	renamed map[string]string
	err     error
}

func (w *fakeWorktrees) Create(ctx context.Context, repoPath, branch string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	path := repoPath + "/.git/aim-worktrees/" + branch
	w.created = append(w.created, path)
	return path, nil
}

func (w *fakeWorktrees) Remove(ctx context.Context, repoPath, worktreePath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed = append(w.removed, worktreePath)
	return nil
}

func (w *fakeWorktrees) RenameBranch(ctx context.Context, worktreePath, branch string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.renamed == nil {
		w.renamed = make(map[string]string)
	}
	w.renamed[worktreePath] = branch
	return nil
}

type recorder struct {
	mu       sync.Mutex
	statuses []string
	data     []string
	exits    []int
	branches []string
}

func (r *recorder) watch(bus *events.Bus, id string) {
	bus.Subscribe(events.SessionStatus, id, func(p any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.statuses = append(r.statuses, p.(string))
	})
	bus.Subscribe(events.SessionData, id, func(p any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.data = append(r.data, p.(string))
	})
	bus.Subscribe(events.SessionExit, id, func(p any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.exits = append(r.exits, p.(int))
	})
	bus.Subscribe(events.SessionBranch, id, func(p any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.branches = append(r.branches, p.(string))
	})
}

func (r *recorder) snapshot() (statuses, data []string, exits []int, branches []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...),
		append([]string(nil), r.data...),
		append([]int(nil), r.exits...),
		append([]string(nil), r.branches...)
}

type hostFixture struct {
	host      *Host
	bus       *events.Bus
	launcher  *fakeLauncher
	worktrees *fakeWorktrees
	dir       string
}

func newHostFixture(t *testing.T) *hostFixture {
	t.Helper()

	dir := t.TempDir()
	bus := events.New(nil)
	launcher := &fakeLauncher{}
	worktrees := &fakeWorktrees{}

	n := 0
	host := NewHost(bus, worktrees, Options{
		DataDir:      dir,
		Shell:        "/bin/sh",
		TickInterval: 5 * time.Millisecond,
		Launcher:     launcher,
		NewID: func() string {
			n++
			return fmt.Sprintf("s%d", n)
		},
	}, nil)
	t.Cleanup(host.Shutdown)

	return &hostFixture{host: host, bus: bus, launcher: launcher, worktrees: worktrees, dir: dir}
}

func TestHost_Create(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()

	s, err := f.host.Create(ctx, backend.SessionConfig{
		Name:        "api",
		Agent:       domain.AgentCodex,
		Directory:   "/repo",
		WorkspaceID: "ws1",
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "ws1", s.WorkspaceID)
	assert.Equal(t, domain.StatusIdle, s.Status)
	assert.Empty(t, s.WorktreePath)

	_, spec := f.launcher.last()
	assert.Equal(t, "/repo", spec.Dir)
	assert.Equal(t, "/bin/sh", spec.Path)
	assert.Equal(t, []string{"-l", "-c", "codex"}, spec.Args)
	assert.Contains(t, spec.Env, "AIM_SESSION_ID=s1")

	persisted, err := NewPersister(f.dir).Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "api", persisted[0].Name)
}

func TestHost_CreateDefaults(t *testing.T) {
	f := newHostFixture(t)

	s, err := f.host.Create(context.Background(), backend.SessionConfig{Directory: "/src/web"})
	require.NoError(t, err)
	assert.Equal(t, "web", s.Name)
	assert.Equal(t, domain.AgentClaude, s.Agent)
}

func TestHost_CreateRequiresDirectory(t *testing.T) {
	f := newHostFixture(t)

	_, err := f.host.Create(context.Background(), backend.SessionConfig{Name: "x"})
	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "create", be.Op)
	assert.Equal(t, 0, f.launcher.count())
}

func TestHost_CreateWithWorktree(t *testing.T) {
	f := newHostFixture(t)

	s, err := f.host.Create(context.Background(), backend.SessionConfig{
		Directory:   "/repo",
		UseWorktree: true,
		Branch:      "tmp-abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, "/repo/.git/aim-worktrees/tmp-abc123", s.WorktreePath)
	assert.Equal(t, "/repo", s.Directory)

	_, spec := f.launcher.last()
	assert.Equal(t, s.WorktreePath, spec.Dir)
}

func TestHost_CreateSpawnFailureRemovesWorktree(t *testing.T) {
	f := newHostFixture(t)
	f.launcher.err = errors.New("no such file")

	_, err := f.host.Create(context.Background(), backend.SessionConfig{
		Directory:   "/repo",
		UseWorktree: true,
		Branch:      "tmp-abc123",
	})
	require.Error(t, err)

	assert.Equal(t, []string{"/repo/.git/aim-worktrees/tmp-abc123"}, f.worktrees.removed)
	assert.Empty(t, f.host.List())
}

func TestHost_CreateWorktreeFailure(t *testing.T) {
	f := newHostFixture(t)
	f.worktrees.err = errors.New("git worktree add failed")

	_, err := f.host.Create(context.Background(), backend.SessionConfig{
		Directory:   "/repo",
		UseWorktree: true,
		Branch:      "tmp-abc123",
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.launcher.count())
	assert.Empty(t, f.host.List())
}

func TestHost_OutputStreamsAndDrivesStatus(t *testing.T) {
	f := newHostFixture(t)
	rec := &recorder{}
	rec.watch(f.bus, "s1")

	_, err := f.host.Create(context.Background(), backend.SessionConfig{Directory: "/repo"})
	require.NoError(t, err)
	proc, _ := f.launcher.last()

	proc.Emit("Thinking about it")

	require.Eventually(t, func() bool {
		_, data, _, _ := rec.snapshot()
		return len(data) == 1
	}, time.Second, 5*time.Millisecond)

	statuses, data, _, _ := rec.snapshot()
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("Thinking about it")), data[0])
	assert.Contains(t, statuses, string(domain.StatusThinking))

	s, ok := f.host.Get("s1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusThinking, s.Status)

	back, err := f.host.Scrollback(context.Background(), "s1")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(back)
	require.NoError(t, err)
	assert.Equal(t, "Thinking about it", string(raw))
}

func TestHost_WriteAndResize(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()

	_, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo"})
	require.NoError(t, err)
	proc, _ := f.launcher.last()

	require.NoError(t, f.host.Write(ctx, "s1", "hello\r"))
	assert.Equal(t, "hello\r", proc.Input())

	require.NoError(t, f.host.Resize(ctx, "s1", 100, 30))
	proc.mu.Lock()
	assert.Equal(t, 100, proc.cols)
	assert.Equal(t, 30, proc.rows)
	proc.mu.Unlock()

	err = f.host.Write(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, f.host.Resize(ctx, "missing", 80, 24))
}

func TestHost_ExitStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want domain.Status
	}{
		{"clean exit stops", 0, domain.StatusStopped},
		{"failure errors", 2, domain.StatusErrored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHostFixture(t)
			rec := &recorder{}
			rec.watch(f.bus, "s1")

			_, err := f.host.Create(context.Background(), backend.SessionConfig{Directory: "/repo"})
			require.NoError(t, err)
			proc, _ := f.launcher.last()

			proc.Exit(tt.code)

			require.Eventually(t, func() bool {
				_, _, exits, _ := rec.snapshot()
				return len(exits) == 1
			}, time.Second, 5*time.Millisecond)

			statuses, _, exits, _ := rec.snapshot()
			assert.Equal(t, tt.code, exits[0])
			assert.Equal(t, string(tt.want), statuses[len(statuses)-1])

			s, _ := f.host.Get("s1")
			assert.Equal(t, tt.want, s.Status)
			assert.Error(t, f.host.Write(context.Background(), "s1", "x"))
		})
	}
}

func TestHost_ExitBeforeStoreAddIsNotLost(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()

	st := store.New()
	st.ReplaceAll([]domain.Workspace{{ID: "ws1", Name: "api", Path: "/repo"}})
	follower := store.Follow(st, f.bus, f.host, nil)
	defer follower.Stop()

	s, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo", WorkspaceID: "ws1"})
	require.NoError(t, err)
	proc, _ := f.launcher.last()
	proc.Emit("zsh: command not found: claude\r\n")
	proc.Exit(127)

	require.Eventually(t, func() bool {
		got, _ := f.host.Get(s.ID)
		return got.Status == domain.StatusErrored
	}, time.Second, 5*time.Millisecond)

	st.AddSession(s)

	got, ok := st.Session(s.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusErrored, got.Status)
}

func TestHost_ResumeRespawns(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()
	rec := &recorder{}
	rec.watch(f.bus, "s1")

	_, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo"})
	require.NoError(t, err)
	proc, _ := f.launcher.last()
	proc.Exit(0)

	require.Eventually(t, func() bool {
		s, _ := f.host.Get("s1")
		return s.Status == domain.StatusStopped
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.host.Resume(ctx, "s1"))
	assert.Equal(t, 2, f.launcher.count())

	s, _ := f.host.Get("s1")
	assert.Equal(t, domain.StatusIdle, s.Status)

	statuses, _, _, _ := rec.snapshot()
	assert.Equal(t, string(domain.StatusIdle), statuses[len(statuses)-1])

	// already live
	require.NoError(t, f.host.Resume(ctx, "s1"))
	assert.Equal(t, 2, f.launcher.count())

	assert.ErrorIs(t, f.host.Resume(ctx, "missing"), domain.ErrNotFound)
}

func TestHost_Close(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()

	_, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo", UseWorktree: true, Branch: "aim/x"})
	require.NoError(t, err)

	require.NoError(t, f.host.Close(ctx, "s1"))
	assert.Empty(t, f.host.List())
	assert.Empty(t, f.worktrees.removed)

	require.NoError(t, f.host.Close(ctx, "s1"))
}

func TestHost_RenameBranch(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()
	rec := &recorder{}
	rec.watch(f.bus, "s1")

	s, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo", UseWorktree: true, Branch: "tmp-abc123"})
	require.NoError(t, err)

	require.NoError(t, f.host.RenameBranch(ctx, "s1", "aim/add-tests"))

	got, _ := f.host.Get("s1")
	assert.Equal(t, "aim/add-tests", got.Branch)
	assert.Equal(t, "aim/add-tests", got.Name)
	assert.Equal(t, "aim/add-tests", f.worktrees.renamed[s.WorktreePath])

	_, _, _, branches := rec.snapshot()
	assert.Equal(t, []string{"aim/add-tests"}, branches)
}

func TestHost_RenameBranchWithoutWorktree(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()

	_, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo", Branch: "main"})
	require.NoError(t, err)

	require.NoError(t, f.host.RenameBranch(ctx, "s1", "aim/other"))
	got, _ := f.host.Get("s1")
	assert.Equal(t, "main", got.Branch)
	assert.Empty(t, f.worktrees.renamed)

	assert.ErrorIs(t, f.host.RenameBranch(ctx, "missing", "aim/x"), domain.ErrNotFound)
}

func TestHost_ArchiveLifecycle(t *testing.T) {
	f := newHostFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.host.opts.Now = func() time.Time { return now }

	_, err := f.host.Create(ctx, backend.SessionConfig{Directory: "/repo", UseWorktree: true, Branch: "aim/x"})
	require.NoError(t, err)

	err = f.host.DeleteArchived(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, f.host.Archive(ctx, "s1"))
	s, _ := f.host.Get("s1")
	assert.True(t, s.Archived)
	require.NotNil(t, s.ArchivedAt)
	assert.Equal(t, now, *s.ArchivedAt)
	assert.Equal(t, domain.StatusStopped, s.Status)
	assert.Error(t, f.host.Write(ctx, "s1", "x"))
	assert.ErrorIs(t, f.host.Resume(ctx, "s1"), domain.ErrConflict)

	require.NoError(t, f.host.Unarchive(ctx, "s1"))
	s, _ = f.host.Get("s1")
	assert.False(t, s.Archived)
	assert.Nil(t, s.ArchivedAt)

	require.NoError(t, f.host.Archive(ctx, "s1"))
	require.NoError(t, f.host.DeleteArchived(ctx, "s1"))
	assert.Equal(t, []string{"/repo/.git/aim-worktrees/aim/x"}, f.worktrees.removed)
	assert.Empty(t, f.host.List())
}

func TestHost_LoadRestoresStopped(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir)
	require.NoError(t, p.Save([]domain.Session{
		{ID: "a", Name: "one", Directory: "/repo", Status: domain.StatusThinking},
		{ID: "b", Name: "two", Directory: "/repo", Status: domain.StatusIdle, Archived: true},
	}))
	require.NoError(t, p.AppendScrollback("a", []byte("previous output")))

	host := NewHost(events.New(nil), &fakeWorktrees{}, Options{DataDir: dir, Launcher: &fakeLauncher{}}, nil)
	require.NoError(t, host.Load())

	list := host.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	for _, s := range list {
		assert.Equal(t, domain.StatusStopped, s.Status)
	}

	back, err := host.Scrollback(context.Background(), "a")
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(back)
	assert.Equal(t, "previous output", string(raw))

	_, err = host.Scrollback(context.Background(), "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHost_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	old := now.Add(-10 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	dir := t.TempDir()
	require.NoError(t, NewPersister(dir).Save([]domain.Session{
		{ID: "old", Directory: "/repo", WorktreePath: "/wt/old", Archived: true, ArchivedAt: &old},
		{ID: "recent", Directory: "/repo", WorktreePath: "/wt/recent", Archived: true, ArchivedAt: &recent},
		{ID: "live", Directory: "/repo", WorktreePath: "/wt/live"},
	}))

	wt := &fakeWorktrees{}
	host := NewHost(events.New(nil), wt, Options{
		DataDir:  dir,
		Launcher: &fakeLauncher{},
		Now:      func() time.Time { return now },
	}, nil)
	require.NoError(t, host.Load())

	cleaned := host.Sweep(context.Background(), 7*24*time.Hour)
	assert.Equal(t, []string{"old"}, cleaned)
	assert.Equal(t, []string{"/wt/old"}, wt.removed)

	s, _ := host.Get("old")
	assert.Empty(t, s.WorktreePath)
	assert.True(t, s.Archived)

	assert.Nil(t, host.Sweep(context.Background(), 0))
}
