package worktree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRenamer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockRenamer) RenameBranch(ctx context.Context, id string, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id+" "+branch)
	return m.err
}

func lifecycleStore() *store.Store {
	st := store.New()
	st.ReplaceAll([]domain.Workspace{{
		ID:   "w1",
		Path: "/src/api",
		Sessions: []domain.Session{
			{ID: "s1", WorkspaceID: "w1", Name: "tmp-abc123", Branch: "tmp-abc123", WorktreePath: "/src/api/.git/aim-worktrees/tmp-abc123"},
			{ID: "s2", WorkspaceID: "w1", Name: "named", Branch: "aim/already-named", WorktreePath: "/src/api/.git/aim-worktrees/aim-already-named"},
			{ID: "s3", WorkspaceID: "w1", Name: "plain", Branch: "tmp-abc123"},
		},
	}})
	return st
}

func TestLifecycle_FirstSubmitRenames(t *testing.T) {
	st := lifecycleStore()
	renamer := &mockRenamer{}
	lc := NewLifecycle(renamer, st, nil)

	assert.True(t, lc.Submit(context.Background(), "s1", "Fix the login bug with OAuth tokens!!"))

	assert.Equal(t, []string{"s1 aim/fix-the-login-bug-with"}, renamer.calls)
	s, ok := st.Session("s1")
	require.True(t, ok)
	assert.Equal(t, "aim/fix-the-login-bug-with", s.Branch)
	assert.Equal(t, "aim/fix-the-login-bug-with", s.Name)

	// Only the first message counts
	assert.False(t, lc.Submit(context.Background(), "s1", "something else"))
	assert.Len(t, renamer.calls, 1)
}

func TestLifecycle_FailureKeepsTempBranchWithoutRetry(t *testing.T) {
	st := lifecycleStore()
	renamer := &mockRenamer{err: errors.New("branch exists")}
	lc := NewLifecycle(renamer, st, nil)

	assert.True(t, lc.Submit(context.Background(), "s1", "add retries"))
	s, _ := st.Session("s1")
	assert.Equal(t, "tmp-abc123", s.Branch)

	renamer.err = nil
	assert.False(t, lc.Submit(context.Background(), "s1", "add retries"))
	assert.Len(t, renamer.calls, 1)
	assert.True(t, lc.Submitted("s1"))
}

func TestLifecycle_SkipsNamedUnknownAndNonWorktreeSessions(t *testing.T) {
	st := lifecycleStore()
	renamer := &mockRenamer{}
	lc := NewLifecycle(renamer, st, nil)

	assert.False(t, lc.Submit(context.Background(), "s2", "hello"))
	assert.False(t, lc.Submit(context.Background(), "s3", "hello"))
	assert.False(t, lc.Submit(context.Background(), "missing", "hello"))
	assert.Empty(t, renamer.calls)
	assert.True(t, lc.Submitted("s2"))
}

func TestLifecycle_ObserveInputBuffersUntilEnter(t *testing.T) {
	st := lifecycleStore()
	renamer := &mockRenamer{}
	lc := NewLifecycle(renamer, st, nil)
	ctx := context.Background()

	// Blank lines do not count as the first message
	assert.False(t, lc.ObserveInput(ctx, "s1", "\r"))
	assert.False(t, lc.ObserveInput(ctx, "s1", "   \r"))

	for _, key := range []string{"a", "d", "d", "x", "\x7f", " ", "t", "e", "s", "t", "s"} {
		assert.False(t, lc.ObserveInput(ctx, "s1", key))
	}
	assert.Empty(t, renamer.calls)
	assert.False(t, lc.Submitted("s1"))
}

func TestLifecycle_ObserveInputSubmitsLine(t *testing.T) {
	st := lifecycleStore()
	renamer := &mockRenamer{}
	lc := NewLifecycle(renamer, st, nil)
	ctx := context.Background()

	lc.ObserveInput(ctx, "s1", "ad")
	lc.ObserveInput(ctx, "s1", "dx\x7f tests")
	assert.True(t, lc.ObserveInput(ctx, "s1", "\r"))

	assert.Equal(t, []string{"s1 aim/add-tests"}, renamer.calls)
	assert.False(t, lc.ObserveInput(ctx, "s1", "more\r"))
}

func TestLifecycle_ObserveInputStripsEscapes(t *testing.T) {
	st := lifecycleStore()
	renamer := &mockRenamer{}
	lc := NewLifecycle(renamer, st, nil)

	assert.True(t, lc.ObserveInput(context.Background(), "s1", "\x1b[1mbold\x1b[0m move\n"))
	assert.Equal(t, []string{"s1 aim/bold-move"}, renamer.calls)
}

func TestLifecycle_Forget(t *testing.T) {
	st := lifecycleStore()
	lc := NewLifecycle(&mockRenamer{}, st, nil)

	lc.Submit(context.Background(), "s2", "x")
	require.True(t, lc.Submitted("s2"))
	lc.Forget("s2")
	assert.False(t, lc.Submitted("s2"))
}
