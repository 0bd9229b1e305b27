package worktree

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCreator struct {
	configs []backend.SessionConfig
	err     error
}

func (m *mockCreator) Create(ctx context.Context, cfg backend.SessionConfig) (domain.Session, error) {
	m.configs = append(m.configs, cfg)
	if m.err != nil {
		return domain.Session{}, m.err
	}
	s := domain.Session{
		ID:        "s-new",
		Name:      cfg.Name,
		Agent:     cfg.Agent,
		Directory: cfg.Directory,
		Branch:    cfg.Branch,
		Status:    domain.StatusIdle,
	}
	if cfg.UseWorktree {
		s.WorktreePath = cfg.Directory + "/.git/aim-worktrees/" + cfg.Branch
	}
	return s, nil
}

type mockWorktrees struct {
	repos map[string]bool
}

func (m *mockWorktrees) IsGitRepo(ctx context.Context, path string) bool {
	return m.repos[path]
}

func (m *mockWorktrees) CreateWorktree(ctx context.Context, repoPath, branch string) (string, error) {
	return repoPath + "/.git/aim-worktrees/" + branch, nil
}

func newInstantFixture() *store.Store {
	st := store.New()
	st.ReplaceAll([]domain.Workspace{
		{ID: "w1", Name: "api", Path: "/src/api", Agent: domain.AgentClaude},
		{ID: "w2", Name: "notes", Path: "/src/notes", Agent: domain.AgentShell},
	})
	return st
}

func TestCreateInstant_GitRepoGetsWorktree(t *testing.T) {
	st := newInstantFixture()
	creator := &mockCreator{}
	svc := NewSessionService(creator, &mockWorktrees{repos: map[string]bool{"/src/api": true}}, st,
		InstantOptions{DefaultWorktree: true, Random: bytes.NewReader([]byte{0xab, 0xcd, 0xef})}, nil)

	session, err := svc.CreateInstant(context.Background(), "w1")
	require.NoError(t, err)

	require.Len(t, creator.configs, 1)
	cfg := creator.configs[0]
	assert.Equal(t, "tmp-abcdef", cfg.Branch)
	assert.Equal(t, "tmp-abcdef", cfg.Name)
	assert.True(t, cfg.UseWorktree)
	assert.Equal(t, "/src/api", cfg.Directory)
	assert.Equal(t, domain.AgentClaude, cfg.Agent)

	assert.Equal(t, "w1", session.WorkspaceID)
	sid, wid := st.Active()
	assert.Equal(t, "s-new", sid)
	assert.Equal(t, "w1", wid)
}

func TestCreateInstant_NonRepoOrDisabledSkipsWorktree(t *testing.T) {
	st := newInstantFixture()
	creator := &mockCreator{}
	svc := NewSessionService(creator, &mockWorktrees{}, st, InstantOptions{DefaultWorktree: true}, nil)

	_, err := svc.CreateInstant(context.Background(), "w2")
	require.NoError(t, err)
	assert.False(t, creator.configs[0].UseWorktree)
	assert.True(t, IsTempBranch(creator.configs[0].Branch))

	disabled := NewSessionService(creator, &mockWorktrees{repos: map[string]bool{"/src/api": true}}, st, InstantOptions{}, nil)
	_, err = disabled.CreateInstant(context.Background(), "w1")
	require.NoError(t, err)
	assert.False(t, creator.configs[1].UseWorktree)
}

func TestCreateInstant_Errors(t *testing.T) {
	st := newInstantFixture()
	svc := NewSessionService(&mockCreator{}, nil, st, InstantOptions{}, nil)

	_, err := svc.CreateInstant(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	failing := NewSessionService(&mockCreator{err: errors.New("spawn failed")}, nil, st, InstantOptions{}, nil)
	_, err = failing.CreateInstant(context.Background(), "w1")
	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "create", be.Op)
	assert.Empty(t, st.Sessions())
}
