package store

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *Store {
	st := New()
	st.ReplaceAll([]domain.Workspace{
		{
			ID:   "w1",
			Name: "api",
			Path: "/src/api",
			Sessions: []domain.Session{
				{ID: "s1", WorkspaceID: "w1", Name: "one", Status: domain.StatusIdle},
				{ID: "s2", WorkspaceID: "w1", Name: "two", Status: domain.StatusThinking},
			},
		},
		{ID: "w2", Name: "web", Path: "/src/web"},
	})
	return st
}

func TestReplaceAll_ExpandedIffHasSessions(t *testing.T) {
	st := fixture()

	w1, ok := st.Workspace("w1")
	require.True(t, ok)
	assert.True(t, w1.Expanded)

	w2, ok := st.Workspace("w2")
	require.True(t, ok)
	assert.False(t, w2.Expanded)
}

func TestReplaceAll_DropsStaleSelection(t *testing.T) {
	st := fixture()
	st.SetActiveSession("s1", "w1")

	st.ReplaceAll([]domain.Workspace{{ID: "w2"}})

	sid, wid := st.Active()
	assert.Empty(t, sid)
	assert.Empty(t, wid)
}

func TestAddWorkspace(t *testing.T) {
	st := New()
	st.AddWorkspace(domain.Workspace{ID: "w1", Name: "api"})
	st.AddWorkspace(domain.Workspace{ID: "w1", Name: "dup"})

	ws := st.Workspaces()
	require.Len(t, ws, 1)
	assert.Equal(t, "api", ws[0].Name)
}

func TestRemoveWorkspace_ClearsActiveIfOwned(t *testing.T) {
	st := fixture()
	st.SetActiveSession("s2", "w1")

	st.RemoveWorkspace("w1")

	sid, wid := st.Active()
	assert.Empty(t, sid)
	assert.Empty(t, wid)
	_, ok := st.Session("s1")
	assert.False(t, ok)
	_, ok = st.Session("s2")
	assert.False(t, ok)
	_, ok = st.Workspace("w2")
	assert.True(t, ok)
}

func TestRemoveWorkspace_KeepsActiveElsewhere(t *testing.T) {
	st := fixture()
	st.AddSession(domain.Session{ID: "s3", WorkspaceID: "w2"})

	st.RemoveWorkspace("w1")

	sid, wid := st.Active()
	assert.Equal(t, "s3", sid)
	assert.Equal(t, "w2", wid)
	assert.Len(t, st.Sessions(), 1)
}

func TestRemoveWorkspace_ClearsActiveWorkspaceOnly(t *testing.T) {
	st := fixture()
	st.SetActiveSession("", "w2")

	st.RemoveWorkspace("w2")

	_, wid := st.Active()
	assert.Empty(t, wid)
}

func TestToggleWorkspace(t *testing.T) {
	st := fixture()
	st.ToggleWorkspace("w2")
	ws, _ := st.Workspace("w2")
	assert.True(t, ws.Expanded)

	st.ToggleWorkspace("w2")
	ws, _ = st.Workspace("w2")
	assert.False(t, ws.Expanded)

	st.ToggleWorkspace("missing")
}

func TestAddSession_BecomesActive(t *testing.T) {
	st := fixture()
	st.AddSession(domain.Session{ID: "s3", WorkspaceID: "w2", Name: "new"})

	sid, wid := st.Active()
	assert.Equal(t, "s3", sid)
	assert.Equal(t, "w2", wid)

	ws, _ := st.Workspace("w2")
	assert.True(t, ws.Expanded)
	require.Len(t, ws.Sessions, 1)
}

func TestAddSession_UnknownWorkspaceOrDuplicate(t *testing.T) {
	st := fixture()
	st.AddSession(domain.Session{ID: "s9", WorkspaceID: "nope"})
	st.AddSession(domain.Session{ID: "s1", WorkspaceID: "w2"})

	_, ok := st.Session("s9")
	assert.False(t, ok)
	ws, _ := st.Workspace("w2")
	assert.Empty(t, ws.Sessions)
	sid, _ := st.Active()
	assert.Empty(t, sid)
}

func TestRemoveSession(t *testing.T) {
	st := fixture()
	st.SetActiveSession("s1", "w1")

	st.RemoveSession("s1")

	_, ok := st.Session("s1")
	assert.False(t, ok)
	sid, wid := st.Active()
	assert.Empty(t, sid)
	assert.Empty(t, wid)

	st.RemoveSession("s1")
	assert.Len(t, st.Sessions(), 1)
}

func TestUpdateStatus(t *testing.T) {
	st := fixture()

	st.UpdateStatus("s1", domain.StatusWaiting)
	s, _ := st.Session("s1")
	assert.Equal(t, domain.StatusWaiting, s.Status)

	st.UpdateStatus("s1", domain.Status("bogus"))
	s, _ = st.Session("s1")
	assert.Equal(t, domain.StatusWaiting, s.Status)
}

func TestUpdateStatusAndBranch_UnknownIDIsNoop(t *testing.T) {
	st := fixture()
	before := st.Workspaces()
	changes := 0
	st.OnChange(func() { changes++ })

	assert.NotPanics(t, func() {
		st.UpdateStatus("ghost", domain.StatusErrored)
		st.UpdateBranch("ghost", "aim/x")
	})

	assert.Equal(t, before, st.Workspaces())
	assert.Zero(t, changes)
}

func TestUpdateBranch_SetsName(t *testing.T) {
	st := fixture()
	st.UpdateBranch("s2", "aim/fix-login")

	s, _ := st.Session("s2")
	assert.Equal(t, "aim/fix-login", s.Branch)
	assert.Equal(t, "aim/fix-login", s.Name)
}

func TestArchiveLifecycle(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st := fixture().WithClock(func() time.Time { return at })
	st.SetActiveSession("s1", "w1")

	st.ArchiveSession("s1")
	s, _ := st.Session("s1")
	assert.True(t, s.Archived)
	require.NotNil(t, s.ArchivedAt)
	assert.Equal(t, at, *s.ArchivedAt)
	sid, wid := st.Active()
	assert.Empty(t, sid)
	assert.Empty(t, wid)

	// Archived sessions cannot be selected
	st.SetActiveSession("s1", "w1")
	sid, _ = st.Active()
	assert.Empty(t, sid)

	st.UnarchiveSession("s1")
	s, _ = st.Session("s1")
	assert.False(t, s.Archived)
	assert.Nil(t, s.ArchivedAt)

	// Delete only applies to archived sessions
	st.DeleteArchivedSession("s1")
	_, ok := st.Session("s1")
	assert.True(t, ok)

	st.ArchiveSession("s1")
	st.DeleteArchivedSession("s1")
	_, ok = st.Session("s1")
	assert.False(t, ok)
}

func TestSetActiveSession(t *testing.T) {
	st := fixture()

	st.SetActiveSession("s2", "wrong")
	sid, wid := st.Active()
	assert.Equal(t, "s2", sid)
	assert.Equal(t, "w1", wid)

	st.SetActiveSession("ghost", "w1")
	sid, _ = st.Active()
	assert.Equal(t, "s2", sid)

	st.SetActiveSession("", "")
	sid, wid = st.Active()
	assert.Empty(t, sid)
	assert.Empty(t, wid)

	_, ok := st.ActiveSession()
	assert.False(t, ok)
}

func TestOnChange(t *testing.T) {
	st := New()
	calls := 0
	remove := st.OnChange(func() { calls++ })

	st.AddWorkspace(domain.Workspace{ID: "w"})
	st.ToggleWorkspace("w")
	assert.Equal(t, 2, calls)

	remove()
	remove()
	st.ToggleWorkspace("w")
	assert.Equal(t, 2, calls)
}

func TestReadsAreCopies(t *testing.T) {
	st := fixture()
	ws := st.Workspaces()
	ws[0].Sessions[0].Name = "mutated"

	s, _ := st.Session("s1")
	assert.Equal(t, "one", s.Name)
}

// Random operation sequences must never leave more than one active session,
// nor an active session that is missing or archived.
func TestActiveSelectionInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		st := New()
		st.AddWorkspace(domain.Workspace{ID: "w1"})
		st.AddWorkspace(domain.Workspace{ID: "w2"})
		next := 0

		for step := 0; step < 200; step++ {
			ids := st.Sessions()
			pick := func() string {
				if len(ids) == 0 {
					return "none"
				}
				return ids[rng.Intn(len(ids))].ID
			}

			switch rng.Intn(6) {
			case 0, 1:
				next++
				ws := fmt.Sprintf("w%d", 1+rng.Intn(2))
				st.AddSession(domain.Session{ID: fmt.Sprintf("s%d", next), WorkspaceID: ws})
			case 2:
				st.RemoveSession(pick())
			case 3:
				st.ArchiveSession(pick())
			case 4:
				st.UnarchiveSession(pick())
			case 5:
				id := pick()
				st.SetActiveSession(id, "")
			}

			sid, wid := st.Active()
			if sid == "" {
				continue
			}
			s, ok := st.Session(sid)
			require.True(t, ok, "active session %s must exist", sid)
			require.False(t, s.Archived, "active session %s must not be archived", sid)
			require.Equal(t, s.WorkspaceID, wid)
		}
	}
}
