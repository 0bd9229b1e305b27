package store

import (
	"testing"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/stretchr/testify/assert"
)

func TestFollower_AppliesStatusEvents(t *testing.T) {
	st := fixture()
	bus := events.New(nil)
	f := Follow(st, bus, nil, nil)
	defer f.Stop()

	bus.Publish(events.SessionStatus, "s1", "thinking")
	s, _ := st.Session("s1")
	assert.Equal(t, domain.StatusThinking, s.Status)
}

func TestFollower_IgnoresMalformedPayloads(t *testing.T) {
	st := fixture()
	bus := events.New(nil)
	f := Follow(st, bus, nil, nil)
	defer f.Stop()

	assert.NotPanics(t, func() {
		bus.Publish(events.SessionStatus, "s1", 12)
		bus.Publish(events.SessionStatus, "s1", "exploded")
		bus.Publish(events.SessionBranch, "s1", nil)
		bus.Publish(events.SessionBranch, "s1", "")
	})

	s, _ := st.Session("s1")
	assert.Equal(t, domain.StatusIdle, s.Status)
	assert.Equal(t, "one", s.Name)
}

func TestFollower_BranchEvents(t *testing.T) {
	st := fixture()
	bus := events.New(nil)
	f := Follow(st, bus, nil, nil)
	defer f.Stop()

	bus.Publish(events.SessionBranch, "s2", "aim/add-oauth")
	s, _ := st.Session("s2")
	assert.Equal(t, "aim/add-oauth", s.Branch)
	assert.Equal(t, "aim/add-oauth", s.Name)
}

func TestFollower_TracksAddedAndRemovedSessions(t *testing.T) {
	st := fixture()
	bus := events.New(nil)
	f := Follow(st, bus, nil, nil)

	st.AddSession(domain.Session{ID: "s3", WorkspaceID: "w2", Status: domain.StatusIdle})
	assert.True(t, f.Following("s3"))
	assert.Equal(t, 1, bus.Count(events.SessionStatus, "s3"))

	st.RemoveSession("s3")
	assert.False(t, f.Following("s3"))
	assert.Equal(t, 0, bus.Count(events.SessionStatus, "s3"))

	// Late status for the removed session is a no-op
	assert.NotPanics(t, func() { bus.Publish(events.SessionStatus, "s3", "idle") })

	f.Stop()
	assert.Equal(t, 0, bus.Count(events.SessionStatus, "s1"))
}

type fakeSource map[string]domain.Status

func (f fakeSource) Get(id string) (domain.Session, bool) {
	s, ok := f[id]
	if !ok {
		return domain.Session{}, false
	}
	return domain.Session{ID: id, Status: s}, true
}

func TestFollower_SyncsStatusPublishedBeforeAdd(t *testing.T) {
	st := fixture()
	bus := events.New(nil)
	source := fakeSource{}
	f := Follow(st, bus, source, nil)
	defer f.Stop()

	// The process exits between create and AddSession; nobody is subscribed yet
	source["s3"] = domain.StatusErrored
	bus.Publish(events.SessionStatus, "s3", "errored")

	st.AddSession(domain.Session{ID: "s3", WorkspaceID: "w2", Status: domain.StatusIdle})

	s, ok := st.Session("s3")
	assert.True(t, ok)
	assert.Equal(t, domain.StatusErrored, s.Status)
	assert.True(t, f.Following("s3"))

	// Later events still flow through the subscription
	bus.Publish(events.SessionStatus, "s3", "stopped")
	s, _ = st.Session("s3")
	assert.Equal(t, domain.StatusStopped, s.Status)
}

func TestFollower_SyncIgnoresUnknownSessions(t *testing.T) {
	st := fixture()
	bus := events.New(nil)
	f := Follow(st, bus, fakeSource{}, nil)
	defer f.Stop()

	st.AddSession(domain.Session{ID: "s3", WorkspaceID: "w2", Status: domain.StatusThinking})
	s, _ := st.Session("s3")
	assert.Equal(t, domain.StatusThinking, s.Status)
}
