package store

import (
	"log/slog"
	"sync"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/status"
)

// StatusSource reports the backend's current view of a session
type StatusSource interface {
	Get(id string) (domain.Session, bool)
}

// Follower applies backend status and branch events to the store. It keeps one
// subscription per known session and drops it when the session disappears.
type Follower struct {
	store  *Store
	bus    *events.Bus
	source StatusSource
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[string][]*events.Subscription
	detach func()
}

// Follow starts applying events for every session currently in the store and
// for sessions added later. When source is set, each newly followed session
// is synced once from it after subscribing, so a status published before the
// session reached the store is not lost.
func Follow(st *Store, bus *events.Bus, source StatusSource, logger *slog.Logger) *Follower {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Follower{
		store:  st,
		bus:    bus,
		source: source,
		logger: logger,
		subs:   make(map[string][]*events.Subscription),
	}
	f.detach = st.OnChange(f.reconcile)
	f.reconcile()
	return f
}

// Stop removes every subscription
func (f *Follower) Stop() {
	f.detach()

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, subs := range f.subs {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		delete(f.subs, id)
	}
}

// Following reports whether the follower holds subscriptions for a session
func (f *Follower) Following(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subs[sessionID]
	return ok
}

func (f *Follower) reconcile() {
	for _, id := range f.subscribe() {
		f.sync(id)
	}
}

// subscribe aligns subscriptions with the store and returns the newly followed ids
func (f *Follower) subscribe() []string {
	live := make(map[string]bool)
	for _, sess := range f.store.Sessions() {
		live[sess.ID] = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for id, subs := range f.subs {
		if live[id] {
			continue
		}
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		delete(f.subs, id)
	}

	var added []string
	for id := range live {
		if _, ok := f.subs[id]; ok {
			continue
		}
		f.subs[id] = []*events.Subscription{
			f.bus.Subscribe(events.SessionStatus, id, f.onStatus(id)),
			f.bus.Subscribe(events.SessionBranch, id, f.onBranch(id)),
		}
		added = append(added, id)
	}
	return added
}

func (f *Follower) sync(id string) {
	if f.source == nil {
		return
	}
	sess, ok := f.source.Get(id)
	if !ok {
		return
	}
	f.store.UpdateStatus(id, sess.Status)
}

func (f *Follower) onStatus(id string) events.Handler {
	return func(payload any) {
		s, ok := status.Parse(payload)
		if !ok {
			f.logger.Debug("ignoring malformed status payload", "sessionID", id, "payload", payload)
			return
		}
		f.store.UpdateStatus(id, s)
	}
}

func (f *Follower) onBranch(id string) events.Handler {
	return func(payload any) {
		branch, ok := payload.(string)
		if !ok || branch == "" {
			f.logger.Debug("ignoring malformed branch payload", "sessionID", id, "payload", payload)
			return
		}
		f.store.UpdateBranch(id, branch)
	}
}
