// Package events provides a publish/subscribe bus keyed by (kind, id).
package events

import (
	"log/slog"
	"sort"
	"sync"
)

// Kind names a family of events
type Kind string

const (
	SessionStatus  Kind = "session:status"
	SessionData    Kind = "session:data"
	SessionExit    Kind = "session:exit"
	SessionBranch  Kind = "session:branch"
	IssuesUpdated  Kind = "issues:updated"
	MetricsUpdated Kind = "metrics:updated"
	OAuthComplete  Kind = "oauth:complete"
	OAuthError     Kind = "oauth:error"
)

// Key identifies a channel. Global channels use an empty ID.
type Key struct {
	Kind Kind
	ID   string
}

// String returns the channel name, e.g. "session:data:<id>" or "issues:updated"
func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.ID
}

// Handler receives event payloads
type Handler func(payload any)

// Bus is a registry of channel -> listener set
type Bus struct {
	mu     sync.RWMutex
	next   uint64
	subs   map[Key]map[uint64]Handler
	logger *slog.Logger
}

// New creates an empty bus
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Key]map[uint64]Handler),
		logger: logger,
	}
}

// Subscription is a handle returned by Subscribe
type Subscription struct {
	bus  *Bus
	key  Key
	id   uint64
	once sync.Once
}

// Key returns the channel the subscription listens on
func (s *Subscription) Key() Key {
	return s.key
}

// Unsubscribe removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.key, s.id)
	})
}

// Subscribe registers h on the (kind, id) channel
func (b *Bus) Subscribe(kind Kind, id string, h Handler) *Subscription {
	key := Key{Kind: kind, ID: id}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	listeners, ok := b.subs[key]
	if !ok {
		listeners = make(map[uint64]Handler)
		b.subs[key] = listeners
	}
	listeners[b.next] = h

	return &Subscription{bus: b, key: key, id: b.next}
}

// Publish delivers payload synchronously to every listener on (kind, id), in
// subscription order. It returns the number of listeners invoked.
func (b *Bus) Publish(kind Kind, id string, payload any) int {
	key := Key{Kind: kind, ID: id}

	b.mu.RLock()
	listeners := b.subs[key]
	ids := make([]uint64, 0, len(listeners))
	for sid := range listeners {
		ids = append(ids, sid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, len(ids))
	for i, sid := range ids {
		handlers[i] = listeners[sid]
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(key, h, payload)
	}
	return len(handlers)
}

// Count returns the number of listeners on (kind, id)
func (b *Bus) Count(kind Kind, id string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[Key{Kind: kind, ID: id}])
}

func (b *Bus) deliver(key Key, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "channel", key.String(), "panic", r)
		}
	}()
	h(payload)
}

func (b *Bus) remove(key Key, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners, ok := b.subs[key]
	if !ok {
		return
	}
	delete(listeners, id)
	if len(listeners) == 0 {
		delete(b.subs, key)
	}
}
