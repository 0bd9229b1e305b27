package kanban

import (
	"slices"
	"sort"
	"sync"

	"github.com/Benbentwo/aim/internal/domain"
)

// Bindings records which sessions were created for which issue. Entries are
// only ever removed explicitly.
type Bindings struct {
	mu       sync.RWMutex
	bindings map[string]*domain.Binding
}

// NewBindings creates an empty registry
func NewBindings() *Bindings {
	return &Bindings{bindings: make(map[string]*domain.Binding)}
}

// Bind starts tracking an issue in the detecting state. Binding an issue that
// is already tracked returns the existing binding unchanged.
func (b *Bindings) Bind(issue domain.Issue) domain.Binding {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.bindings[issue.ID]; ok {
		return existing.Clone()
	}
	binding := &domain.Binding{
		IssueID:         issue.ID,
		IssueIdentifier: issue.Identifier,
		Status:          domain.BindingDetecting,
	}
	b.bindings[issue.ID] = binding
	return binding.Clone()
}

// SetRepos records the repositories involved and marks the binding ready
func (b *Bindings) SetRepos(issueID string, repos []string) bool {
	return b.update(issueID, func(binding *domain.Binding) {
		binding.Repos = append([]string(nil), repos...)
		if binding.Status == domain.BindingDetecting {
			binding.Status = domain.BindingReady
		}
	})
}

// AddSession appends a session id and marks the binding active
func (b *Bindings) AddSession(issueID, sessionID string) bool {
	return b.update(issueID, func(binding *domain.Binding) {
		if !slices.Contains(binding.SessionIDs, sessionID) {
			binding.SessionIDs = append(binding.SessionIDs, sessionID)
		}
		binding.Status = domain.BindingActive
	})
}

// SetStatus overrides the binding status
func (b *Bindings) SetStatus(issueID string, status domain.BindingStatus) bool {
	return b.update(issueID, func(binding *domain.Binding) {
		binding.Status = status
	})
}

// Get returns the binding for an issue
func (b *Bindings) Get(issueID string) (domain.Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	binding, ok := b.bindings[issueID]
	if !ok {
		return domain.Binding{}, false
	}
	return binding.Clone(), true
}

// ForSession returns the binding that owns sessionID
func (b *Bindings) ForSession(sessionID string) (domain.Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, binding := range b.bindings {
		if slices.Contains(binding.SessionIDs, sessionID) {
			return binding.Clone(), true
		}
	}
	return domain.Binding{}, false
}

// All returns every binding ordered by issue identifier
func (b *Bindings) All() []domain.Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]domain.Binding, 0, len(b.bindings))
	for _, binding := range b.bindings {
		result = append(result, binding.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IssueIdentifier < result[j].IssueIdentifier
	})
	return result
}

// Remove deletes a binding
func (b *Bindings) Remove(issueID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.bindings[issueID]; !ok {
		return false
	}
	delete(b.bindings, issueID)
	return true
}

// Release deletes a binding that never gained a session
func (b *Bindings) Release(issueID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	binding, ok := b.bindings[issueID]
	if !ok || len(binding.SessionIDs) > 0 {
		return false
	}
	delete(b.bindings, issueID)
	return true
}

func (b *Bindings) update(issueID string, fn func(*domain.Binding)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	binding, ok := b.bindings[issueID]
	if !ok {
		return false
	}
	fn(binding)
	return true
}
