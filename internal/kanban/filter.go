// Package kanban projects a volatile issue list into deterministic board
// columns and tracks which sessions were started for which issue.
//
// The projection is rebuilt from scratch on every refresh. Given the same
// issues, states, filter and sort it always produces the same columns.
package kanban

import "github.com/Benbentwo/aim/internal/domain"

// AssigneeFilter restricts issues by assignee
type AssigneeFilter string

const (
	AssigneeAny        AssigneeFilter = ""
	AssigneeMe         AssigneeFilter = "me"
	AssigneeUnassigned AssigneeFilter = "unassigned"
)

// Filter represents issue filtering state. Zero values disable a predicate;
// enabled predicates are AND-combined.
type Filter struct {
	Priority  *int
	Assignee  AssigneeFilter
	StateType domain.StateType
	TeamKey   string
}

// IsActive returns true if any filter is active
func (f Filter) IsActive() bool {
	return f.Priority != nil ||
		f.Assignee != AssigneeAny ||
		f.StateType != "" ||
		f.TeamKey != ""
}

// Apply filters a list of issues. meID is the current user's id.
func (f Filter) Apply(issues []domain.Issue, meID string) []domain.Issue {
	result := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if f.Matches(issue, meID) {
			result = append(result, issue)
		}
	}
	return result
}

// Matches returns true if the issue passes all active filters
func (f Filter) Matches(issue domain.Issue, meID string) bool {
	if f.Priority != nil && issue.Priority != *f.Priority {
		return false
	}

	switch f.Assignee {
	case AssigneeMe:
		if meID == "" || issue.Assignee == nil || issue.Assignee.ID != meID {
			return false
		}
	case AssigneeUnassigned:
		if issue.Assignee != nil {
			return false
		}
	}

	if f.StateType != "" && issue.State.Type != f.StateType {
		return false
	}

	if f.TeamKey != "" && (issue.Team == nil || issue.Team.Key != f.TeamKey) {
		return false
	}

	return true
}

// Clear resets all filters
func (f *Filter) Clear() {
	*f = Filter{}
}

// CyclePriority steps through no filter, then priorities 0 to 4
func (f *Filter) CyclePriority() {
	switch {
	case f.Priority == nil:
		p := domain.PriorityNone
		f.Priority = &p
	case *f.Priority >= domain.PriorityLow:
		f.Priority = nil
	default:
		p := *f.Priority + 1
		f.Priority = &p
	}
}

// CycleAssignee steps through any, me, unassigned
func (f *Filter) CycleAssignee() {
	switch f.Assignee {
	case AssigneeAny:
		f.Assignee = AssigneeMe
	case AssigneeMe:
		f.Assignee = AssigneeUnassigned
	default:
		f.Assignee = AssigneeAny
	}
}

// CycleStateType steps through no filter and each known state type
func (f *Filter) CycleStateType() {
	if f.StateType == "" {
		f.StateType = domain.StateTypes[0]
		return
	}
	for i, t := range domain.StateTypes {
		if t == f.StateType && i+1 < len(domain.StateTypes) {
			f.StateType = domain.StateTypes[i+1]
			return
		}
	}
	f.StateType = ""
}

// CycleTeam steps through no filter and each of keys
func (f *Filter) CycleTeam(keys []string) {
	if f.TeamKey == "" {
		if len(keys) > 0 {
			f.TeamKey = keys[0]
		}
		return
	}
	for i, k := range keys {
		if k == f.TeamKey && i+1 < len(keys) {
			f.TeamKey = keys[i+1]
			return
		}
	}
	f.TeamKey = ""
}
