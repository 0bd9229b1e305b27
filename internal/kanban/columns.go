package kanban

import (
	"sort"

	"github.com/Benbentwo/aim/internal/domain"
)

// ColumnKey identifies a column. States with the same type and name merge
// into one column even when they belong to different teams.
type ColumnKey struct {
	Type domain.StateType
	Name string
}

// Column is one board column
type Column struct {
	Key    ColumnKey
	Color  string
	Issues []domain.Issue
}

// Name returns the column's display name
func (c Column) Name() string {
	return c.Key.Name
}

var typeRank = map[domain.StateType]int{
	domain.StateBacklog:   0,
	domain.StateTriage:    1,
	domain.StateUnstarted: 2,
	domain.StateStarted:   3,
	domain.StateCompleted: 4,
	domain.StateCanceled:  5,
}

const unknownTypeRank = 99

func rankOf(t domain.StateType) int {
	if r, ok := typeRank[t]; ok {
		return r
	}
	return unknownTypeRank
}

// IsMainFlow reports whether columns of this type render even when empty
func IsMainFlow(t domain.StateType) bool {
	switch t {
	case domain.StateBacklog, domain.StateUnstarted, domain.StateStarted, domain.StateCompleted:
		return true
	}
	return false
}

// Query is the input of a projection
type Query struct {
	Filter Filter
	Sort   SortField
	MeID   string
}

// Project builds the board columns from a snapshot of issues and states
func Project(issues []domain.Issue, states []domain.State, q Query) []Column {
	byKey := make(map[ColumnKey]*Column)
	var order []ColumnKey

	seed := func(s domain.State) *Column {
		key := ColumnKey{Type: s.Type, Name: s.Name}
		if col, ok := byKey[key]; ok {
			return col
		}
		col := &Column{Key: key, Color: s.Color}
		byKey[key] = col
		order = append(order, key)
		return col
	}

	for _, s := range states {
		seed(s)
	}
	for _, issue := range q.Filter.Apply(issues, q.MeID) {
		col := seed(issue.State)
		col.Issues = append(col.Issues, issue)
	}

	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := rankOf(order[i].Type), rankOf(order[j].Type)
		if ri != rj {
			return ri < rj
		}
		return order[i].Name < order[j].Name
	})

	columns := make([]Column, 0, len(order))
	for _, key := range order {
		col := byKey[key]
		if len(col.Issues) == 0 && !IsMainFlow(key.Type) {
			continue
		}
		col.Issues = SortIssues(col.Issues, q.Sort)
		columns = append(columns, *col)
	}
	return columns
}

// TeamKeys returns the distinct team keys of issues in sorted order
func TeamKeys(issues []domain.Issue) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, issue := range issues {
		if issue.Team == nil || issue.Team.Key == "" || seen[issue.Team.Key] {
			continue
		}
		seen[issue.Team.Key] = true
		keys = append(keys, issue.Team.Key)
	}
	sort.Strings(keys)
	return keys
}
