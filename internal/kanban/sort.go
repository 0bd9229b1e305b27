package kanban

import (
	"sort"

	"github.com/Benbentwo/aim/internal/domain"
)

// SortField represents a field to sort issues by
type SortField string

const (
	SortByPriority SortField = "priority"
	SortByUpdated  SortField = "updated"
	SortByCreated  SortField = "created"
)

// SortFields lists the sort fields in cycling order
var SortFields = []SortField{SortByPriority, SortByUpdated, SortByCreated}

// ParseSortField returns the field named s, or SortByPriority
func ParseSortField(s string) SortField {
	for _, f := range SortFields {
		if string(f) == s {
			return f
		}
	}
	return SortByPriority
}

// Next returns the field after f in SortFields
func (f SortField) Next() SortField {
	for i, field := range SortFields {
		if field == f {
			return SortFields[(i+1)%len(SortFields)]
		}
	}
	return SortByPriority
}

// SortIssues returns a sorted copy of issues. Ties keep their input order.
func SortIssues(issues []domain.Issue, field SortField) []domain.Issue {
	result := make([]domain.Issue, len(issues))
	copy(result, issues)

	switch field {
	case SortByUpdated:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		})

	case SortByCreated:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})

	default:
		sort.SliceStable(result, func(i, j int) bool {
			return priorityRank(result[i].Priority) < priorityRank(result[j].Priority)
		})
	}

	return result
}

// priorityRank orders urgent first and "no priority" after low
func priorityRank(p int) int {
	if p <= domain.PriorityNone || p > domain.PriorityLow {
		return domain.PriorityLow + 1
	}
	return p
}
