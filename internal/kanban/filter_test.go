package kanban

import (
	"testing"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestFilter_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, false},
		{"priority zero", Filter{Priority: intPtr(0)}, true},
		{"assignee", Filter{Assignee: AssigneeUnassigned}, true},
		{"state type", Filter{StateType: domain.StateStarted}, true},
		{"team", Filter{TeamKey: "ENG"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.IsActive())
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	issue := domain.Issue{
		ID:       "i1",
		Priority: 2,
		State:    inProgress,
		Assignee: &domain.User{ID: "me"},
		Team:     &domain.Team{Key: "ENG"},
	}
	unassigned := domain.Issue{ID: "i2", State: todo}

	tests := []struct {
		name   string
		filter Filter
		issue  domain.Issue
		want   bool
	}{
		{"empty matches", Filter{}, issue, true},
		{"priority match", Filter{Priority: intPtr(2)}, issue, true},
		{"priority mismatch", Filter{Priority: intPtr(1)}, issue, false},
		{"priority none", Filter{Priority: intPtr(0)}, unassigned, true},
		{"assignee me", Filter{Assignee: AssigneeMe}, issue, true},
		{"assignee me unassigned", Filter{Assignee: AssigneeMe}, unassigned, false},
		{"unassigned", Filter{Assignee: AssigneeUnassigned}, unassigned, true},
		{"unassigned rejects assigned", Filter{Assignee: AssigneeUnassigned}, issue, false},
		{"state type", Filter{StateType: domain.StateStarted}, issue, true},
		{"state type mismatch", Filter{StateType: domain.StateBacklog}, issue, false},
		{"team", Filter{TeamKey: "ENG"}, issue, true},
		{"team missing", Filter{TeamKey: "ENG"}, unassigned, false},
		{"combined", Filter{Priority: intPtr(2), Assignee: AssigneeMe, StateType: domain.StateStarted, TeamKey: "ENG"}, issue, true},
		{"combined one fails", Filter{Priority: intPtr(2), TeamKey: "WEB"}, issue, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.issue, "me"))
		})
	}
}

func TestFilter_AssigneeMeWithoutUser(t *testing.T) {
	issue := domain.Issue{Assignee: &domain.User{ID: ""}}
	assert.False(t, Filter{Assignee: AssigneeMe}.Matches(issue, ""))
}

func TestFilter_Cycles(t *testing.T) {
	var f Filter

	f.CyclePriority()
	assert.Equal(t, 0, *f.Priority)
	for i := 0; i < 4; i++ {
		f.CyclePriority()
	}
	assert.Equal(t, 4, *f.Priority)
	f.CyclePriority()
	assert.Nil(t, f.Priority)

	f.CycleAssignee()
	assert.Equal(t, AssigneeMe, f.Assignee)
	f.CycleAssignee()
	assert.Equal(t, AssigneeUnassigned, f.Assignee)
	f.CycleAssignee()
	assert.Equal(t, AssigneeAny, f.Assignee)

	for range domain.StateTypes {
		f.CycleStateType()
	}
	assert.Equal(t, domain.StateCanceled, f.StateType)
	f.CycleStateType()
	assert.Empty(t, f.StateType)

	f.CycleTeam([]string{"API", "WEB"})
	assert.Equal(t, "API", f.TeamKey)
	f.CycleTeam([]string{"API", "WEB"})
	assert.Equal(t, "WEB", f.TeamKey)
	f.CycleTeam([]string{"API", "WEB"})
	assert.Empty(t, f.TeamKey)

	f.TeamKey = "X"
	f.Clear()
	assert.False(t, f.IsActive())
}

func TestSortIssues(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		{ID: "none", Priority: 0, CreatedAt: base, UpdatedAt: base.Add(3 * time.Hour)},
		{ID: "low", Priority: 4, CreatedAt: base.Add(time.Hour), UpdatedAt: base},
		{ID: "urgent", Priority: 1, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "high", Priority: 2, CreatedAt: base.Add(-time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}

	assert.Equal(t, []string{"urgent", "high", "low", "none"}, issueIDs(SortIssues(issues, SortByPriority)))
	assert.Equal(t, []string{"none", "high", "urgent", "low"}, issueIDs(SortIssues(issues, SortByUpdated)))
	assert.Equal(t, []string{"urgent", "low", "none", "high"}, issueIDs(SortIssues(issues, SortByCreated)))

	// Input is untouched
	assert.Equal(t, "none", issues[0].ID)
}

func TestSortIssues_PriorityNoneAfterLow(t *testing.T) {
	sorted := SortIssues([]domain.Issue{{ID: "none", Priority: 0}, {ID: "low", Priority: 4}}, SortByPriority)
	assert.Equal(t, []string{"low", "none"}, issueIDs(sorted))
}

func TestSortIssues_StableTies(t *testing.T) {
	issues := []domain.Issue{{ID: "a", Priority: 2}, {ID: "b", Priority: 2}, {ID: "c", Priority: 2}}
	assert.Equal(t, []string{"a", "b", "c"}, issueIDs(SortIssues(issues, SortByPriority)))
	assert.Empty(t, SortIssues(nil, SortByPriority))
}

func TestSortField(t *testing.T) {
	assert.Equal(t, SortByUpdated, ParseSortField("updated"))
	assert.Equal(t, SortByPriority, ParseSortField("bogus"))
	assert.Equal(t, SortByUpdated, SortByPriority.Next())
	assert.Equal(t, SortByCreated, SortByUpdated.Next())
	assert.Equal(t, SortByPriority, SortByCreated.Next())
}
