package domain

import "time"

// StateType is the workflow category of an issue state
type StateType string

const (
	StateTriage    StateType = "triage"
	StateBacklog   StateType = "backlog"
	StateUnstarted StateType = "unstarted"
	StateStarted   StateType = "started"
	StateCompleted StateType = "completed"
	StateCanceled  StateType = "canceled"
)

// StateTypes lists the known state types in board order
var StateTypes = []StateType{
	StateBacklog,
	StateTriage,
	StateUnstarted,
	StateStarted,
	StateCompleted,
	StateCanceled,
}

// Priority levels as reported by the tracker. 0 means no priority.
const (
	PriorityNone   = 0
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityMedium = 3
	PriorityLow    = 4
)

// PriorityLabel returns the display label for a tracker priority
func PriorityLabel(p int) string {
	switch p {
	case PriorityUrgent:
		return "Urgent"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return "No priority"
	}
}

// State is a workflow state of an issue
type State struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Type  StateType `json:"type"`
}

// User is a tracker user
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Team is a tracker team
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Label is an issue label
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Cycle is a team's active iteration
type Cycle struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Number   int       `json:"number"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

// Issue is an externally tracked work item
type Issue struct {
	ID          string    `json:"id"`
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
	URL         string    `json:"url"`
	State       State     `json:"state"`
	Assignee    *User     `json:"assignee,omitempty"`
	Labels      []Label   `json:"labels"`
	Team        *Team     `json:"team,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IssueSnapshot is a full refresh of issues and the states they can be in
type IssueSnapshot struct {
	Cycle  *Cycle  `json:"cycle,omitempty"`
	Issues []Issue `json:"issues"`
	States []State `json:"states"`
}

// StatesFromIssues collects the distinct states referenced by issues, in first-seen order
func StatesFromIssues(issues []Issue) []State {
	seen := make(map[string]bool)
	var states []State
	for _, issue := range issues {
		if issue.State.ID == "" || seen[issue.State.ID] {
			continue
		}
		seen[issue.State.ID] = true
		states = append(states, issue.State)
	}
	return states
}
