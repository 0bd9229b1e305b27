package linear

import (
	"context"

	"github.com/Benbentwo/aim/internal/domain"
)

// issueNode is an issue as the API returns it, with connection wrappers
type issueNode struct {
	domain.Issue
	Labels struct {
		Nodes []domain.Label `json:"nodes"`
	} `json:"labels"`
}

func (n issueNode) issue() domain.Issue {
	issue := n.Issue
	issue.Labels = append([]domain.Label{}, n.Labels.Nodes...)
	return issue
}

func toIssues(nodes []issueNode) []domain.Issue {
	issues := make([]domain.Issue, 0, len(nodes))
	for _, n := range nodes {
		issues = append(issues, n.issue())
	}
	return issues
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var result struct {
		Viewer domain.User `json:"viewer"`
	}
	if err := c.do(ctx, "viewer", queryViewer, nil, &result); err != nil {
		return domain.User{}, err
	}
	return result.Viewer, nil
}

// Teams returns the teams the user belongs to
func (c *Client) Teams(ctx context.Context) ([]domain.Team, error) {
	var result struct {
		Teams struct {
			Nodes []domain.Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.do(ctx, "teams", queryTeams, nil, &result); err != nil {
		return nil, err
	}
	return result.Teams.Nodes, nil
}

// MyIssues returns the issues assigned to the authenticated user. States are
// derived from the issues themselves.
func (c *Client) MyIssues(ctx context.Context) (domain.IssueSnapshot, error) {
	var result struct {
		Viewer struct {
			AssignedIssues struct {
				Nodes []issueNode `json:"nodes"`
			} `json:"assignedIssues"`
		} `json:"viewer"`
	}
	if err := c.do(ctx, "assigned-issues", queryMyIssues, nil, &result); err != nil {
		return domain.IssueSnapshot{}, err
	}

	issues := toIssues(result.Viewer.AssignedIssues.Nodes)
	return domain.IssueSnapshot{
		Issues: issues,
		States: domain.StatesFromIssues(issues),
	}, nil
}

// CycleIssues returns the issues of the team's active cycle with every team
// state. A team without an active cycle yields an empty snapshot. A failure
// fetching states is logged and the snapshot is returned without them.
func (c *Client) CycleIssues(ctx context.Context, teamID string) (domain.IssueSnapshot, error) {
	vars := map[string]any{"teamId": teamID}

	var result struct {
		Team struct {
			ActiveCycle *struct {
				domain.Cycle
				Issues struct {
					Nodes []issueNode `json:"nodes"`
				} `json:"issues"`
			} `json:"activeCycle"`
		} `json:"team"`
	}
	if err := c.do(ctx, "active-cycle", queryActiveCycle, vars, &result); err != nil {
		return domain.IssueSnapshot{}, err
	}

	ac := result.Team.ActiveCycle
	if ac == nil {
		return domain.IssueSnapshot{}, nil
	}

	cycle := ac.Cycle
	snap := domain.IssueSnapshot{
		Cycle:  &cycle,
		Issues: toIssues(ac.Issues.Nodes),
	}

	var states struct {
		Team struct {
			States struct {
				Nodes []domain.State `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := c.do(ctx, "team-states", queryTeamStates, vars, &states); err != nil {
		c.logger.Warn("failed to fetch team states", "teamID", teamID, "error", err)
		return snap, nil
	}
	snap.States = states.Team.States.Nodes
	return snap, nil
}

// Issue returns one issue
func (c *Client) Issue(ctx context.Context, id string) (domain.Issue, error) {
	var result struct {
		Issue *issueNode `json:"issue"`
	}
	if err := c.do(ctx, "issue", queryIssue, map[string]any{"id": id}, &result); err != nil {
		return domain.Issue{}, err
	}
	if result.Issue == nil {
		return domain.Issue{}, &domain.TrackerError{Op: "issue", Message: id, Err: domain.ErrNotFound}
	}
	return result.Issue.issue(), nil
}

// UpdateIssueState moves an issue to another workflow state
func (c *Client) UpdateIssueState(ctx context.Context, issueID, stateID string) error {
	var result struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	vars := map[string]any{"id": issueID, "stateId": stateID}
	if err := c.do(ctx, "issue-update", mutationUpdateIssueState, vars, &result); err != nil {
		return err
	}
	if !result.IssueUpdate.Success {
		return &domain.TrackerError{Op: "issue-update", Message: "update rejected"}
	}
	return nil
}
