// Package board renders kanban columns of tracker issues.
package board

import (
	"fmt"
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/kanban"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

// Cursor represents the current cursor position
type Cursor struct {
	Column int
	Issue  int
}

// Clamp keeps the cursor inside columns
func (c Cursor) Clamp(columns []kanban.Column) Cursor {
	if len(columns) == 0 {
		return Cursor{}
	}
	c.Column = max(0, min(c.Column, len(columns)-1))
	n := len(columns[c.Column].Issues)
	if n == 0 {
		c.Issue = 0
	} else {
		c.Issue = max(0, min(c.Issue, n-1))
	}
	return c
}

// Selected returns the issue under the cursor
func (c Cursor) Selected(columns []kanban.Column) (domain.Issue, bool) {
	if c.Column < 0 || c.Column >= len(columns) {
		return domain.Issue{}, false
	}
	issues := columns[c.Column].Issues
	if c.Issue < 0 || c.Issue >= len(issues) {
		return domain.Issue{}, false
	}
	return issues[c.Issue], true
}

// Render renders the board. bound marks issues that already have sessions.
func Render(columns []kanban.Column, cursor Cursor, bound map[string]bool, s *styles.Styles, width, height int) string {
	if len(columns) == 0 {
		return ""
	}

	columnWidth := width / len(columns)

	var rendered []string
	for i, col := range columns {
		active := i == cursor.Column
		cursorIssue := -1
		if active {
			cursorIssue = cursor.Issue
		}
		columnStr := renderColumn(col, cursorIssue, active, bound, columnWidth, height, s)
		sized := lipgloss.NewStyle().Width(columnWidth).Height(height).MaxHeight(height).Render(columnStr)
		rendered = append(rendered, sized)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Header describes the board source, sort and active filters on one line
func Header(mode kanban.Mode, q kanban.Query, polling bool, s *styles.Styles) string {
	parts := []string{
		s.PanelTitle.Render(modeLabel(mode)),
		s.StatLabel.Render("sort: " + string(q.Sort)),
	}
	if filters := FilterSummary(q.Filter); filters != "" {
		parts = append(parts, s.StatLabel.Render("filter: "+filters))
	}
	if polling {
		parts = append(parts, s.Muted.Render("⟳ live"))
	}
	return strings.Join(parts, "  ")
}

func modeLabel(mode kanban.Mode) string {
	if mode == kanban.ModeCycle {
		return "Active cycle"
	}
	return "My issues"
}

// FilterSummary lists the active filters, or "" when none is set
func FilterSummary(f kanban.Filter) string {
	var parts []string
	if f.Priority != nil {
		parts = append(parts, "priority="+domain.PriorityLabel(*f.Priority))
	}
	if f.Assignee != kanban.AssigneeAny {
		parts = append(parts, "assignee="+string(f.Assignee))
	}
	if f.StateType != "" {
		parts = append(parts, "state="+string(f.StateType))
	}
	if f.TeamKey != "" {
		parts = append(parts, "team="+f.TeamKey)
	}
	return strings.Join(parts, " ")
}

func countLabel(n int) string {
	return fmt.Sprintf("(%d)", n)
}
