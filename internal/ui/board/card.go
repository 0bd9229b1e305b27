package board

import (
	"strings"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var priorityShort = map[int]string{
	domain.PriorityNone:   "--",
	domain.PriorityUrgent: "P1",
	domain.PriorityHigh:   "P2",
	domain.PriorityMedium: "P3",
	domain.PriorityLow:    "P4",
}

// renderCard renders one issue card
func renderCard(issue domain.Issue, isCursor, isBound bool, width int, s *styles.Styles) string {
	cardStyle := s.Card
	switch {
	case isCursor:
		cardStyle = s.CardActive
	case isBound:
		cardStyle = s.CardBound
	}
	cardStyle = cardStyle.Width(max(1, width-2))

	// border (2) and padding (2)
	inner := max(4, width-4)

	cursor := ""
	if isCursor {
		cursor = "▶ "
	}
	title := ansi.Truncate(cursor+issue.Title, inner, "…")

	short, ok := priorityShort[issue.Priority]
	if !ok {
		short = "--"
	}
	meta := []string{
		s.PriorityBadge(issue.Priority).Render(short),
		s.IssueID.Render(issue.Identifier),
	}
	if isBound {
		meta = append(meta, s.Branch.Render("⚡"))
	}
	if issue.Assignee != nil && issue.Assignee.Name != "" {
		meta = append(meta, s.Muted.Render("@"+firstName(issue.Assignee.Name)))
	}
	metaLine := ansi.Truncate(strings.Join(meta, " "), inner, "…")

	content := lipgloss.JoinVertical(lipgloss.Left, s.IssueTitle.Render(title), metaLine)
	return cardStyle.Render(content)
}

// RenderCard is the exported version for testing
func RenderCard(issue domain.Issue, isCursor, isBound bool, width int, s *styles.Styles) string {
	return renderCard(issue, isCursor, isBound, width, s)
}

func firstName(name string) string {
	if first, _, ok := strings.Cut(name, " "); ok {
		return first
	}
	return name
}
