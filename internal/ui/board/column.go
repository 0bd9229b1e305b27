package board

import (
	"strings"

	"github.com/Benbentwo/aim/internal/kanban"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
)

// cardHeight is the rendered height of one card including its border
const cardHeight = 4

// renderColumn renders a single column, scrolled so the cursor card is visible
func renderColumn(col kanban.Column, cursorIssue int, active bool, bound map[string]bool, width, height int, s *styles.Styles) string {
	headerStyle := s.StateType(col.Key.Type).Padding(0, 1).MarginBottom(1)
	if active {
		headerStyle = s.ColumnHeaderActive
	}
	header := headerStyle.Render(col.Name() + " " + countLabel(len(col.Issues)))

	// header plus its margin
	visible := max(1, (height-2)/cardHeight)
	start := 0
	if cursorIssue >= visible {
		start = cursorIssue - visible + 1
	}
	end := min(len(col.Issues), start+visible)

	cards := make([]string, 0, end-start+1)
	if start > 0 {
		cards = append(cards, s.Muted.Render("  ↑ "+countLabel(start)))
	}
	for i := start; i < end; i++ {
		issue := col.Issues[i]
		cards = append(cards, renderCard(issue, i == cursorIssue, bound[issue.ID], width-1, s))
	}
	if end < len(col.Issues) {
		cards = append(cards, s.Muted.Render("  ↓ "+countLabel(len(col.Issues)-end)))
	}

	if len(cards) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, s.Muted.Render("  empty"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(cards, "\n"))
}
