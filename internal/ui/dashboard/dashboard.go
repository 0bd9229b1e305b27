// Package dashboard renders the agent activity dashboard.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	agg "github.com/Benbentwo/aim/internal/dashboard"
	"github.com/Benbentwo/aim/internal/ui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Render draws status counts, the activity history and the per-session table
func Render(data agg.Data, s *styles.Styles, width, height int) string {
	if len(data.Sessions) == 0 && len(data.History) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			s.Muted.Render("No samples yet. Metrics appear after the first sample interval."))
	}

	inner := max(10, width-4)
	sections := []string{
		renderCounts(latest(data), s),
		s.Panel.Width(max(1, width-2)).Render(s.PanelTitle.Render("Active agents") + "\n" + Sparkline(activeSeries(data.History), inner)),
	}
	if len(data.Stuck) > 0 {
		sections = append(sections, renderStuck(data.Stuck, s))
	}
	sections = append(sections, renderTable(data.Sessions, s, inner))

	return lipgloss.NewStyle().MaxHeight(height).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func latest(data agg.Data) agg.Snapshot {
	if n := len(data.History); n > 0 {
		return data.History[n-1]
	}
	return agg.Snapshot{}
}

func renderCounts(snap agg.Snapshot, s *styles.Styles) string {
	stat := func(label string, n int) string {
		return s.Panel.Render(s.Stat.Render(fmt.Sprintf("%d", n)) + "\n" + s.StatLabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		stat("active", snap.Active),
		stat("thinking", snap.Thinking),
		stat("waiting", snap.Waiting),
		stat("idle", snap.Idle),
	)
}

func activeSeries(history []agg.Snapshot) []int {
	out := make([]int, len(history))
	for i, h := range history {
		out[i] = h.Active
	}
	return out
}

// Sparkline draws the last width values scaled to the largest one
func Sparkline(values []int, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	peak := 0
	for _, v := range values {
		peak = max(peak, v)
	}

	var b strings.Builder
	for _, v := range values {
		if peak == 0 {
			b.WriteRune(sparkBlocks[0])
			continue
		}
		idx := v * (len(sparkBlocks) - 1) / peak
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func renderStuck(stuck []agg.SessionMetrics, s *styles.Styles) string {
	lines := []string{s.Stuck.Render(fmt.Sprintf("Stuck agents (%d)", len(stuck)))}
	for _, m := range stuck {
		lines = append(lines, fmt.Sprintf("  %s  waiting %s", m.SessionName, FormatDuration(m.WaitingTime)))
	}
	return strings.Join(lines, "\n")
}

func renderTable(sessions []agg.SessionMetrics, s *styles.Styles, width int) string {
	header := fmt.Sprintf("%-24s %-7s %-9s %8s %8s %8s %8s", "SESSION", "AGENT", "STATUS", "THINK", "WAIT", "IDLE", "TOTAL")
	lines := []string{s.StatLabel.Render(ansi.Truncate(header, width, ""))}

	for _, m := range sessions {
		name := ansi.Truncate(m.SessionName, 24, "…")
		status := s.Status(m.Status).Render(fmt.Sprintf("%-9s", m.Status))
		row := fmt.Sprintf("%-24s %-7s %s %8s %8s %8s %8s",
			name, m.Agent, status,
			FormatDuration(m.ThinkingTime), FormatDuration(m.WaitingTime),
			FormatDuration(m.IdleTime), FormatDuration(m.TotalTime))
		if m.Stuck {
			row += " " + s.Stuck.Render("stuck")
		}
		lines = append(lines, ansi.Truncate(row, width, ""))
	}
	return strings.Join(lines, "\n")
}

// FormatDuration renders d compactly: 45s, 12m, 3h05m
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
