package overlay

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Benbentwo/aim/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// Selection keys emitted by StartWorkOverlay
const (
	StartWorkParse   = "start-work:parse"
	StartWorkManual  = "start-work:manual"
	StartWorkCancel  = "start-work:cancel"
	StartWorkConfirm = "start-work:confirm"
)

// WorkStateMsg carries a new snapshot of a start-work run
type WorkStateMsg struct {
	State workflow.State
}

// outputTail is how many lines of detection output are shown
const outputTail = 6

// StartWorkOverlay follows a start-work run: detection progress, then a
// checklist of candidate repositories pre-checked with the detected ones.
type StartWorkOverlay struct {
	state   workflow.State
	checked map[string]bool
	cursor  int
	styles  *Styles
}

// NewStartWorkOverlay creates the overlay from the run's first snapshot
func NewStartWorkOverlay(state workflow.State) *StartWorkOverlay {
	o := &StartWorkOverlay{checked: make(map[string]bool), styles: New()}
	o.apply(state)
	return o
}

func (o *StartWorkOverlay) apply(state workflow.State) {
	entering := o.state.Step != state.Step
	o.state = state
	if entering && state.Step == workflow.StepConfirm {
		for _, r := range state.Detected {
			o.checked[r] = true
		}
	}
	o.cursor = max(0, min(o.cursor, len(state.Candidates)-1))
}

// IsStartWork matches a StartWorkOverlay in a Stack
func IsStartWork(o Overlay) bool {
	_, ok := o.(*StartWorkOverlay)
	return ok
}

// Selected returns the checked repositories in candidate order
func (o *StartWorkOverlay) Selected() []string {
	var out []string
	for _, c := range o.state.Candidates {
		if o.checked[c] {
			out = append(out, c)
		}
	}
	return out
}

func (o *StartWorkOverlay) Init() tea.Cmd {
	return nil
}

func (o *StartWorkOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case WorkStateMsg:
		o.apply(msg.State)
		return o, nil
	case tea.KeyMsg:
		return o, o.handleKey(msg.String())
	}
	return o, nil
}

func (o *StartWorkOverlay) handleKey(k string) tea.Cmd {
	if k == "esc" {
		return selectCmd(StartWorkCancel, o.state.Issue.ID)
	}

	switch o.state.Step {
	case workflow.StepDetecting:
		switch k {
		case "p", "enter":
			return selectCmd(StartWorkParse, o.state.Issue.ID)
		case "m":
			return selectCmd(StartWorkManual, o.state.Issue.ID)
		}

	case workflow.StepConfirm, workflow.StepManual:
		switch k {
		case "j", "down":
			o.cursor = min(o.cursor+1, max(0, len(o.state.Candidates)-1))
		case "k", "up":
			o.cursor = max(o.cursor-1, 0)
		case " ", "x":
			if o.cursor < len(o.state.Candidates) {
				repo := o.state.Candidates[o.cursor]
				o.checked[repo] = !o.checked[repo]
			}
		case "enter":
			if selected := o.Selected(); len(selected) > 0 {
				return selectCmd(StartWorkConfirm, selected)
			}
		}

	case workflow.StepDone, workflow.StepCanceled:
		return closeCmd
	}
	return nil
}

func (o *StartWorkOverlay) View() string {
	var b strings.Builder
	issue := o.state.Issue
	b.WriteString(o.styles.MenuHeader.Render(issue.Identifier) + " " + o.styles.MenuItem.Render(issue.Title))
	b.WriteString("\n\n")

	switch o.state.Step {
	case workflow.StepDetecting:
		b.WriteString(o.styles.MenuItem.Render(fmt.Sprintf("Asking the agent which of %d repositories are involved…", len(o.state.Candidates))))
		b.WriteString("\n")
		for _, line := range tail(o.state.Output, outputTail) {
			b.WriteString(o.styles.Muted.Render("  " + ansi.Truncate(line, 60, "…")))
			b.WriteString("\n")
		}
		b.WriteString(o.styles.Footer.Render("p: parse now • m: pick manually • Esc: cancel"))

	case workflow.StepConfirm, workflow.StepManual:
		if o.state.Step == workflow.StepManual {
			b.WriteString(o.styles.MenuItem.Render("Pick the repositories for this issue:"))
		} else {
			b.WriteString(o.styles.MenuItem.Render("Detected repositories, confirm or adjust:"))
		}
		b.WriteString("\n")
		if len(o.state.Candidates) == 0 {
			b.WriteString(o.styles.Muted.Render("  no repositories found under the repos directories"))
			b.WriteString("\n")
		}
		for i, repo := range o.state.Candidates {
			box := "[ ]"
			if o.checked[repo] {
				box = o.styles.Checked.Render("[x]")
			}
			name := filepath.Base(repo)
			line := fmt.Sprintf("%s %s %s", box, name, o.styles.Muted.Render(repo))
			if i == o.cursor {
				line = o.styles.MenuItemActive.Render("▶ ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		if o.state.Err != nil {
			b.WriteString(o.styles.Error.Render(o.state.Err.Error()))
			b.WriteString("\n")
		}
		b.WriteString(o.styles.Footer.Render("Space: toggle • Enter: create sessions • Esc: cancel"))

	case workflow.StepCreating:
		b.WriteString(o.styles.MenuItem.Render("Creating worktree sessions…"))

	case workflow.StepDone:
		b.WriteString(o.styles.Checked.Render(fmt.Sprintf("Started %d session(s) on %s", len(o.state.SessionIDs), workflow.IssueBranch(issue.Identifier))))
		b.WriteString("\n")
		b.WriteString(o.styles.Footer.Render("any key: close"))

	case workflow.StepCanceled:
		b.WriteString(o.styles.Muted.Render("Canceled"))
	}

	return b.String()
}

func tail(output string, n int) []string {
	clean := strings.ReplaceAll(ansi.Strip(output), "\r", "")
	var lines []string
	for _, l := range strings.Split(clean, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func (o *StartWorkOverlay) Title() string {
	return "Start work"
}

func (o *StartWorkOverlay) Size() (width, height int) {
	return 72, max(12, len(o.state.Candidates)+8)
}
