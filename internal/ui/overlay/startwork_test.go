package overlay

import (
	"errors"
	"testing"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workState(step workflow.Step) workflow.State {
	return workflow.State{
		Issue:      domain.Issue{ID: "i1", Identifier: "ENG-7", Title: "Fix login"},
		Step:       step,
		Candidates: []string{"/src/api", "/src/web", "/src/docs"},
	}
}

func TestStartWork_DetectingKeys(t *testing.T) {
	o := NewStartWorkOverlay(workState(workflow.StepDetecting))

	view := ansi.Strip(o.View())
	assert.Contains(t, view, "ENG-7")
	assert.Contains(t, view, "3 repositories")

	_, cmd := o.Update(runeKey('p'))
	assert.Equal(t, SelectionMsg{Key: StartWorkParse, Value: "i1"}, cmd())

	_, cmd = o.Update(runeKey('m'))
	assert.Equal(t, SelectionMsg{Key: StartWorkManual, Value: "i1"}, cmd())

	_, cmd = o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, SelectionMsg{Key: StartWorkCancel, Value: "i1"}, cmd())
}

func TestStartWork_ShowsOutputTail(t *testing.T) {
	state := workState(workflow.StepDetecting)
	state.Output = "\x1b[1mline one\x1b[0m\r\n\r\nline two\r\n"

	view := ansi.Strip(NewStartWorkOverlay(state).View())

	assert.Contains(t, view, "line one")
	assert.Contains(t, view, "line two")
}

func TestStartWork_ConfirmPrechecksDetected(t *testing.T) {
	o := NewStartWorkOverlay(workState(workflow.StepDetecting))

	confirm := workState(workflow.StepConfirm)
	confirm.Detected = []string{"/src/web"}
	o.Update(WorkStateMsg{State: confirm})

	assert.Equal(t, []string{"/src/web"}, o.Selected())

	// toggle the first candidate on
	o.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"/src/api", "/src/web"}, o.Selected())

	// move down and toggle web off
	o.Update(runeKey('j'))
	o.Update(runeKey('x'))
	assert.Equal(t, []string{"/src/api"}, o.Selected())

	_, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectionMsg{Key: StartWorkConfirm, Value: []string{"/src/api"}}, cmd())
}

func TestStartWork_ManualEnterNeedsSelection(t *testing.T) {
	o := NewStartWorkOverlay(workState(workflow.StepManual))

	_, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	// cursor stays in range
	for i := 0; i < 5; i++ {
		o.Update(runeKey('j'))
	}
	assert.Equal(t, 2, o.cursor)
	o.Update(runeKey('k'))
	assert.Equal(t, 1, o.cursor)
}

func TestStartWork_ShowsError(t *testing.T) {
	state := workState(workflow.StepManual)
	state.Err = errors.New("worktree exists")

	assert.Contains(t, ansi.Strip(NewStartWorkOverlay(state).View()), "worktree exists")
}

func TestStartWork_DoneClosesOnAnyKey(t *testing.T) {
	state := workState(workflow.StepDone)
	state.SessionIDs = []string{"s1", "s2"}
	o := NewStartWorkOverlay(state)

	assert.Contains(t, ansi.Strip(o.View()), "Started 2 session(s) on aim/linear/eng-7")

	_, cmd := o.Update(runeKey('z'))
	require.NotNil(t, cmd)
	assert.Equal(t, CloseOverlayMsg{}, cmd())
}
