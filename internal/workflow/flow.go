package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/kanban"
)

// Defaults for the detection policy
const (
	DefaultDetectionTimeout = 30 * time.Second
	DefaultPromptDelay      = 2 * time.Second

	// maxDetectionOutput bounds the buffered agent output
	maxDetectionOutput = 256 * 1024
)

// Step is the stage of one start-work run
type Step string

const (
	StepDetecting Step = "detecting"
	StepConfirm   Step = "confirm"
	StepManual    Step = "manual"
	StepCreating  Step = "creating"
	StepDone      Step = "done"
	StepCanceled  Step = "canceled"
)

// ErrNoRepos is returned by Confirm when no repository is selected
var ErrNoRepos = errors.New("no repositories selected")

// Store is the part of the session store the flow updates
type Store interface {
	Workspaces() []domain.Workspace
	AddWorkspace(ws domain.Workspace)
	AddSession(session domain.Session)
}

// Options configures a Flow
type Options struct {
	// RepoRoots are searched one level deep for candidate repositories. The
	// first root also hosts the detection session directory.
	RepoRoots        []string
	Agent            domain.AgentKind
	DetectionTimeout time.Duration
	PromptDelay      time.Duration
}

// Flow starts work on issues
type Flow struct {
	sessions   backend.Sessions
	workspaces backend.Workspaces
	store      Store
	bindings   *kanban.Bindings
	bus        *events.Bus
	opts       Options
	logger     *slog.Logger
}

// NewFlow creates a start-work flow
func NewFlow(sessions backend.Sessions, workspaces backend.Workspaces, store Store, bindings *kanban.Bindings, bus *events.Bus, opts Options, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DetectionTimeout <= 0 {
		opts.DetectionTimeout = DefaultDetectionTimeout
	}
	if opts.PromptDelay <= 0 {
		opts.PromptDelay = DefaultPromptDelay
	}
	if !opts.Agent.Valid() {
		opts.Agent = domain.AgentClaude
	}
	return &Flow{
		sessions:   sessions,
		workspaces: workspaces,
		store:      store,
		bindings:   bindings,
		bus:        bus,
		opts:       opts,
		logger:     logger,
	}
}

// State is a snapshot of a run
type State struct {
	Issue       domain.Issue
	Step        Step
	Candidates  []string
	Detected    []string
	DetectionID string
	Output      string
	SessionIDs  []string
	Err         error
}

// Run is one start-work attempt for an issue
type Run struct {
	flow *Flow

	mu          sync.Mutex
	issue       domain.Issue
	step        Step
	candidates  []string
	detected    []string
	detectionID string
	output      strings.Builder
	sessionIDs  []string
	err         error
	sub         *events.Subscription
	timers      []*time.Timer
	onChange    func(State)
}

// StartWork binds the issue and begins repository detection. With no
// candidate repositories, or when the detection session cannot start, the run
// goes straight to manual selection. onChange, if set, receives every state
// transition.
func (f *Flow) StartWork(ctx context.Context, issue domain.Issue, onChange func(State)) (*Run, error) {
	f.bindings.Bind(issue)

	run := &Run{flow: f, issue: issue, step: StepDetecting, onChange: onChange}

	candidates, err := ListRepoDirectories(f.opts.RepoRoots)
	if err != nil {
		f.bindings.Release(issue.ID)
		return nil, err
	}
	run.candidates = candidates

	if len(candidates) == 0 || len(f.opts.RepoRoots) == 0 {
		f.logger.Info("no candidate repositories, manual selection", "issue", issue.Identifier)
		run.transition(StepManual, nil)
		return run, nil
	}

	dir, err := PrepareWorkspace(f.opts.RepoRoots[0], issue.Identifier)
	if err != nil {
		run.transition(StepManual, err)
		return run, nil
	}

	session, err := f.sessions.Create(ctx, backend.SessionConfig{
		Name:      "detect-" + issue.Identifier,
		Agent:     f.opts.Agent,
		Directory: dir,
	})
	if err != nil {
		f.logger.Warn("failed to start detection session", "issue", issue.Identifier, "error", err)
		run.transition(StepManual, err)
		return run, nil
	}

	prompt := DetectReposPrompt(issue.Title, issue.Description, candidates)

	run.mu.Lock()
	run.detectionID = session.ID
	run.sub = f.bus.Subscribe(events.SessionData, session.ID, run.onData)
	run.timers = append(run.timers,
		time.AfterFunc(f.opts.PromptDelay, func() {
			if err := f.sessions.Write(context.Background(), session.ID, prompt+"\n"); err != nil {
				f.logger.Warn("failed to send detection prompt", "sessionID", session.ID, "error", err)
			}
		}),
		time.AfterFunc(f.opts.DetectionTimeout, func() {
			run.Parse()
		}),
	)
	run.mu.Unlock()

	f.logger.Info("detecting repositories", "issue", issue.Identifier, "sessionID", session.ID, "candidates", len(candidates))
	run.notify()
	return run, nil
}

func (r *Run) onData(payload any) {
	encoded, ok := payload.(string)
	if !ok {
		r.flow.logger.Debug("dropping malformed session data", "sessionID", r.detectionID)
		return
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return
	}

	r.mu.Lock()
	if r.step != StepDetecting || r.output.Len()+len(data) > maxDetectionOutput {
		r.mu.Unlock()
		return
	}
	r.output.Write(data)
	r.mu.Unlock()
	r.notify()
}

// Parse reads the detected repositories from the agent output collected so
// far. It runs on the detection timeout or when the user asks for results.
// No match falls back to manual selection.
func (r *Run) Parse() {
	r.mu.Lock()
	if r.step != StepDetecting {
		r.mu.Unlock()
		return
	}
	r.stopDetectionLocked()
	detected := ParseDetectedRepos(answerSection(r.output.String(), r.candidates), r.candidates)
	r.detected = detected
	r.step = StepManual
	if len(detected) > 0 {
		r.step = StepConfirm
	}
	r.mu.Unlock()

	if len(detected) > 0 {
		r.flow.bindings.SetRepos(r.issue.ID, detected)
	}
	r.notify()
}

// Skip abandons detection for manual selection
func (r *Run) Skip() {
	r.mu.Lock()
	if r.step != StepDetecting {
		r.mu.Unlock()
		return
	}
	r.stopDetectionLocked()
	r.step = StepManual
	r.mu.Unlock()
	r.notify()
}

// Confirm creates one worktree session per repository on the issue branch,
// binds them to the issue and closes the detection session.
func (r *Run) Confirm(ctx context.Context, repos []string) error {
	if len(repos) == 0 {
		return ErrNoRepos
	}

	r.mu.Lock()
	if r.step != StepConfirm && r.step != StepManual {
		step := r.step
		r.mu.Unlock()
		return fmt.Errorf("cannot confirm in step %s: %w", step, domain.ErrConflict)
	}
	previous := r.step
	r.stopDetectionLocked()
	r.step = StepCreating
	r.err = nil
	r.mu.Unlock()
	r.notify()

	f := r.flow
	f.bindings.SetRepos(r.issue.ID, repos)
	branch := IssueBranch(r.issue.Identifier)

	var created []string
	for _, repo := range repos {
		ws, err := f.workspaceFor(ctx, repo)
		if err != nil {
			r.fail(previous, created, err)
			return err
		}

		agent := ws.Agent
		if !agent.Valid() {
			agent = f.opts.Agent
		}
		session, err := f.sessions.Create(ctx, backend.SessionConfig{
			Name:        IssueSessionName(r.issue.Identifier, repo),
			Agent:       agent,
			Directory:   repo,
			UseWorktree: true,
			Branch:      branch,
			WorkspaceID: ws.ID,
		})
		if err != nil {
			err = &domain.BackendError{Op: "create", Err: fmt.Errorf("%s: %w", repo, err)}
			r.fail(previous, created, err)
			return err
		}
		if session.WorkspaceID == "" {
			session.WorkspaceID = ws.ID
		}

		f.store.AddSession(session)
		f.bindings.AddSession(r.issue.ID, session.ID)
		created = append(created, session.ID)
	}

	r.closeDetection(ctx)

	r.mu.Lock()
	r.sessionIDs = created
	r.mu.Unlock()

	f.logger.Info("started work on issue", "issue", r.issue.Identifier, "sessions", len(created))
	r.transition(StepDone, nil)
	return nil
}

// Cancel stops detection and closes the detection session
func (r *Run) Cancel(ctx context.Context) {
	r.mu.Lock()
	if r.step == StepDone || r.step == StepCanceled {
		r.mu.Unlock()
		return
	}
	r.stopDetectionLocked()
	r.step = StepCanceled
	r.mu.Unlock()

	r.closeDetection(ctx)
	r.flow.bindings.Release(r.issue.ID)
	r.notify()
}

// State returns a snapshot of the run
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Run) stateLocked() State {
	return State{
		Issue:       r.issue,
		Step:        r.step,
		Candidates:  append([]string(nil), r.candidates...),
		Detected:    append([]string(nil), r.detected...),
		DetectionID: r.detectionID,
		Output:      r.output.String(),
		SessionIDs:  append([]string(nil), r.sessionIDs...),
		Err:         r.err,
	}
}

// fail returns to the selection step after a partial creation. Sessions
// already created stay bound to the issue.
func (r *Run) fail(previous Step, created []string, err error) {
	r.flow.logger.Error("failed to start work", "issue", r.issue.Identifier, "created", len(created), "error", err)
	r.mu.Lock()
	r.sessionIDs = created
	r.mu.Unlock()
	r.transition(previous, err)
}

func (r *Run) transition(step Step, err error) {
	r.mu.Lock()
	r.step = step
	r.err = err
	r.mu.Unlock()
	r.notify()
}

func (r *Run) notify() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.State())
}

func (r *Run) stopDetectionLocked() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
	r.sub.Unsubscribe()
	r.sub = nil
}

func (r *Run) closeDetection(ctx context.Context) {
	r.mu.Lock()
	id := r.detectionID
	r.detectionID = ""
	r.mu.Unlock()

	if id == "" {
		return
	}
	if err := r.flow.sessions.Close(ctx, id); err != nil {
		r.flow.logger.Warn("failed to close detection session", "sessionID", id, "error", err)
	}
}

// workspaceFor returns the workspace registered at repo, registering it when missing
func (f *Flow) workspaceFor(ctx context.Context, repo string) (domain.Workspace, error) {
	clean := filepath.Clean(repo)
	for _, ws := range f.store.Workspaces() {
		if filepath.Clean(ws.Path) == clean {
			return ws, nil
		}
	}

	ws, err := f.workspaces.Add(ctx, backend.AddWorkspaceRequest{Path: clean, Agent: f.opts.Agent, NoInitialSession: true})
	if err != nil {
		return domain.Workspace{}, err
	}
	f.store.AddWorkspace(ws)
	return ws, nil
}

// IssueBranch returns the branch used for every session of an issue
func IssueBranch(identifier string) string {
	return "aim/linear/" + strings.ToLower(identifier)
}

// IssueSessionName names the session working an issue in repo
func IssueSessionName(identifier, repo string) string {
	return identifier + " - " + filepath.Base(repo)
}
