// Package cli implements the non-interactive aim subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/kanban"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// defaultWidth is used when output is not a terminal
const defaultWidth = 100

// Dependencies holds the services the commands need
type Dependencies struct {
	Sessions     backend.Sessions
	Workspaces   backend.Workspaces
	Tracker      backend.Tracker
	ReposBaseDir string
	TeamID       string
	Out          io.Writer
	Logger       *slog.Logger
}

func (d *Dependencies) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// ListCommand prints every workspace and its sessions
func ListCommand(ctx context.Context, deps *Dependencies) error {
	workspaces, err := deps.Workspaces.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}

	out := deps.out()
	if len(workspaces) == 0 {
		fmt.Fprintln(out, "No workspaces. Add one with 'aim add <path|url>'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKSPACE\tSESSION\tSTATUS\tBRANCH\tID")
	for _, ws := range workspaces {
		if len(ws.Sessions) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s\n", ws.Name, ws.ID)
			continue
		}
		for _, s := range ws.Sessions {
			status := string(s.Status)
			if s.Archived {
				status = "archived"
			}
			branch := s.Branch
			if branch == "" {
				branch = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n", ws.Name, s.Name, s.Status.Icon(), status, branch, s.ID)
		}
	}
	return w.Flush()
}

// AddOptions configures AddCommand
type AddOptions struct {
	Name  string
	Agent string
}

// AddCommand registers a local repository, or clones a remote one into the repos dir
func AddCommand(ctx context.Context, deps *Dependencies, target string, opts AddOptions) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errors.New("add requires a path or repository url")
	}

	req := backend.AddWorkspaceRequest{
		Name:         opts.Name,
		Agent:        domain.ParseAgentKind(opts.Agent),
		ReposBaseDir: deps.ReposBaseDir,
	}

	out := deps.out()
	if isRepoURL(target) {
		dest, err := deps.Workspaces.PreviewCloneDestination(target, deps.ReposBaseDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cloning %s into %s\n", target, dest)
		req.RepoURL = target
	} else {
		req.Path = target
	}

	deps.logger().Info("adding workspace", "target", target, "agent", req.Agent)
	ws, err := deps.Workspaces.Add(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to add workspace: %w", err)
	}

	fmt.Fprintf(out, "✓ Added workspace %s (%s)\n", ws.Name, ws.Path)
	fmt.Fprintf(out, "  id: %s  agent: %s\n", ws.ID, ws.Agent)
	return nil
}

func isRepoURL(target string) bool {
	return strings.HasPrefix(target, "git@") || strings.Contains(target, "://")
}

// IssuesOptions configures IssuesCommand
type IssuesOptions struct {
	// Cycle shows the active cycle of the team instead of assigned issues
	Cycle  bool
	TeamID string
	Sort   string
}

// IssuesCommand prints the issue board as one block per column
func IssuesCommand(ctx context.Context, deps *Dependencies, opts IssuesOptions) error {
	if deps.Tracker == nil || !deps.Tracker.IsConnected() {
		return fmt.Errorf("set linear.apiKey in settings or AIM_LINEAR_API_KEY: %w", domain.ErrNotConnected)
	}

	var (
		snap domain.IssueSnapshot
		err  error
	)
	if opts.Cycle {
		team := opts.TeamID
		if team == "" {
			team = deps.TeamID
		}
		if team == "" {
			return errors.New("cycle view requires --team or linear.teamId")
		}
		snap, err = deps.Tracker.CycleIssues(ctx, team)
	} else {
		snap, err = deps.Tracker.MyIssues(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch issues: %w", err)
	}

	q := kanban.Query{Sort: kanban.ParseSortField(opts.Sort)}
	if me, err := deps.Tracker.Me(ctx); err == nil {
		q.MeID = me.ID
	} else {
		deps.logger().Warn("failed to fetch current user", "error", err)
	}

	states := snap.States
	if len(states) == 0 {
		states = domain.StatesFromIssues(snap.Issues)
	}
	columns := kanban.Project(snap.Issues, states, q)

	out := deps.out()
	if len(snap.Issues) == 0 {
		fmt.Fprintln(out, "No issues.")
		return nil
	}
	if snap.Cycle != nil {
		fmt.Fprintf(out, "Cycle %d %s\n\n", snap.Cycle.Number, snap.Cycle.Name)
	}

	titleWidth := max(20, Width(out)-40)
	for _, col := range columns {
		if len(col.Issues) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s (%d)\n", col.Name(), len(col.Issues))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, issue := range col.Issues {
			assignee := "-"
			if issue.Assignee != nil {
				assignee = issue.Assignee.Name
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				issue.Identifier,
				domain.PriorityLabel(issue.Priority),
				ansi.Truncate(issue.Title, titleWidth, "…"),
				assignee)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

// ArchiveCommand archives a session, keeping its worktree
func ArchiveCommand(ctx context.Context, deps *Dependencies, sessionID string) error {
	if err := deps.Sessions.Archive(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to archive %s: %w", sessionID, err)
	}
	fmt.Fprintf(deps.out(), "✓ Archived %s\n", sessionID)
	return nil
}

// UnarchiveCommand restores an archived session
func UnarchiveCommand(ctx context.Context, deps *Dependencies, sessionID string) error {
	if err := deps.Sessions.Unarchive(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to unarchive %s: %w", sessionID, err)
	}
	fmt.Fprintf(deps.out(), "✓ Restored %s\n", sessionID)
	return nil
}

// Width returns the terminal width of w, or a default when w is not a terminal
func Width(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultWidth
}

// PrintUsage prints CLI usage information
func PrintUsage(w io.Writer) {
	usage := `Usage: aim [flags] [command] [arguments]

Commands:
  (no command)               Start the aim TUI
  list                       List workspaces and sessions
  add <path|url>             Add a repository (urls are cloned into the repos dir)
      --name <name>          Display name
      --agent <kind>         claude, codex or shell
  issues                     Print your issues as kanban columns
      --cycle                Show the team's active cycle instead
      --team <id>            Team for --cycle
      --sort <field>         priority, updated or created
  archive <session-id>       Archive a session, keeping its worktree
  unarchive <session-id>     Restore an archived session
  version                    Print the version
  help                       Show this help message

Flags:
  --data-dir <dir>           Data directory (default ~/.aim, env AIM_DATA_DIR)
  --log-level <level>        debug, info, warn or error (env AIM_LOG_LEVEL)
  --metrics-addr <addr>      Serve Prometheus metrics at /metrics while the TUI runs
`
	fmt.Fprint(w, usage)
}
