// Package main is the entry point of aim, a terminal manager for parallel
// coding-agent sessions.
//
// Usage:
//
//	aim [flags] [command] [arguments]
//
// Without a command aim starts the TUI. Run `aim help` for the command list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Benbentwo/aim/internal/app"
	"github.com/Benbentwo/aim/internal/backend/local"
	"github.com/Benbentwo/aim/internal/cli"
	"github.com/Benbentwo/aim/internal/config"
	"github.com/Benbentwo/aim/internal/dashboard"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/kanban"
	"github.com/Benbentwo/aim/internal/services/linear"
	"github.com/Benbentwo/aim/internal/services/worktree"
	"github.com/Benbentwo/aim/internal/store"
	"github.com/Benbentwo/aim/internal/terminal"
	"github.com/Benbentwo/aim/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type options struct {
	dataDir  string
	logLevel string
	name     string
	agent    string
	cycle    bool
	team     string
	sort     string

	metricsAddr string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, rest, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	command := ""
	if len(rest) > 0 {
		command = rest[0]
	}
	switch command {
	case "help":
		cli.PrintUsage(os.Stdout)
		return nil
	case "version":
		fmt.Printf("aim %s\n", version)
		return nil
	}

	settings, err := config.LoadSettings(opts.dataDir)
	if err != nil {
		return err
	}
	level := settings.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}

	logger, closeLog, err := newLogger(opts.dataDir, level)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.New(logger.With("component", "bus"))
	be := local.New(bus, local.Options{
		DataDir:           opts.dataDir,
		Shell:             settings.Shell,
		ReposBaseDir:      settings.ReposBaseDir,
		DefaultAgent:      domain.ParseAgentKind(settings.DefaultAgent),
		ArchiveCleanupAge: settings.ArchiveCleanupAge(),
		Linear:            linearOptions(settings),
	}, logger)
	if err := be.Start(ctx); err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}
	defer be.Shutdown()

	deps := &cli.Dependencies{
		Sessions:     be.Host,
		Workspaces:   be.Workspaces,
		Tracker:      be.Tracker,
		ReposBaseDir: settings.ReposBaseDir,
		TeamID:       settings.Linear.TeamID,
		Out:          os.Stdout,
		Logger:       logger,
	}

	switch command {
	case "":
		addr := opts.metricsAddr
		if addr == "" {
			addr = settings.Dashboard.MetricsAddr
		}
		return runTUI(ctx, settings, bus, be, addr, logger)
	case "list":
		return cli.ListCommand(ctx, deps)
	case "add":
		target, err := argAt(rest, 1, "add <path|url>")
		if err != nil {
			return err
		}
		return cli.AddCommand(ctx, deps, target, cli.AddOptions{Name: opts.name, Agent: opts.agent})
	case "issues":
		return cli.IssuesCommand(ctx, deps, cli.IssuesOptions{Cycle: opts.cycle, TeamID: opts.team, Sort: opts.sort})
	case "archive":
		id, err := argAt(rest, 1, "archive <session-id>")
		if err != nil {
			return err
		}
		return cli.ArchiveCommand(ctx, deps, id)
	case "unarchive":
		id, err := argAt(rest, 1, "unarchive <session-id>")
		if err != nil {
			return err
		}
		return cli.UnarchiveCommand(ctx, deps, id)
	default:
		cli.PrintUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseFlags(args []string) (options, []string, error) {
	var opts options
	defaultDataDir := os.Getenv("AIM_DATA_DIR")
	if defaultDataDir == "" {
		defaultDataDir = config.DefaultDataDir()
	}

	fs := pflag.NewFlagSet("aim", pflag.ContinueOnError)
	fs.StringVar(&opts.dataDir, "data-dir", defaultDataDir, "data directory")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&opts.name, "name", "", "workspace display name (add)")
	fs.StringVar(&opts.agent, "agent", "", "agent kind: claude, codex or shell (add)")
	fs.BoolVar(&opts.cycle, "cycle", false, "show the team's active cycle (issues)")
	fs.StringVar(&opts.team, "team", "", "team id for --cycle (issues)")
	fs.StringVar(&opts.sort, "sort", "", "sort field: priority, updated or created (issues)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the TUI runs")
	fs.Usage = func() { cli.PrintUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return opts, nil, err
	}
	return opts, fs.Args(), nil
}

func argAt(args []string, i int, usage string) (string, error) {
	if len(args) <= i || args[i] == "" {
		return "", fmt.Errorf("usage: aim %s", usage)
	}
	return args[i], nil
}

func linearOptions(settings *config.Settings) linear.Options {
	opts := linear.DefaultOptions()
	opts.Endpoint = settings.Linear.Endpoint
	opts.APIKey = settings.Linear.APIKey
	opts.OAuthToken = settings.Linear.OAuthToken
	return opts
}

// newLogger writes text logs to <dataDir>/logs/aim.log; the TUI owns stdout
func newLogger(dataDir, level string) (*slog.Logger, func(), error) {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "aim.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return newTextLogger(f, level), func() { f.Close() }, nil
}

func newTextLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func runTUI(ctx context.Context, settings *config.Settings, bus *events.Bus, be *local.Backend, metricsAddr string, logger *slog.Logger) error {
	st := store.New()
	follower := store.Follow(st, bus, be.Host, logger.With("component", "store"))
	defer follower.Stop()

	board := kanban.NewBoard(be.Tracker, bus, settings.PollInterval(), logger.With("component", "board"))
	defer board.Close()
	bindings := kanban.NewBindings()

	reg := prometheus.NewRegistry()
	agg := dashboard.New(st, bus, dashboard.Options{
		SampleInterval: secondsOr(settings.Dashboard.SampleIntervalSec),
		HistorySize:    settings.Dashboard.HistorySize,
		StuckThreshold: secondsOr(settings.Dashboard.StuckThresholdSec),
		Registerer:     reg,
	}, logger.With("component", "dashboard"))
	go agg.Run(ctx)

	if metricsAddr != "" {
		go func() {
			if err := dashboard.Serve(ctx, metricsAddr, reg, logger.With("component", "metrics")); err != nil {
				logger.Error("metrics server failed", "addr", metricsAddr, "error", err)
			}
		}()
	}

	flow := workflow.NewFlow(be.Host, be.Workspaces, st, bindings, bus, workflow.Options{
		RepoRoots:        settings.RepoRoots(),
		Agent:            domain.ParseAgentKind(settings.DefaultAgent),
		DetectionTimeout: settings.DetectionTimeout(),
		PromptDelay:      settings.PromptDelay(),
	}, logger.With("component", "workflow"))

	model := app.New(app.Deps{
		Store:      st,
		Sessions:   be.Host,
		Workspaces: be.Workspaces,
		Instant: worktree.NewSessionService(be.Host, be.Repos, st, worktree.InstantOptions{
			DefaultWorktree: settings.DefaultWorktree,
		}, logger.With("component", "instant")),
		Lifecycle: worktree.NewLifecycle(be.Host, st, logger.With("component", "lifecycle")),
		Board:     board,
		Bindings:  bindings,
		Flow:      flow,
		Dashboard: agg,
		Bus:       bus,
		Opener:    terminal.NewSystemOpener(),
		TeamID:    settings.Linear.TeamID,
		Logger:    logger.With("component", "app"),
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

func secondsOr(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
