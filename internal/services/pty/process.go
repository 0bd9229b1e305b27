package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/creack/pty"
)

// Process is a running agent attached to a terminal
type Process interface {
	io.Reader
	io.Writer
	Resize(cols, rows int) error
	// Wait blocks until exit and returns the exit code
	Wait() int
	Kill() error
	Close() error
}

// LaunchSpec describes the command to start
type LaunchSpec struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Launcher starts processes
type Launcher interface {
	Launch(spec LaunchSpec) (Process, error)
}

// PTYLauncher starts processes under a pseudo-terminal
type PTYLauncher struct {
	Cols uint16
	Rows uint16
}

// Launch starts spec under a new pty
func (l PTYLauncher) Launch(spec LaunchSpec) (Process, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)

	size := &pty.Winsize{Cols: l.Cols, Rows: l.Rows}
	if size.Cols == 0 || size.Rows == 0 {
		size = &pty.Winsize{Cols: 120, Rows: 40}
	}

	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, fmt.Errorf("pty start %s: %w", spec.Path, err)
	}
	return &ptyProcess{cmd: cmd, ptmx: ptmx}, nil
}

type ptyProcess struct {
	cmd  *exec.Cmd
	ptmx *os.File
}

func (p *ptyProcess) Read(b []byte) (int, error)  { return p.ptmx.Read(b) }
func (p *ptyProcess) Write(b []byte) (int, error) { return p.ptmx.Write(b) }

func (p *ptyProcess) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	return pty.Setsize(p.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

func (p *ptyProcess) Wait() int {
	err := p.cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (p *ptyProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *ptyProcess) Close() error {
	return p.ptmx.Close()
}

// AgentCommand returns how to start an agent: agents run through a login shell
// so the user's profile is loaded, the shell agent is the login shell itself.
func AgentCommand(agent domain.AgentKind, shell string) (string, []string) {
	if shell == "" {
		shell = DefaultShell()
	}
	switch agent {
	case domain.AgentClaude, domain.AgentCodex:
		return shell, []string{"-l", "-c", string(agent)}
	default:
		return shell, []string{"-l"}
	}
}

// DefaultShell returns $SHELL or /bin/zsh
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/zsh"
}
