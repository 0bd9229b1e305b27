package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/backend"
	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/Benbentwo/aim/internal/terminal"
	"github.com/Benbentwo/aim/internal/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// detachKey is ctrl+]
const detachKey = 0x1d

const fitInterval = 250 * time.Millisecond

var errSessionExited = errors.New("session exited")

type attachDoneMsg struct {
	sessionID string
	err       error
}

// inputObserver sees every chunk the user types into a session
type inputObserver interface {
	ObserveInput(ctx context.Context, sessionID, input string) bool
}

// attachCommand hands the terminal to one session until the user detaches
// or the session exits. It implements tea.ExecCommand.
type attachCommand struct {
	session  domain.Session
	sessions backend.Sessions
	bus      *events.Bus
	observer inputObserver
	logger   *slog.Logger

	stdin  io.Reader
	stdout io.Writer
}

func (c *attachCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *attachCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *attachCommand) SetStderr(io.Writer)   {}

func (c *attachCommand) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := c.session.ID
	if !c.session.Status.Live() {
		if err := c.sessions.Resume(ctx, id); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
	}

	in, out := c.stdin, c.stdout
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), state)
	}

	fmt.Fprint(out, "\x1b[2J\x1b[H")

	bridge := terminal.NewBridge(id, c.sessions, c.bus, surfaceFor(out), c.logger)
	defer bridge.Detach()
	if err := bridge.Attach(ctx); err != nil {
		if errors.Is(err, terminal.ErrDetached) {
			return err
		}
		// Missing scrollback or a failed resize still leaves a usable session
		c.logger.Warn("attached with errors", "sessionID", id, "error", err)
	}

	exited := make(chan struct{})
	var once sync.Once
	sub := c.bus.Subscribe(events.SessionExit, id, func(any) {
		once.Do(func() { close(exited) })
	})
	defer sub.Unsubscribe()

	reader, err := cancelreader.NewReader(in)
	if err != nil {
		return fmt.Errorf("stdin: %w", err)
	}
	defer reader.Close()

	go func() {
		select {
		case <-exited:
			reader.Cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		ticker := time.NewTicker(fitInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := bridge.Fit(ctx); err != nil {
					c.logger.Debug("resize failed", "sessionID", id, "error", err)
				}
			}
		}
	}()

	err = pump(reader,
		func(text string) error { return bridge.Input(ctx, text) },
		func(text string) { c.observer.ObserveInput(ctx, id, text) },
	)
	if errors.Is(err, cancelreader.ErrCanceled) {
		return errSessionExited
	}
	return err
}

// surfaceFor renders into out, sizing from the terminal when out is one
func surfaceFor(out io.Writer) terminal.Surface {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return terminal.NewTTYSurface(f)
	}
	return &terminal.WriterSurface{W: struct{ io.Writer }{out}, Cols: 120, Rows: 40}
}

// pump copies keystrokes from r to input until the detach key or EOF. Bytes
// typed before the detach key in the same read are still delivered.
func pump(r io.Reader, input func(string) error, observe func(string)) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			idx := bytes.IndexByte(chunk, detachKey)
			if idx >= 0 {
				chunk = chunk[:idx]
			}
			if len(chunk) > 0 {
				text := string(chunk)
				if werr := input(text); werr != nil {
					return werr
				}
				observe(text)
			}
			if idx >= 0 {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m Model) attachCmd(session domain.Session) tea.Cmd {
	cmd := &attachCommand{
		session:  session,
		sessions: m.deps.Sessions,
		bus:      m.deps.Bus,
		observer: m.deps.Lifecycle,
		logger:   m.logger,
	}
	return tea.Exec(cmd, func(err error) tea.Msg {
		return attachDoneMsg{sessionID: session.ID, err: err}
	})
}

func (m Model) handleAttachDone(msg attachDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, errSessionExited):
		m.addToast(types.ToastInfo, "Session exited")
	case msg.err != nil:
		m.logger.Warn("attach failed", "sessionID", msg.sessionID, "error", msg.err)
		m.addToast(types.ToastError, "Attach: "+msg.err.Error())
	}
	m.selectSession(msg.sessionID)
	return m, nil
}
