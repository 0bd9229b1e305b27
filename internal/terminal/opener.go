package terminal

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
)

// SystemOpener opens URLs with the platform's default handler
type SystemOpener struct {
	// lookPath is swapped in tests
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// NewSystemOpener creates an opener using xdg-open on Linux or open on macOS
func NewSystemOpener() *SystemOpener {
	return &SystemOpener{
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.CommandContext(context.Background(), name, args...).Start()
		},
	}
}

// Open launches the handler for rawURL. Only http, https and mailto links are opened.
func (o *SystemOpener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https", "mailto":
	default:
		return fmt.Errorf("refusing to open %q: unsupported scheme", rawURL)
	}

	for _, cmd := range []string{"xdg-open", "open"} {
		if _, err := o.lookPath(cmd); err == nil {
			return o.start(cmd, u.String())
		}
	}
	return fmt.Errorf("no url opener found")
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(url string) error

// Open calls f(url)
func (f OpenerFunc) Open(url string) error {
	return f(url)
}
