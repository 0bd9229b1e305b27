package terminal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ErrNoLink is returned when a session's output contains no URL
var ErrNoLink = errors.New("no link in session output")

var linkPattern = regexp.MustCompile(`https?://[^\s"'<>` + "`" + `]+`)

// LastLink returns the last http or https URL in raw terminal output, or ""
func LastLink(raw []byte) string {
	matches := linkPattern.FindAllString(ansi.Strip(string(raw)), -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.TrimRight(matches[len(matches)-1], ".,;:!?)]}")
}

// OpenLastLink opens the most recent URL in a session's scrollback with opener
// and returns it. Links are opened outside the terminal, never followed in place.
func OpenLastLink(ctx context.Context, backend Backend, sessionID string, opener Opener) (string, error) {
	if opener == nil {
		return "", errors.New("no url opener configured")
	}
	encoded, err := backend.Scrollback(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("scrollback: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("scrollback: %w", err)
	}

	link := LastLink(raw)
	if link == "" {
		return "", ErrNoLink
	}
	if err := opener.Open(link); err != nil {
		return link, err
	}
	return link, nil
}
