// Package workflow implements starting work from an issue: an agent session
// is asked which local repositories the issue touches, the user confirms or
// picks them by hand, and one worktree session per repository is created and
// bound to the issue.
package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// promptListMarker ends the instruction part of the detection prompt
const promptListMarker = "with no other text:"

var bulletPrefix = regexp.MustCompile(`^[-*]\s*`)

// ListRepoDirectories returns the git repositories exactly one level below
// each root, in root order. Missing roots are skipped.
func ListRepoDirectories(roots []string) ([]string, error) {
	var repos []string
	seen := make(map[string]bool)

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read repos dir %s: %w", root, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if info, err := os.Stat(filepath.Join(path, ".git")); err != nil || !info.IsDir() {
				continue
			}
			if !seen[path] {
				seen[path] = true
				repos = append(repos, path)
			}
		}
	}
	return repos, nil
}

// PrepareWorkspace creates <baseDir>/linear/<identifier> for the detection session
func PrepareWorkspace(baseDir, identifier string) (string, error) {
	dir := filepath.Join(baseDir, "linear", identifier)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create workspace dir: %w", err)
	}
	return dir, nil
}

// DetectReposPrompt builds the question sent to the detection agent
func DetectReposPrompt(title, description string, repos []string) string {
	return fmt.Sprintf(`Given this Linear task:
Title: %s
Description: %s

Which of these repositories are relevant to this task? List only the full paths, one per line, %s
  - %s`, title, description, promptListMarker, strings.Join(repos, "\n  - "))
}

// ParseDetectedRepos extracts the candidate paths named in output. Each line
// is trimmed and a leading "- " or "* " removed; only absolute paths present
// in candidates are kept, deduplicated, in order of appearance.
func ParseDetectedRepos(output string, candidates []string) []string {
	var detected []string
	for _, line := range strings.FieldsFunc(output, func(r rune) bool { return r == '\n' || r == '\r' }) {
		path := bulletPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		path = strings.TrimSpace(path)
		if !strings.HasPrefix(path, "/") || !slices.Contains(candidates, path) {
			continue
		}
		if !slices.Contains(detected, path) {
			detected = append(detected, path)
		}
	}
	return detected
}

// answerSection strips escape sequences from raw agent output and drops the
// terminal echo of the prompt, so the candidate list in the prompt itself is
// not mistaken for an answer.
func answerSection(raw string, candidates []string) string {
	text := ansi.Strip(raw)

	idx := strings.LastIndex(text, promptListMarker)
	if idx < 0 {
		return text
	}
	rest := text[idx+len(promptListMarker):]

	lines := strings.SplitAfter(rest, "\n")
	// the marker line itself plus one echoed line per candidate
	skip := 1 + len(candidates)
	if skip >= len(lines) {
		return ""
	}
	return strings.Join(lines[skip:], "")
}
