// Package worktree implements the temporary-branch lifecycle of worktree
// sessions: an instant session starts on a generated tmp branch, which is
// renamed from the user's first submitted message.
package worktree

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// BranchNamespace prefixes every named branch
	BranchNamespace = "aim/"
	// TempBranchPrefix prefixes generated placeholder branches
	TempBranchPrefix = "tmp-"
	// FallbackSlug is used when a message has no usable characters
	FallbackSlug = "session"

	// maxBranchWords counts the namespace segment, leaving five words for the message
	maxBranchWords = 6
	maxSlugLength  = 50
)

var tempBranchPattern = regexp.MustCompile(`^tmp-[0-9a-f]{6}$`)

// NewTempBranch returns a placeholder branch name of the form tmp-<6 hex chars>.
// A nil reader uses crypto/rand.
func NewTempBranch(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, 3)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to generate temp branch: %w", err)
	}
	return TempBranchPrefix + hex.EncodeToString(b), nil
}

// IsTempBranch reports whether branch is a generated placeholder
func IsTempBranch(branch string) bool {
	return tempBranchPattern.MatchString(branch)
}

// Slugify turns a free-text message into a branch-safe suffix: lower case,
// alphanumerics only, words joined by single hyphens, at most five words and
// 50 characters. Slugify is idempotent on its own output.
func Slugify(message string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(message) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	if len(words) > maxBranchWords-1 {
		words = words[:maxBranchWords-1]
	}

	slug := strings.Join(words, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return FallbackSlug
	}
	return slug
}

// BranchName returns the namespaced branch for a first message
func BranchName(message string) string {
	return BranchNamespace + Slugify(message)
}
