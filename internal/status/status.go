package status

import (
	"fmt"

	"github.com/Benbentwo/aim/internal/domain"
)

// Parse converts an event payload into a status.
// Only string payloads naming a known status are accepted.
func Parse(payload any) (domain.Status, bool) {
	var s domain.Status
	switch v := payload.(type) {
	case string:
		s = domain.Status(v)
	case domain.Status:
		s = v
	default:
		return "", false
	}
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// MustParse is like Parse but returns an error wrapping domain.ErrInvalidStatus
func MustParse(payload any) (domain.Status, error) {
	s, ok := Parse(payload)
	if !ok {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidStatus, payload)
	}
	return s, nil
}

// FromExit maps a process exit code to a terminal status
func FromExit(code int) domain.Status {
	if code == 0 {
		return domain.StatusStopped
	}
	return domain.StatusErrored
}
