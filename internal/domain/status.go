// Package domain contains core business types for the aim application.
package domain

// Status represents the activity status of an agent session
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusWaiting  Status = "waiting"
	StatusStopped  Status = "stopped"
	StatusErrored  Status = "errored"
)

// Statuses lists every valid status in display order
var Statuses = []Status{
	StatusIdle,
	StatusThinking,
	StatusWaiting,
	StatusStopped,
	StatusErrored,
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusThinking, StatusWaiting, StatusStopped, StatusErrored:
		return true
	}
	return false
}

// Live reports whether the session process is still running
func (s Status) Live() bool {
	return s == StatusIdle || s == StatusThinking || s == StatusWaiting
}

// Icon returns a unicode icon for the status
func (s Status) Icon() string {
	switch s {
	case StatusIdle:
		return "○"
	case StatusThinking:
		return "●"
	case StatusWaiting:
		return "◐"
	case StatusStopped:
		return "■"
	case StatusErrored:
		return "✗"
	default:
		return "?"
	}
}

// String returns the display string
func (s Status) String() string {
	return string(s)
}

// AgentKind identifies the program a session runs
type AgentKind string

const (
	AgentClaude AgentKind = "claude"
	AgentCodex  AgentKind = "codex"
	AgentShell  AgentKind = "shell"
)

// AgentKinds lists the supported agents
var AgentKinds = []AgentKind{AgentClaude, AgentCodex, AgentShell}

// Valid reports whether k is a supported agent
func (k AgentKind) Valid() bool {
	switch k {
	case AgentClaude, AgentCodex, AgentShell:
		return true
	}
	return false
}

// ParseAgentKind returns the agent for s, or AgentClaude when s is unknown
func ParseAgentKind(s string) AgentKind {
	k := AgentKind(s)
	if k.Valid() {
		return k
	}
	return AgentClaude
}
