// Package config loads and saves the user's aim settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
)

// Settings represents the full aim configuration
type Settings struct {
	DefaultAgent               string          `json:"defaultAgent"`
	DefaultWorktree            bool            `json:"defaultWorktree"`
	Theme                      string          `json:"theme"`
	Shell                      string          `json:"shell"`
	ReposBaseDir               string          `json:"reposBaseDir"`
	ReposBaseDirs              []string        `json:"reposBaseDirs"`
	ArchiveWorktreeCleanupDays int             `json:"archiveWorktreeCleanupDays"`
	Linear                     LinearConfig    `json:"linear"`
	Workflow                   WorkflowConfig  `json:"workflow"`
	Dashboard                  DashboardConfig `json:"dashboard"`
	LogLevel                   string          `json:"logLevel"`
}

// LinearConfig contains issue tracker settings
type LinearConfig struct {
	APIKey          string `json:"apiKey"`
	OAuthToken      string `json:"oauthToken"`
	TeamID          string `json:"teamId"`
	PollIntervalSec int    `json:"pollIntervalSec"`
	Endpoint        string `json:"endpoint"`
}

// WorkflowConfig contains start-work settings
type WorkflowConfig struct {
	DetectionTimeoutSec int `json:"detectionTimeoutSec"`
	PromptDelayMs       int `json:"promptDelayMs"`
}

// DashboardConfig contains metrics sampling settings
type DashboardConfig struct {
	SampleIntervalSec int `json:"sampleIntervalSec"`
	HistorySize       int `json:"historySize"`
	StuckThresholdSec int `json:"stuckThresholdSec"`

	// MetricsAddr serves Prometheus metrics while the TUI runs; empty disables it
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

// MinPollIntervalSec is the shortest accepted issue poll interval
const MinPollIntervalSec = 10

// DefaultDataDir returns ~/.aim
func DefaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".aim")
}

// DefaultShell returns $SHELL, falling back to /bin/zsh
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/zsh"
}

// DefaultSettings returns Settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		DefaultAgent:               string(domain.AgentClaude),
		DefaultWorktree:            true,
		Theme:                      "dark",
		Shell:                      DefaultShell(),
		ReposBaseDir:               filepath.Join(DefaultDataDir(), "repos"),
		ReposBaseDirs:              []string{},
		ArchiveWorktreeCleanupDays: 7,
		Linear: LinearConfig{
			PollIntervalSec: 30,
			Endpoint:        "https://api.linear.app/graphql",
		},
		Workflow: WorkflowConfig{
			DetectionTimeoutSec: 30,
			PromptDelayMs:       2000,
		},
		Dashboard: DashboardConfig{
			SampleIntervalSec: 10,
			HistorySize:       180,
			StuckThresholdSec: 60,
		},
		LogLevel: "info",
	}
}

// SettingsPath returns the settings file inside dataDir
func SettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "settings.json")
}

// LoadSettings loads settings from dataDir with priority:
// 1. AIM_* environment variables
// 2. settings.json (with version migration support)
// 3. Defaults
func LoadSettings(dataDir string) (*Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(SettingsPath(dataDir))
	switch {
	case err == nil:
		parsed, err := ParseVersionedSettings(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse settings.json: %w", err)
		}
		cfg = MergeWithDefaults(parsed)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveSettings saves settings to dataDir with version information
func SaveSettings(cfg *Settings, dataDir string) error {
	data, err := MarshalVersionedSettings(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.WriteFile(SettingsPath(dataDir), data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// MergeWithDefaults fills in missing values with defaults
func MergeWithDefaults(cfg *Settings) *Settings {
	defaults := DefaultSettings()

	if !domain.AgentKind(cfg.DefaultAgent).Valid() {
		cfg.DefaultAgent = defaults.DefaultAgent
	}
	if cfg.Theme == "" {
		cfg.Theme = defaults.Theme
	}
	if cfg.Shell == "" {
		cfg.Shell = defaults.Shell
	}
	if cfg.ReposBaseDir == "" {
		cfg.ReposBaseDir = defaults.ReposBaseDir
	}
	if cfg.ReposBaseDirs == nil {
		cfg.ReposBaseDirs = defaults.ReposBaseDirs
	}
	if cfg.ArchiveWorktreeCleanupDays == 0 {
		cfg.ArchiveWorktreeCleanupDays = defaults.ArchiveWorktreeCleanupDays
	}

	// Linear
	if cfg.Linear.PollIntervalSec == 0 {
		cfg.Linear.PollIntervalSec = defaults.Linear.PollIntervalSec
	}
	if cfg.Linear.PollIntervalSec < MinPollIntervalSec {
		cfg.Linear.PollIntervalSec = MinPollIntervalSec
	}
	if cfg.Linear.Endpoint == "" {
		cfg.Linear.Endpoint = defaults.Linear.Endpoint
	}

	// Workflow
	if cfg.Workflow.DetectionTimeoutSec == 0 {
		cfg.Workflow.DetectionTimeoutSec = defaults.Workflow.DetectionTimeoutSec
	}
	if cfg.Workflow.PromptDelayMs == 0 {
		cfg.Workflow.PromptDelayMs = defaults.Workflow.PromptDelayMs
	}

	// Dashboard
	if cfg.Dashboard.SampleIntervalSec == 0 {
		cfg.Dashboard.SampleIntervalSec = defaults.Dashboard.SampleIntervalSec
	}
	if cfg.Dashboard.HistorySize == 0 {
		cfg.Dashboard.HistorySize = defaults.Dashboard.HistorySize
	}
	if cfg.Dashboard.StuckThresholdSec == 0 {
		cfg.Dashboard.StuckThresholdSec = defaults.Dashboard.StuckThresholdSec
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}

	return cfg
}

// RepoRoots returns the primary repos dir followed by the extra roots, without duplicates
func (s *Settings) RepoRoots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, dir := range append([]string{s.ReposBaseDir}, s.ReposBaseDirs...) {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		roots = append(roots, dir)
	}
	return roots
}

// PollInterval returns the issue poll interval
func (s *Settings) PollInterval() time.Duration {
	return time.Duration(s.Linear.PollIntervalSec) * time.Second
}

// DetectionTimeout returns how long repo detection may run
func (s *Settings) DetectionTimeout() time.Duration {
	return time.Duration(s.Workflow.DetectionTimeoutSec) * time.Second
}

// PromptDelay returns how long to wait before sending the detection prompt
func (s *Settings) PromptDelay() time.Duration {
	return time.Duration(s.Workflow.PromptDelayMs) * time.Millisecond
}

// ArchiveCleanupAge returns how long archived worktrees are kept
func (s *Settings) ArchiveCleanupAge() time.Duration {
	return time.Duration(s.ArchiveWorktreeCleanupDays) * 24 * time.Hour
}
