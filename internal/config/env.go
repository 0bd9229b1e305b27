package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "AIM"

// envOverrides lists the settings that can be overridden from the
// environment. Unset variables leave the pointer nil.
type envOverrides struct {
	DefaultAgent     *string        `envconfig:"DEFAULT_AGENT"`
	DefaultWorktree  *bool          `envconfig:"DEFAULT_WORKTREE"`
	Shell            *string        `envconfig:"SHELL"`
	ReposBaseDir     *string        `envconfig:"REPOS_BASE_DIR"`
	LinearAPIKey     *string        `envconfig:"LINEAR_API_KEY"`
	LinearTeamID     *string        `envconfig:"LINEAR_TEAM_ID"`
	LinearPoll       *time.Duration `envconfig:"LINEAR_POLL_INTERVAL"`
	DetectionTimeout *time.Duration `envconfig:"DETECTION_TIMEOUT"`
	LogLevel         *string        `envconfig:"LOG_LEVEL"`
}

// ApplyEnv overlays AIM_* environment variables onto cfg
func ApplyEnv(cfg *Settings) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.DefaultAgent != nil {
		cfg.DefaultAgent = *env.DefaultAgent
	}
	if env.DefaultWorktree != nil {
		cfg.DefaultWorktree = *env.DefaultWorktree
	}
	if env.Shell != nil {
		cfg.Shell = *env.Shell
	}
	if env.ReposBaseDir != nil {
		cfg.ReposBaseDir = *env.ReposBaseDir
	}
	if env.LinearAPIKey != nil {
		cfg.Linear.APIKey = *env.LinearAPIKey
	}
	if env.LinearTeamID != nil {
		cfg.Linear.TeamID = *env.LinearTeamID
	}
	if env.LinearPoll != nil {
		cfg.Linear.PollIntervalSec = int(env.LinearPoll.Seconds())
	}
	if env.DetectionTimeout != nil {
		cfg.Workflow.DetectionTimeoutSec = int(env.DetectionTimeout.Seconds())
	}
	if env.LogLevel != nil {
		cfg.LogLevel = *env.LogLevel
	}

	// overrides are validated the same way as the file
	MergeWithDefaults(cfg)
	return nil
}
