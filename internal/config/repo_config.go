package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"stackit.dev/rebaser/internal/rebase"
	"stackit.dev/rebaser/internal/workspace"
)

// FileName is the config file name inside the .git directory
const FileName = "rebaser.yml"

// DefaultMessage is the message blank commits get when none is configured
const DefaultMessage = workspace.DefaultMessage

// RepoConfig represents the repository configuration
type RepoConfig struct {
	// DateMode is one of committer-keep-author-keep, committer-update-author-keep
	// or committer-update-author-update
	DateMode string `yaml:"date_mode,omitempty"`
	Message  string `yaml:"message,omitempty"`
	// LogFile enables the debug log; "default" uses the standard location
	LogFile string `yaml:"log_file,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *RepoConfig {
	return &RepoConfig{
		DateMode: rebase.CommitterUpdateAuthorUpdate.String(),
		Message:  DefaultMessage,
	}
}

// Path returns the config file location for a repository
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", FileName)
}

// LoadRepoConfig reads the repository configuration; a missing file yields the defaults.
// Unset fields fall back to their defaults and the date mode is validated.
func LoadRepoConfig(repoRoot string) (*RepoConfig, error) {
	data, err := os.ReadFile(Path(repoRoot))
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DateMode == "" {
		cfg.DateMode = rebase.CommitterUpdateAuthorUpdate.String()
	}
	if cfg.Message == "" {
		cfg.Message = DefaultMessage
	}
	if _, err := cfg.ParsedDateMode(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveRepoConfig writes the repository configuration
func SaveRepoConfig(repoRoot string, cfg *RepoConfig) error {
	if _, err := cfg.ParsedDateMode(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(Path(repoRoot), data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ParsedDateMode returns the configured date mode
func (c *RepoConfig) ParsedDateMode() (rebase.DateMode, error) {
	return rebase.ParseDateMode(c.DateMode)
}
