// Package config manages Claudegram's configuration: the static bridge
// config loaded from YAML, the mutable runtime settings, the owner claim,
// and the per-chat recent prompt lists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claudegram/claudegram/paths"
)

// Defaults for the bridge configuration.
const (
	DefaultTimeoutSeconds  = 300
	DefaultStaleSeconds    = 60
	DefaultPollSeconds     = 5
	DefaultKillGraceSecs   = 5
	DefaultClaudeBin       = "claude"
	DefaultUpdateTimeout   = 30
	DefaultModel           = ""
)

// DefaultModelAliases maps short model names to full model identifiers.
func DefaultModelAliases() map[string]string {
	return map[string]string{
		"opus":   "claude-opus-4-6",
		"sonnet": "claude-sonnet-4-5-20250929",
		"haiku":  "claude-haiku-4-5-20251001",
	}
}

// Bridge holds the static bridge configuration. It is loaded once at
// startup and never mutated afterwards, so it carries no lock.
type Bridge struct {
	Token          string            `yaml:"token"`
	WorkDir        string            `yaml:"work_dir"`
	ClaudeBin      string            `yaml:"claude_bin"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	StaleSeconds   int               `yaml:"stale_seconds"`
	PollSeconds    int               `yaml:"poll_seconds"`
	KillGraceSecs  int               `yaml:"kill_grace_seconds"`
	Debug          bool              `yaml:"debug"`
	ModelAliases   map[string]string `yaml:"model_aliases"`
}

// LoadBridge reads the bridge config from the default YAML path, applies
// defaults for unset fields, and applies environment overrides. A missing
// file is not an error; environment variables alone can configure the bridge.
func LoadBridge() (*Bridge, error) {
	path, err := paths.BridgeConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadBridgeFrom(path)
}

// LoadBridgeFrom reads the bridge config from an explicit path.
func LoadBridgeFrom(path string) (*Bridge, error) {
	cfg := &Bridge{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overrides config fields from environment variables.
func (b *Bridge) applyEnv() {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		b.Token = v
	}
	if v := os.Getenv("CLAUDE_WORK_DIR"); v != "" {
		b.WorkDir = v
	}
	if v := os.Getenv("CLAUDE_BIN"); v != "" {
		b.ClaudeBin = v
	}
	if v := os.Getenv("COMMAND_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			b.TimeoutSeconds = n
		}
	}
}

// applyDefaults fills in zero-valued fields.
func (b *Bridge) applyDefaults() {
	if b.WorkDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			b.WorkDir = home
		}
	}
	if b.ClaudeBin == "" {
		b.ClaudeBin = DefaultClaudeBin
	}
	if b.TimeoutSeconds <= 0 {
		b.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if b.StaleSeconds <= 0 {
		b.StaleSeconds = DefaultStaleSeconds
	}
	if b.PollSeconds <= 0 {
		b.PollSeconds = DefaultPollSeconds
	}
	if b.KillGraceSecs <= 0 {
		b.KillGraceSecs = DefaultKillGraceSecs
	}
	if b.ModelAliases == nil {
		b.ModelAliases = DefaultModelAliases()
	} else {
		// Merge defaults for aliases not overridden in the file
		for alias, model := range DefaultModelAliases() {
			if _, ok := b.ModelAliases[alias]; !ok {
				b.ModelAliases[alias] = model
			}
		}
	}
}

// Validate checks that required fields are present.
func (b *Bridge) Validate() error {
	if b.Token == "" {
		return fmt.Errorf("no Telegram token: set TELEGRAM_TOKEN or token in config.yaml")
	}
	if b.WorkDir == "" {
		return fmt.Errorf("no working directory: set CLAUDE_WORK_DIR or work_dir in config.yaml")
	}
	if info, err := os.Stat(b.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("working directory %s does not exist", b.WorkDir)
	}
	return nil
}

// Timeout returns the invocation wall-clock timeout as a duration.
func (b *Bridge) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// StaleThreshold returns the liveness stall threshold as a duration.
func (b *Bridge) StaleThreshold() time.Duration {
	return time.Duration(b.StaleSeconds) * time.Second
}

// PollInterval returns the liveness sampling interval as a duration.
func (b *Bridge) PollInterval() time.Duration {
	return time.Duration(b.PollSeconds) * time.Second
}

// KillGrace returns the SIGTERM-to-SIGKILL grace period as a duration.
func (b *Bridge) KillGrace() time.Duration {
	return time.Duration(b.KillGraceSecs) * time.Second
}

// ResolveModel maps a model alias to its full identifier. Unknown names
// pass through unchanged so users can give full model IDs directly.
func (b *Bridge) ResolveModel(name string) string {
	if full, ok := b.ModelAliases[name]; ok {
		return full
	}
	return name
}
