package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/claudegram/claudegram/paths"
)

// Settings holds the mutable runtime settings that survive restarts.
// Unlike Bridge, these change while the bot is running (via /model and
// /sudo), so access is lock-guarded.
type Settings struct {
	Model           string `json:"model,omitempty"`            // Full model identifier, empty = engine default
	SkipPermissions bool   `json:"skip_permissions,omitempty"` // Pass --dangerously-skip-permissions

	mu       sync.RWMutex
	filePath string
}

// LoadSettings reads the settings from disk, or returns defaults if the
// file doesn't exist.
func LoadSettings() (*Settings, error) {
	path, err := paths.SettingsFilePath()
	if err != nil {
		return nil, err
	}

	s := &Settings{filePath: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes the settings to disk.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the settings to disk. Caller must hold mu.
func (s *Settings) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// SetFilePath sets the settings file path (for testing).
func (s *Settings) SetFilePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filePath = path
}

// GetModel returns the configured model identifier.
func (s *Settings) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

// SetModel updates the model identifier and persists the change.
func (s *Settings) SetModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = model
	return s.saveLocked()
}

// GetSkipPermissions returns whether permission prompts are skipped.
func (s *Settings) GetSkipPermissions() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SkipPermissions
}

// ToggleSkipPermissions flips the skip-permissions setting, persists it,
// and returns the new value.
func (s *Settings) ToggleSkipPermissions() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkipPermissions = !s.SkipPermissions
	return s.SkipPermissions, s.saveLocked()
}
