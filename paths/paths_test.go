package paths

import (
	"os"
	"path/filepath"
	"testing"
)

// setupTestHome creates a temp directory, sets HOME to it, and resets the path cache.
func setupTestHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	Reset()
	t.Cleanup(Reset)
	return tmpDir
}

func TestFreshInstallNoXDG(t *testing.T) {
	home := setupTestHome(t)
	// No ~/.claudegram/, no XDG vars → default to ~/.claudegram/
	expected := filepath.Join(home, ".claudegram")

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != expected {
		t.Errorf("ConfigDir = %q, want %q", configDir, expected)
	}

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dataDir != expected {
		t.Errorf("DataDir = %q, want %q", dataDir, expected)
	}

	if !IsLegacyLayout() {
		t.Error("IsLegacyLayout should be true for fresh install without XDG")
	}
}

func TestLegacyTakesPrecedenceOverXDG(t *testing.T) {
	home := setupTestHome(t)
	legacyDir := filepath.Join(home, ".claudegram")
	if err := os.MkdirAll(legacyDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Set XDG vars; legacy should still win
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != legacyDir {
		t.Errorf("ConfigDir = %q, want %q (legacy should take precedence)", configDir, legacyDir)
	}
}

func TestXDGPartialVars(t *testing.T) {
	home := setupTestHome(t)
	// No ~/.claudegram/ exists

	xdgConfig := filepath.Join(home, "my-config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	// XDG_DATA_HOME and XDG_STATE_HOME not set; resolver should use XDG defaults
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "claudegram"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q", configDir, want)
	}

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "claudegram"); dataDir != want {
		t.Errorf("DataDir = %q, want %q", dataDir, want)
	}

	if IsLegacyLayout() {
		t.Error("IsLegacyLayout should be false when using XDG")
	}
}

func TestDerivedPaths(t *testing.T) {
	home := setupTestHome(t)
	legacyDir := filepath.Join(home, ".claudegram")
	if err := os.MkdirAll(legacyDir, 0755); err != nil {
		t.Fatal(err)
	}
	Reset()

	cfgPath, err := BridgeConfigPath()
	if err != nil {
		t.Fatalf("BridgeConfigPath: %v", err)
	}
	if want := filepath.Join(legacyDir, "config.yaml"); cfgPath != want {
		t.Errorf("BridgeConfigPath = %q, want %q", cfgPath, want)
	}

	sessPath, err := SessionsFilePath()
	if err != nil {
		t.Fatalf("SessionsFilePath: %v", err)
	}
	if want := filepath.Join(legacyDir, "sessions.json"); sessPath != want {
		t.Errorf("SessionsFilePath = %q, want %q", sessPath, want)
	}

	logsDir, err := LogsDir()
	if err != nil {
		t.Fatalf("LogsDir: %v", err)
	}
	if want := filepath.Join(legacyDir, "logs"); logsDir != want {
		t.Errorf("LogsDir = %q, want %q", logsDir, want)
	}
}

func TestLegacyFileNotDir(t *testing.T) {
	home := setupTestHome(t)
	// Create ~/.claudegram as a file, not a directory; it must not be treated as legacy
	legacyPath := filepath.Join(home, ".claudegram")
	if err := os.WriteFile(legacyPath, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	xdgConfig := filepath.Join(home, ".config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "claudegram"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q (file named .claudegram should not trigger legacy)", configDir, want)
	}
}
