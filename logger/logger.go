// Package logger provides the bridge's file-backed slog logger. Logging
// never goes to stdout or stderr in normal operation since the process
// runs unattended; everything lands in the claudegram log file.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/claudegram/claudegram/paths"
)

var (
	mu       sync.Mutex
	base     *slog.Logger
	levelVar = new(slog.LevelVar)
	logFile  *os.File
	ready    bool
)

// DefaultLogPath returns the log file location under the state directory.
func DefaultLogPath() (string, error) {
	dir, err := paths.LogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "claudegram.log"), nil
}

// SetDebug switches between debug and info level at runtime. Safe to
// call before or after Init.
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// Init opens the log file at path. Calling it after the logger is
// already initialized is a no-op; use Reset first to repoint it.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		return nil
	}
	return openLocked(path)
}

// openLocked opens the log file and builds the root logger. Caller
// holds mu.
func openLocked(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	logFile = f
	base = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	ready = true
	base.Info("logger initialized", "path", path)
	return nil
}

// rootLocked returns the root logger, lazily opening the default log
// file on first use. Falls back to slog.Default when the file cannot
// be opened so callers never get nil. Caller holds mu.
func rootLocked() *slog.Logger {
	if !ready {
		path, err := DefaultLogPath()
		if err == nil {
			err = openLocked(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logger init failed: %v\n", err)
			return slog.Default()
		}
	}
	return base
}

// Get returns the root logger for entries with no chat context.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return rootLocked()
}

// WithChat returns a logger scoped to a Telegram chat. Every entry
// carries the chat ID as a structured field.
func WithChat(chatID int64) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return rootLocked().With("chatID", strconv.FormatInt(chatID, 10))
}

// WithComponent returns a logger tagged with a subsystem name, for
// entries that are not tied to any chat.
func WithComponent(component string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return rootLocked().With("component", component)
}

// Close flushes and closes the log file. A later log call reopens it.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	base = nil
	ready = false
}

// Reset returns the package to its uninitialized state so tests can
// repoint the log file.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	base = nil
	ready = false
	levelVar = new(slog.LevelVar)
}

// ClearLogs removes the claudegram log file. Returns the number of
// files removed.
func ClearLogs() (int, error) {
	path, err := DefaultLogPath()
	if err != nil {
		return 0, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return 1, nil
}
