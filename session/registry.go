package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/paths"
)

// Registry holds all live sessions, keyed by Telegram chat ID, and
// handles persistence of their durable records.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	filePath string
}

// NewRegistry creates an empty registry using the default sessions path.
func NewRegistry() (*Registry, error) {
	path, err := paths.SessionsFilePath()
	if err != nil {
		return nil, err
	}
	return NewRegistryAt(path), nil
}

// NewRegistryAt creates an empty registry persisting to an explicit path.
func NewRegistryAt(path string) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		filePath: path,
	}
}

// SetFilePath sets the sessions file path (for testing).
func (r *Registry) SetFilePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filePath = path
}

// Get returns the session for a chat, creating it if absent. Concurrent
// callers for the same chat receive the same session.
func (r *Registry) Get(chatID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[chatID]; ok {
		return s
	}
	s := New(chatID)
	r.sessions[chatID] = s
	return s
}

// Load reads persisted records from disk into the registry. Sessions are
// created idle: the busy flag never survives a restart. A missing file
// is not an error. A corrupt file is logged and treated as empty rather
// than blocking startup.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		logger.WithComponent("session").Error("corrupt sessions file, starting empty",
			"path", r.filePath, "error", err)
		return nil
	}

	for key, rec := range records {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		s := New(chatID)
		s.ReplaceRecord(rec)
		r.sessions[chatID] = s
	}

	return nil
}

// Persist writes a snapshot of every session's durable record to disk.
func (r *Registry) Persist() error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	filePath := r.filePath
	r.mu.Unlock()

	records := make(map[string]Record, len(sessions))
	for _, s := range sessions {
		records[strconv.FormatInt(s.ChatID, 10)] = s.Snapshot()
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

// KnownTokens returns the set of resumption tokens held by live
// sessions, for orphan process cleanup.
func (r *Registry) KnownTokens() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := make(map[string]bool)
	for _, s := range r.sessions {
		if token := s.EngineSessionID(); token != "" {
			tokens[token] = true
		}
	}
	return tokens
}
