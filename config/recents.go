package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/claudegram/claudegram/paths"
)

// MaxRecents is the number of recent prompts remembered per chat.
const MaxRecents = 5

// Recents holds per-chat most-recently-used prompt lists, newest first.
type Recents struct {
	ByChat map[string][]string `json:"by_chat"`

	mu       sync.Mutex
	filePath string
}

// LoadRecents reads the recents file from disk, or returns an empty set
// if the file doesn't exist.
func LoadRecents() (*Recents, error) {
	path, err := paths.RecentsFilePath()
	if err != nil {
		return nil, err
	}

	r := &Recents{
		ByChat:   make(map[string][]string),
		filePath: path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	if r.ByChat == nil {
		r.ByChat = make(map[string][]string)
	}

	return r, nil
}

// SetFilePath sets the recents file path (for testing).
func (r *Recents) SetFilePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filePath = path
}

// Add records a prompt as the most recent for a chat, deduplicating and
// trimming the list to MaxRecents. The change is persisted.
func (r *Recents) Add(chatID int64, prompt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strconv.FormatInt(chatID, 10)
	list := r.ByChat[key]

	// Remove any existing occurrence so re-use moves it to the front
	filtered := make([]string, 0, len(list)+1)
	filtered = append(filtered, prompt)
	for _, p := range list {
		if p != prompt {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > MaxRecents {
		filtered = filtered[:MaxRecents]
	}
	r.ByChat[key] = filtered

	return r.saveLocked()
}

// Get returns the recent prompts for a chat, newest first. The returned
// slice is a copy.
func (r *Recents) Get(chatID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strconv.FormatInt(chatID, 10)
	list := r.ByChat[key]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// saveLocked writes the recents to disk. Caller must hold mu.
func (r *Recents) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filePath, data, 0644)
}
