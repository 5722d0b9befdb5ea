package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/claudegram/claudegram/paths"
)

// Owner records which Telegram user owns this bridge. The first user to
// send /start claims ownership; everyone else is rejected afterwards.
type Owner struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	ClaimedAt time.Time `json:"claimed_at"`

	mu       sync.Mutex
	filePath string
}

// LoadOwner reads the owner claim from disk. Returns an unclaimed Owner
// (UserID zero) if the file doesn't exist.
func LoadOwner() (*Owner, error) {
	path, err := paths.OwnerFilePath()
	if err != nil {
		return nil, err
	}

	o := &Owner{filePath: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return o, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, o); err != nil {
		return nil, err
	}

	return o, nil
}

// SetFilePath sets the owner file path (for testing).
func (o *Owner) SetFilePath(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filePath = path
}

// Claimed reports whether an owner has been recorded.
func (o *Owner) Claimed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.UserID != 0
}

// IsOwner reports whether the given user is the recorded owner.
func (o *Owner) IsOwner(userID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.UserID != 0 && o.UserID == userID
}

// Claim records userID as the owner if no owner exists yet. Returns true
// if the claim succeeded, false if someone else already owns the bridge.
// A repeat claim by the existing owner returns true without rewriting.
func (o *Owner) Claim(userID int64, username string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.UserID != 0 {
		return o.UserID == userID, nil
	}

	o.UserID = userID
	o.Username = username
	o.ClaimedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(o.filePath), 0755); err != nil {
		return false, err
	}

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return false, err
	}

	// Owner identity gates all access, keep it private
	if err := os.WriteFile(o.filePath, data, 0600); err != nil {
		return false, err
	}

	return true, nil
}
