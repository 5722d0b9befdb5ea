// Package session tracks per-chat conversation state: the engine
// resumption token, message counts, and the busy flag that serializes
// engine invocations for a chat.
package session

import (
	"sync"
	"time"
)

// Record is the durable subset of session state. It is what gets written
// to sessions.json. The busy flag and pending skill are runtime-only and
// deliberately absent: a restart must never resurrect them.
type Record struct {
	EngineSessionID string    `json:"engine_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	MessageCount    int       `json:"message_count"`
}

// Session is the live state for one Telegram chat. All access goes
// through the mutex; the busy flag gives each chat single-flight engine
// invocations.
type Session struct {
	ChatID int64

	mu           sync.Mutex
	rec          Record
	busy         bool
	pendingSkill string
}

// New creates a session for a chat with a fresh record.
func New(chatID int64) *Session {
	return &Session{
		ChatID: chatID,
		rec:    Record{CreatedAt: time.Now().UTC()},
	}
}

// TryAcquire attempts to mark the session busy. Returns true if the
// caller now holds the session, false if another invocation is in flight.
// It never blocks.
func (s *Session) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// Release clears the busy flag. Callers must invoke it on every exit
// path after a successful TryAcquire, success or failure alike.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// Busy reports whether an invocation is in flight for this session.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Snapshot returns a copy of the durable record.
func (s *Session) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// EngineSessionID returns the current resumption token, or empty if the
// next invocation should start a fresh engine conversation.
func (s *Session) EngineSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.EngineSessionID
}

// RecordSuccess stores the resumption token returned by a completed
// invocation and increments the message count.
func (s *Session) RecordSuccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.EngineSessionID = token
	s.rec.MessageCount++
}

// ClearEngineSessionID drops the resumption token so the next invocation
// starts fresh. The message count is preserved.
func (s *Session) ClearEngineSessionID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.EngineSessionID = ""
}

// ResetRecord replaces the durable record with a fresh one, as when the
// user starts a new conversation.
func (s *Session) ResetRecord() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = Record{CreatedAt: time.Now().UTC()}
}

// ReplaceRecord overwrites the durable record, as when loading persisted
// state or seeding a compacted conversation.
func (s *Session) ReplaceRecord(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
}

// MessageCount returns the number of successful exchanges this session
// has completed.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.MessageCount
}

// SetPendingSkill arms a skill that the next text message will invoke.
func (s *Session) SetPendingSkill(skill string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSkill = skill
}

// TakePendingSkill returns the armed skill and clears it.
func (s *Session) TakePendingSkill() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	skill := s.pendingSkill
	s.pendingSkill = ""
	return skill
}

// PendingSkill returns the armed skill without clearing it.
func (s *Session) PendingSkill() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingSkill
}
