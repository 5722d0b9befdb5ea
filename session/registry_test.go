package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/claudegram/claudegram/logger"
)

func TestMain(m *testing.M) {
	logger.Reset()
	logger.Init(os.DevNull)

	code := m.Run()

	logger.Reset()
	os.Exit(code)
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistryAt(filepath.Join(t.TempDir(), "sessions.json"))
}

func TestGet_CreatesOnce(t *testing.T) {
	r := newTestRegistry(t)

	s1 := r.Get(42)
	s2 := r.Get(42)
	if s1 != s2 {
		t.Error("Get should return the same session for the same chat")
	}

	s3 := r.Get(43)
	if s3 == s1 {
		t.Error("different chats should get different sessions")
	}
}

func TestGet_Concurrent(t *testing.T) {
	r := newTestRegistry(t)

	const n = 50
	results := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Get(42)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get for the same chat returned different sessions")
		}
	}
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	r := NewRegistryAt(path)

	s := r.Get(42)
	s.RecordSuccess("token-abc")
	s.RecordSuccess("token-def")

	if err := r.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// Load into a fresh registry
	loaded := NewRegistryAt(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := loaded.Get(42)
	if got.EngineSessionID() != "token-def" {
		t.Errorf("EngineSessionID = %q, want token-def", got.EngineSessionID())
	}
	if got.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", got.MessageCount())
	}
}

func TestPersist_DurableFieldsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	r := NewRegistryAt(path)

	s := r.Get(42)
	s.RecordSuccess("token-abc")
	s.TryAcquire()
	s.SetPendingSkill("commit")

	if err := r.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	content := string(data)
	if strings.Contains(content, "busy") {
		t.Error("busy flag must never be persisted")
	}
	if strings.Contains(content, "commit") || strings.Contains(content, "skill") {
		t.Error("pending skill must never be persisted")
	}

	// Verify the expected keys are present
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("persisted file should be valid JSON: %v", err)
	}
	rec, ok := records["42"]
	if !ok {
		t.Fatal("persisted file should contain chat 42")
	}
	if rec.EngineSessionID != "token-abc" {
		t.Errorf("EngineSessionID = %q, want token-abc", rec.EngineSessionID)
	}
}

func TestLoad_SessionsStartIdle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	r := NewRegistryAt(path)
	r.Get(42).RecordSuccess("token-abc")
	if err := r.Persist(); err != nil {
		t.Fatal(err)
	}

	loaded := NewRegistryAt(path)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}

	s := loaded.Get(42)
	if s.Busy() {
		t.Error("loaded sessions must start idle")
	}
	if !s.TryAcquire() {
		t.Error("loaded session should be acquirable")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Load(); err != nil {
		t.Errorf("Load with missing file should not error: %v", err)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistryAt(path)

	if err := r.Load(); err != nil {
		t.Errorf("Load with corrupt file should start empty, not error: %v", err)
	}
	if got := r.Get(42).MessageCount(); got != 0 {
		t.Errorf("registry should be empty after corrupt load, got count %d", got)
	}
}

func TestKnownTokens(t *testing.T) {
	r := newTestRegistry(t)

	r.Get(1).RecordSuccess("token-a")
	r.Get(2).RecordSuccess("token-b")
	r.Get(3) // no token

	tokens := r.KnownTokens()
	if len(tokens) != 2 {
		t.Fatalf("len(tokens) = %d, want 2", len(tokens))
	}
	if !tokens["token-a"] || !tokens["token-b"] {
		t.Errorf("tokens = %v, want token-a and token-b", tokens)
	}
}
