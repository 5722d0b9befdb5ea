// Package runner executes one-shot Claude CLI invocations: it spawns the
// engine process, enforces wall-clock and liveness limits, and parses the
// JSON result.
package runner

import (
	"errors"
	"fmt"
)

// Kind classifies invocation failures. Every failure the runner reports
// carries exactly one kind so callers can map it to user-facing text.
type Kind int

const (
	// KindSpawn means the engine process could not be started.
	KindSpawn Kind = iota
	// KindTimeout means the invocation exceeded its wall-clock limit
	// and was killed.
	KindTimeout
	// KindStalled means the liveness watchdog saw no CPU progress for
	// the stall threshold and killed the process.
	KindStalled
	// KindStaleSession means the engine rejected the resumption token.
	KindStaleSession
	// KindMalformed means the engine exited but its output was not a
	// parseable result.
	KindMalformed
	// KindEngine means the engine itself reported an error result.
	KindEngine
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindTimeout:
		return "timeout"
	case KindStalled:
		return "stalled"
	case KindStaleSession:
		return "stale_session"
	case KindMalformed:
		return "malformed"
	case KindEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// RunError is the error type for failed invocations.
type RunError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error. Returns ok=false if
// the error is not a RunError.
func KindOf(err error) (Kind, bool) {
	var re *RunError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}
