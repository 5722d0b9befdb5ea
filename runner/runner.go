package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/claudegram/claudegram/config"
	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/process"
)

// staleSessionMarker is the text the Claude CLI emits when asked to
// resume a conversation it no longer knows about.
const staleSessionMarker = "No conversation found"

// Request describes one engine invocation.
type Request struct {
	Prompt          string
	ResumeToken     string // empty starts a fresh conversation
	Model           string // empty uses the engine default
	SkipPermissions bool
}

// Result is a successful engine invocation's outcome.
type Result struct {
	Text       string
	SessionID  string
	CostUSD    float64
	NumTurns   int
	DurationMS int64
}

// Runner executes engine invocations. The CLI implementation spawns a
// real process; tests substitute a mock.
type Runner interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// CLIRunner runs the Claude CLI in print mode, one process per
// invocation, with wall-clock and liveness supervision.
type CLIRunner struct {
	Bin            string
	WorkDir        string
	Timeout        time.Duration
	StallThreshold time.Duration
	PollInterval   time.Duration
	KillGrace      time.Duration

	// sample reads a process's cumulative CPU time. Overridable in tests.
	sample func(pid int) (time.Duration, error)
}

// NewCLIRunner builds a runner from the bridge configuration.
func NewCLIRunner(cfg *config.Bridge) *CLIRunner {
	return &CLIRunner{
		Bin:            cfg.ClaudeBin,
		WorkDir:        cfg.WorkDir,
		Timeout:        cfg.Timeout(),
		StallThreshold: cfg.StaleThreshold(),
		PollInterval:   cfg.PollInterval(),
		KillGrace:      cfg.KillGrace(),
		sample:         process.CPUTime,
	}
}

// BuildArgs constructs the CLI argument vector for a request. Exported
// for testing.
func BuildArgs(req Request) []string {
	args := []string{"-p", req.Prompt, "--output-format", "json"}
	if req.ResumeToken != "" {
		args = append(args, "--resume", req.ResumeToken)
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if req.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	return args
}

// scrubEnv removes the variables the Claude CLI sets in its own spawned
// shells. Inheriting them makes a nested CLI refuse to run.
func scrubEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, "CLAUDECODE=") || strings.HasPrefix(kv, "CLAUDE_CODE_ENTRYPOINT=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// engineResult mirrors the JSON object the CLI prints in print mode.
type engineResult struct {
	Type         string  `json:"type"`
	IsError      bool    `json:"is_error"`
	Result       string  `json:"result"`
	SessionID    string  `json:"session_id"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	NumTurns     int     `json:"num_turns"`
	DurationMS   int64   `json:"duration_ms"`
}

// Invoke spawns one engine process for the request, waits for it under
// timeout and liveness supervision, and parses its result. The process
// is always reaped before Invoke returns.
func (r *CLIRunner) Invoke(ctx context.Context, req Request) (*Result, error) {
	invocationID := uuid.New().String()
	log := logger.WithComponent("runner").With("invocation", invocationID)

	args := BuildArgs(req)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(r.Bin, args...)
	cmd.Dir = r.WorkDir
	cmd.Env = scrubEnv(os.Environ())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		log.Error("failed to spawn engine process", "bin", r.Bin, "error", err)
		return nil, &RunError{Kind: KindSpawn, Message: "failed to start engine process", Err: err}
	}

	pid := cmd.Process.Pid
	log.Info("engine process started", "pid", pid, "resume", req.ResumeToken != "", "model", req.Model)

	watchdog := NewWatchdog(pid, r.StallThreshold, r.PollInterval, r.sample)
	stalled := watchdog.Start()
	defer watchdog.Stop()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
		// Process exited on its own

	case <-timer.C:
		log.Warn("engine process exceeded timeout, killing", "pid", pid, "timeout", r.Timeout)
		r.terminate(cmd, done)
		return nil, &RunError{Kind: KindTimeout, Message: "engine invocation timed out"}

	case <-stalled:
		log.Warn("engine process stalled, killing", "pid", pid, "threshold", r.StallThreshold)
		r.terminate(cmd, done)
		return nil, &RunError{Kind: KindStalled, Message: "engine process made no progress"}

	case <-ctx.Done():
		log.Info("invocation canceled, killing engine process", "pid", pid)
		r.terminate(cmd, done)
		return nil, &RunError{Kind: KindTimeout, Message: "invocation canceled", Err: ctx.Err()}
	}

	return r.parse(log, req, stdout.Bytes(), stderr.Bytes(), waitErr)
}

// terminate asks the process to exit with SIGTERM, escalates to SIGKILL
// after the grace period, and always reaps it.
func (r *CLIRunner) terminate(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process != nil {
		cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-done:
		return
	case <-time.After(r.KillGrace):
	}

	if cmd.Process != nil {
		cmd.Process.Kill()
	}
	<-done
}

// parse interprets the engine's output after it exits. A stale
// resumption token is only diagnosed on failed invocations that
// actually carried a token; a successful reply is never reclassified
// just because its text happens to mention the marker phrase.
func (r *CLIRunner) parse(log *slog.Logger, req Request, stdout, stderr []byte, waitErr error) (*Result, error) {
	resumed := req.ResumeToken != ""

	var res engineResult
	if err := json.Unmarshal(stdout, &res); err != nil {
		if resumed && strings.Contains(string(stdout)+string(stderr), staleSessionMarker) {
			return nil, &RunError{Kind: KindStaleSession, Message: "engine rejected resumption token"}
		}
		snippet := strings.TrimSpace(string(stderr))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		log.Error("engine output was not parseable", "waitErr", waitErr, "stderr", snippet)
		if waitErr != nil {
			return nil, &RunError{Kind: KindMalformed, Message: "engine exited with error: " + snippet, Err: waitErr}
		}
		return nil, &RunError{Kind: KindMalformed, Message: "engine produced unparseable output", Err: err}
	}

	if res.IsError {
		if resumed && strings.Contains(res.Result, staleSessionMarker) {
			return nil, &RunError{Kind: KindStaleSession, Message: "engine rejected resumption token"}
		}
		return nil, &RunError{Kind: KindEngine, Message: res.Result}
	}

	log.Info("engine invocation complete",
		"sessionID", res.SessionID, "turns", res.NumTurns, "costUSD", res.TotalCostUSD, "durationMS", res.DurationMS)

	return &Result{
		Text:       res.Result,
		SessionID:  res.SessionID,
		CostUSD:    res.TotalCostUSD,
		NumTurns:   res.NumTurns,
		DurationMS: res.DurationMS,
	}, nil
}
