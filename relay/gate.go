// Package relay gates engine invocations per chat: one in flight at a
// time, immediate rejection while busy, and a single fresh retry when a
// resumption token has gone stale.
package relay

import (
	"context"
	"fmt"

	"github.com/claudegram/claudegram/config"
	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/runner"
	"github.com/claudegram/claudegram/session"
)

// BusyText is the reply for prompts that arrive while an invocation is
// in flight. The prompt is dropped, never queued.
const BusyText = "Claude Code is still working on the previous request. Please wait."

// compactSummaryPrompt asks the engine to summarize the conversation
// being compacted.
const compactSummaryPrompt = "Provide a concise summary of our entire conversation so far: " +
	"key decisions, files modified, current state, and pending work."

// Reply is the user-visible outcome of a relay attempt.
type Reply struct {
	Text string
	Busy bool // rejected because an invocation was already in flight
}

// Gate owns the relay path from prompt to reply text.
type Gate struct {
	registry *session.Registry
	run      runner.Runner
	settings *config.Settings
	cfg      *config.Bridge
}

// NewGate wires a gate over the given registry and runner.
func NewGate(registry *session.Registry, run runner.Runner, settings *config.Settings, cfg *config.Bridge) *Gate {
	return &Gate{
		registry: registry,
		run:      run,
		settings: settings,
		cfg:      cfg,
	}
}

// Relay sends a prompt to the engine for a chat and returns the reply
// text. If the chat's session is busy, the prompt is rejected
// immediately. fresh forces a new engine conversation regardless of any
// stored resumption token.
func (g *Gate) Relay(ctx context.Context, chatID int64, prompt string, fresh bool) Reply {
	s := g.registry.Get(chatID)

	if !s.TryAcquire() {
		return Reply{Text: BusyText, Busy: true}
	}
	defer s.Release()

	return g.invoke(ctx, s, prompt, fresh)
}

// invoke runs one engine invocation for an acquired session, retrying
// exactly once with no token if the stored token is stale.
func (g *Gate) invoke(ctx context.Context, s *session.Session, prompt string, fresh bool) Reply {
	log := logger.WithChat(s.ChatID).With("component", "relay")

	token := ""
	if !fresh {
		token = s.EngineSessionID()
	}

	req := runner.Request{
		Prompt:          prompt,
		ResumeToken:     token,
		Model:           g.settings.GetModel(),
		SkipPermissions: g.settings.GetSkipPermissions(),
	}

	res, err := g.run.Invoke(ctx, req)

	if err != nil && token != "" {
		if kind, ok := runner.KindOf(err); ok && kind == runner.KindStaleSession {
			log.Warn("resumption token stale, retrying fresh", "token", token)
			s.ClearEngineSessionID()
			req.ResumeToken = ""
			res, err = g.run.Invoke(ctx, req)
		}
	}

	if err != nil {
		log.Error("relay failed", "error", err)
		return Reply{Text: g.errorText(err)}
	}

	if res.SessionID != "" {
		s.RecordSuccess(res.SessionID)
		if err := g.registry.Persist(); err != nil {
			log.Error("failed to persist sessions", "error", err)
		}
	}

	return Reply{Text: FormatResult(res)}
}

// Compact summarizes the current conversation, seeds a fresh engine
// session with the summary, and replaces the chat's record.
func (g *Gate) Compact(ctx context.Context, chatID int64) Reply {
	s := g.registry.Get(chatID)

	if s.EngineSessionID() == "" {
		return Reply{Text: "No active session to compact."}
	}

	if !s.TryAcquire() {
		return Reply{Text: BusyText, Busy: true}
	}
	defer s.Release()

	log := logger.WithChat(chatID).With("component", "relay")

	summary, err := g.run.Invoke(ctx, runner.Request{
		Prompt:          compactSummaryPrompt,
		ResumeToken:     s.EngineSessionID(),
		Model:           g.settings.GetModel(),
		SkipPermissions: g.settings.GetSkipPermissions(),
	})
	if err != nil {
		log.Error("compact summary failed", "error", err)
		return Reply{Text: g.errorText(err)}
	}
	if summary.Text == "" {
		return Reply{Text: "Failed to generate summary."}
	}

	seed := fmt.Sprintf("CONTEXT FROM PREVIOUS SESSION:\n\n%s\n\nAcknowledged. I have the context. Ready to continue.", summary.Text)
	freshRes, err := g.run.Invoke(ctx, runner.Request{
		Prompt:          seed,
		Model:           g.settings.GetModel(),
		SkipPermissions: g.settings.GetSkipPermissions(),
	})
	if err != nil {
		log.Error("compact reseed failed", "error", err)
		return Reply{Text: g.errorText(err)}
	}

	oldCount := s.MessageCount()
	s.ReplaceRecord(session.Record{
		EngineSessionID: freshRes.SessionID,
		CreatedAt:       nowUTC(),
		MessageCount:    1,
	})
	if err := g.registry.Persist(); err != nil {
		log.Error("failed to persist sessions", "error", err)
	}

	newID := freshRes.SessionID
	if newID == "" {
		newID = "unknown"
	}
	return Reply{Text: fmt.Sprintf("Session compacted (%d msgs -> fresh start).\nNew session: %s", oldCount, newID)}
}

// errorText maps an invocation failure to user-facing text. This is the
// only place failure kinds become words.
func (g *Gate) errorText(err error) string {
	kind, ok := runner.KindOf(err)
	if !ok {
		return "Error:\n" + err.Error()
	}

	switch kind {
	case runner.KindTimeout:
		return fmt.Sprintf("Timed out after %ds", g.cfg.TimeoutSeconds)
	case runner.KindStalled:
		return "Claude Code stopped responding and was terminated."
	case runner.KindStaleSession:
		return "Previous session could not be resumed. Send your message again to start fresh."
	case runner.KindSpawn:
		return "Failed to start Claude Code. Check that the CLI is installed."
	default:
		var msg string
		if re, isRun := err.(*runner.RunError); isRun {
			msg = re.Message
		} else {
			msg = err.Error()
		}
		return "Error:\n" + msg
	}
}
