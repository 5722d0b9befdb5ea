package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/claudegram/claudegram/logger"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "menu":
		b.send(chatID, MenuText, "", mainMenuKeyboard(b.recents.Get(chatID)))

	case "help":
		b.send(chatID, HelpText, "Markdown", nil)

	case "new":
		b.cmdNew(chatID)

	case "session":
		b.send(chatID, b.sessionInfoText(b.registry.Get(chatID)), "", nil)

	case "compact":
		b.cmdCompact(ctx, chatID)

	case "clear":
		b.registry.Get(chatID).ResetRecord()
		b.persistSessions(chatID)
		b.send(chatID, "Session cleared.", "", nil)

	case "model":
		b.cmdModel(chatID, args)

	case "sudo":
		b.cmdSudo(chatID, args)

	case "settings":
		b.cmdSettings(chatID)

	case "status":
		b.relayAndReply(ctx, chatID, gitImmediatePrompts["status"], false)

	case "diff":
		b.relayAndReply(ctx, chatID, gitImmediatePrompts["diff"], false)

	case "log":
		n := "10"
		if args != "" {
			n = strings.Fields(args)[0]
		}
		b.relayAndReply(ctx, chatID, fmt.Sprintf("Run `git log --oneline -n %s` and show the output.", n), false)

	case "commit":
		b.relayAndReply(ctx, chatID, strings.TrimSpace("/commit "+args), false)

	case "branch":
		b.relayAndReply(ctx, chatID, gitInputPrompt("branch", args), false)

	case "stash":
		op := "list"
		if args != "" {
			op = args
		}
		b.relayAndReply(ctx, chatID, fmt.Sprintf("Run `git stash %s` and show result.", op), false)

	case "undo":
		b.relayAndReply(ctx, chatID, gitImmediatePrompts["undo"], false)

	case "pr":
		b.relayAndReply(ctx, chatID, gitInputPrompt("pr", args), false)

	case "find":
		if args == "" {
			b.send(chatID, "Usage: /find <pattern>", "", nil)
			return
		}
		b.relayAndReply(ctx, chatID, fmt.Sprintf("Find files matching pattern `%s`.", args), false)

	case "read":
		if args == "" {
			b.send(chatID, "Usage: /read <path>", "", nil)
			return
		}
		path := strings.Fields(args)[0]
		b.relayAndReply(ctx, chatID, fmt.Sprintf("Read the contents of `%s`.", path), false)

	case "edit":
		if args == "" {
			b.send(chatID, "Usage: /edit <instruction>", "", nil)
			return
		}
		b.relayAndReply(ctx, chatID, args, false)

	case "run":
		if args == "" {
			b.send(chatID, "Usage: /run <command>", "", nil)
			return
		}
		b.relayAndReply(ctx, chatID, fmt.Sprintf("Run this shell command and show the full output:\n```\n%s\n```", args), false)
	}
}

func (b *Bot) cmdNew(chatID int64) {
	s := b.registry.Get(chatID)
	old := s.EngineSessionID()
	s.ResetRecord()
	b.persistSessions(chatID)

	text := "New session started."
	if old != "" {
		text += fmt.Sprintf("\nPrevious: %s...", truncate(old, 16))
	}
	b.send(chatID, text, "", nil)
}

func (b *Bot) cmdCompact(ctx context.Context, chatID int64) {
	stop := make(chan struct{})
	go b.keepTyping(chatID, stop)
	defer close(stop)

	reply := b.gate.Compact(ctx, chatID)
	b.deliver(chatID, reply.Text)
}

func (b *Bot) cmdModel(chatID int64, args string) {
	if args == "" {
		current := b.settings.GetModel()
		if current == "" {
			current = "default"
		}
		var aliases []string
		for _, alias := range b.aliasOrder() {
			aliases = append(aliases, fmt.Sprintf("- %s: %s", alias, b.cfg.ModelAliases[alias]))
		}
		b.send(chatID, fmt.Sprintf("Current model: %s\n\nAliases:\n%s", current, strings.Join(aliases, "\n")), "", nil)
		return
	}

	name := strings.ToLower(strings.Fields(args)[0])
	var model string
	if name != "default" && name != "reset" {
		model = b.cfg.ResolveModel(name)
	}
	if err := b.settings.SetModel(model); err != nil {
		logger.WithChat(chatID).Error("failed to save model setting", "error", err)
	}

	display := model
	if display == "" {
		display = "default"
	}
	b.send(chatID, "Model set to: "+display, "", nil)
}

func (b *Bot) cmdSudo(chatID int64, args string) {
	var on bool
	var err error

	switch strings.ToLower(args) {
	case "on":
		on = true
		err = b.setSkipPermissions(true)
	case "off":
		on = false
		err = b.setSkipPermissions(false)
	default:
		on, err = b.settings.ToggleSkipPermissions()
	}
	if err != nil {
		logger.WithChat(chatID).Error("failed to save sudo setting", "error", err)
	}

	state := "DISABLED"
	if on {
		state = "ENABLED"
	}
	b.send(chatID, "Sudo (skip-permissions) is now "+state, "", nil)
}

// setSkipPermissions forces the flag to an explicit value.
func (b *Bot) setSkipPermissions(want bool) error {
	if b.settings.GetSkipPermissions() == want {
		return nil
	}
	_, err := b.settings.ToggleSkipPermissions()
	return err
}

func (b *Bot) cmdSettings(chatID int64) {
	model := b.settings.GetModel()
	if model == "" {
		model = "default"
	}
	sudo := "off"
	if b.settings.GetSkipPermissions() {
		sudo = "on"
	}
	b.send(chatID, fmt.Sprintf("Model: %s\nSudo: %s\nTimeout: %ds\nWork Dir: %s",
		model, sudo, b.cfg.TimeoutSeconds, b.cfg.WorkDir), "", nil)
}

// persistSessions saves the registry, logging failures.
func (b *Bot) persistSessions(chatID int64) {
	if err := b.registry.Persist(); err != nil {
		logger.WithChat(chatID).Error("failed to persist sessions", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
