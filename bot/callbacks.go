package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/session"
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil {
		return
	}

	// Callback auth never claims ownership: a button tap is not a first
	// contact.
	if b.owner.Claimed() && !b.owner.IsOwner(query.From.ID) {
		b.transport.AnswerCallback(query.ID, "Unauthorized.")
		return
	}

	if err := b.transport.AnswerCallback(query.ID, ""); err != nil {
		logger.WithComponent("bot").Debug("failed to answer callback", "error", err)
	}

	data := query.Data
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	s := b.registry.Get(chatID)

	// Navigating away cancels any armed skill
	if data != "cancel" && !strings.HasPrefix(data, "sk:") {
		s.TakePendingSkill()
	}

	switch {
	case data == "menu" || data == "back" || data == "cancel":
		b.responder.Respond(chatID, messageID, MenuText, "", mainMenuKeyboard(b.recents.Get(chatID)))

	case data == "noop":
		// Informational button, nothing to do

	case data == "cat:skills":
		b.responder.Respond(chatID, messageID, "🛠 *Skills*\nTap to activate, then type your message.", "Markdown", skillsKeyboard(b.skills))

	case data == "cat:git":
		b.responder.Respond(chatID, messageID, "📂 *Git*", "Markdown", gitKeyboard())

	case data == "cat:settings":
		b.responder.Respond(chatID, messageID, "⚙ *Settings*", "Markdown",
			settingsKeyboard(b.settings.GetModel(), b.cfg.WorkDir, b.cfg.ModelAliases, b.settings.GetSkipPermissions()))

	case data == "cat:session":
		b.responder.Respond(chatID, messageID, "📋 *Session*", "Markdown", sessionKeyboard())

	case strings.HasPrefix(data, "sk:"):
		b.armSkill(chatID, messageID, s, strings.TrimPrefix(data, "sk:"))

	case strings.HasPrefix(data, "git:"):
		b.gitCallback(ctx, chatID, messageID, s, strings.TrimPrefix(data, "git:"))

	case strings.HasPrefix(data, "ses:"):
		b.sessionCallback(ctx, chatID, messageID, strings.TrimPrefix(data, "ses:"))

	case data == "set:model":
		b.responder.Respond(chatID, messageID, "⚙ *Select model:*", "Markdown",
			modelPickerKeyboard(b.settings.GetModel(), b.cfg.ModelAliases, b.aliasOrder()))

	case strings.HasPrefix(data, "set:model:"):
		b.pickModel(chatID, messageID, strings.TrimPrefix(data, "set:model:"))

	case data == "set:sudo":
		b.toggleSudoCallback(chatID, messageID)
	}
}

// armSkill marks a skill as pending; the next text message invokes it.
func (b *Bot) armSkill(chatID int64, messageID int, s *session.Session, name string) {
	s.SetPendingSkill(name)
	text := fmt.Sprintf("🛠 *%s*\nType your message (it will be sent as `/%s <your text>`).", name, name)
	b.responder.Respond(chatID, messageID, text, "Markdown", cancelKeyboard())
}

func (b *Bot) gitCallback(ctx context.Context, chatID int64, messageID int, s *session.Session, action string) {
	if prompt, ok := gitImmediatePrompts[action]; ok {
		b.responder.Respond(chatID, messageID, fmt.Sprintf("📂 Running git %s...", action), "", nil)
		b.recordRecent(chatID, "git:"+action)
		b.relayAndReply(ctx, chatID, prompt, false)
		return
	}

	if label, ok := gitInputLabels[action]; ok {
		s.SetPendingSkill("git:" + action)
		b.responder.Respond(chatID, messageID, fmt.Sprintf("📂 *git %s*\n%s", action, label), "Markdown", cancelKeyboard())
	}
}

func (b *Bot) sessionCallback(ctx context.Context, chatID int64, messageID int, action string) {
	switch action {
	case "info":
		b.responder.Respond(chatID, messageID, b.sessionInfoText(b.registry.Get(chatID)), "", mainMenuKeyboard(b.recents.Get(chatID)))

	case "new":
		s := b.registry.Get(chatID)
		old := s.EngineSessionID()
		s.ResetRecord()
		b.persistSessions(chatID)

		text := "🆕 New session started."
		if old != "" {
			text += fmt.Sprintf("\nPrevious: %s...", truncate(old, 16))
		}
		b.responder.Respond(chatID, messageID, text, "", mainMenuKeyboard(b.recents.Get(chatID)))

	case "compact":
		b.responder.Respond(chatID, messageID, "📦 Compacting session...", "", nil)
		b.cmdCompact(ctx, chatID)

	case "clear":
		b.registry.Get(chatID).ResetRecord()
		b.persistSessions(chatID)
		b.responder.Respond(chatID, messageID, "🗑 Session cleared.", "", mainMenuKeyboard(b.recents.Get(chatID)))
	}
}

func (b *Bot) pickModel(chatID int64, messageID int, choice string) {
	var model string
	if choice != "default" {
		model = b.cfg.ResolveModel(choice)
	}
	if err := b.settings.SetModel(model); err != nil {
		logger.WithChat(chatID).Error("failed to save model setting", "error", err)
	}

	b.responder.Respond(chatID, messageID, fmt.Sprintf("⚙ Model set to *%s*", choice), "Markdown",
		settingsKeyboard(b.settings.GetModel(), b.cfg.WorkDir, b.cfg.ModelAliases, b.settings.GetSkipPermissions()))
}

func (b *Bot) toggleSudoCallback(chatID int64, messageID int) {
	on, err := b.settings.ToggleSkipPermissions()
	if err != nil {
		logger.WithChat(chatID).Error("failed to save sudo setting", "error", err)
	}

	state := "OFF"
	if on {
		state = "ON"
	}
	b.responder.Respond(chatID, messageID, fmt.Sprintf("⚙ Sudo is now *%s*", state), "Markdown",
		settingsKeyboard(b.settings.GetModel(), b.cfg.WorkDir, b.cfg.ModelAliases, b.settings.GetSkipPermissions()))
}
