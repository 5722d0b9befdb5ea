package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/claudegram/claudegram/config"
	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/relay"
	"github.com/claudegram/claudegram/session"
	"github.com/claudegram/claudegram/skills"
)

// typingInterval is how often the typing indicator is refreshed while an
// invocation runs. Telegram expires the indicator after about five
// seconds.
const typingInterval = 4 * time.Second

// Bot routes Telegram updates to the relay gate and the menus.
type Bot struct {
	transport Transport
	gate      *relay.Gate
	registry  *session.Registry
	settings  *config.Settings
	owner     *config.Owner
	recents   *config.Recents
	skills    []skills.Skill
	cfg       *config.Bridge
	responder *Responder
}

// New assembles the bot from its collaborators.
func New(transport Transport, gate *relay.Gate, registry *session.Registry, settings *config.Settings,
	owner *config.Owner, recents *config.Recents, skillList []skills.Skill, cfg *config.Bridge) *Bot {
	return &Bot{
		transport: transport,
		gate:      gate,
		registry:  registry,
		settings:  settings,
		owner:     owner,
		recents:   recents,
		skills:    skillList,
		cfg:       cfg,
		responder: NewResponder(transport, registry),
	}
}

// RegisterCommands publishes the slash command list to Telegram.
func (b *Bot) RegisterCommands() error {
	return b.transport.SetCommands([]tgbotapi.BotCommand{
		{Command: "menu", Description: "Open button menu"},
		{Command: "new", Description: "Fresh session"},
		{Command: "model", Description: "Set/show model"},
		{Command: "sudo", Description: "Toggle sudo"},
		{Command: "status", Description: "Git status"},
		{Command: "diff", Description: "Git diff"},
		{Command: "commit", Description: "Commit changes"},
		{Command: "run", Description: "Run shell command"},
		{Command: "help", Description: "Show help"},
	})
}

// Run consumes updates until the context is canceled. Each update is
// handled in its own goroutine so menu taps stay responsive while a
// relay is in flight.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	log := logger.WithComponent("bot")
	log.Info("update loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("update loop stopping")
			return
		case update, ok := <-updates:
			if !ok {
				log.Info("update channel closed")
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

// authorize enforces single-owner access. The first user to message the
// bot claims it; everyone else is rejected from then on.
func (b *Bot) authorize(userID int64, username string) bool {
	ok, err := b.owner.Claim(userID, username)
	if err != nil {
		logger.WithComponent("bot").Error("failed to record owner claim", "error", err)
		return false
	}
	return ok
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if !b.authorize(msg.From.ID, msg.From.UserName) {
		b.send(chatID, "Unauthorized.", "", nil)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, chatID, msg.Text)
}

// handleText relays plain text, honoring a pending skill armed from the
// menu.
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	s := b.registry.Get(chatID)

	if skill := s.TakePendingSkill(); skill != "" {
		if action, ok := strings.CutPrefix(skill, "git:"); ok {
			b.recordRecent(chatID, skill)
			b.relayAndReply(ctx, chatID, gitInputPrompt(action, text), false)
			return
		}

		b.recordRecent(chatID, skill)
		b.relayAndReply(ctx, chatID, fmt.Sprintf("/%s %s", skill, text), false)
		return
	}

	b.relayAndReply(ctx, chatID, text, false)
}

// gitInputPrompt builds the engine prompt for a git action that asked
// the user for input.
func gitInputPrompt(action, input string) string {
	switch action {
	case "commit":
		return strings.TrimSpace("/commit " + input)
	case "branch":
		if strings.TrimSpace(input) == "" {
			return "Run `git branch -a` and show the output."
		}
		return fmt.Sprintf("Switch to (or create) branch `%s` and show result.", input)
	case "stash":
		return fmt.Sprintf("Run `git stash %s` and show result.", input)
	case "pr":
		return strings.TrimSpace("Create a pull request. " + input)
	default:
		return input
	}
}

// gitImmediatePrompts maps menu git actions that need no input to their
// engine prompts.
var gitImmediatePrompts = map[string]string{
	"status": "Run `git status` and show the output concisely.",
	"diff":   "Run `git diff` and show the output. If large, summarize key changes.",
	"log":    "Run `git log --oneline -n 10` and show the output.",
	"undo":   "Run `git reset --soft HEAD~1` and show result.",
}

// gitInputLabels maps git actions that need input to the question shown
// before the user types it.
var gitInputLabels = map[string]string{
	"commit": "Commit message (or leave blank):",
	"branch": "Branch name (or blank to list all):",
	"stash":  "Stash operation (list/push/pop/drop):",
	"pr":     "PR description (or blank for auto):",
}

// relayAndReply runs the gate for a prompt and delivers the reply,
// keeping the typing indicator alive while the engine works.
func (b *Bot) relayAndReply(ctx context.Context, chatID int64, prompt string, fresh bool) {
	// A busy rejection is immediate; answer it without flashing a
	// typing indicator. The gate still enforces the lock below.
	if b.registry.Get(chatID).Busy() {
		b.deliver(chatID, relay.BusyText)
		return
	}

	stop := make(chan struct{})
	go b.keepTyping(chatID, stop)
	defer close(stop)

	reply := b.gate.Relay(ctx, chatID, prompt, fresh)
	b.deliver(chatID, reply.Text)
}

// keepTyping refreshes the typing indicator until stopped.
func (b *Bot) keepTyping(chatID int64, stop <-chan struct{}) {
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()

	b.transport.SendTyping(chatID)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.transport.SendTyping(chatID)
		}
	}
}

// deliver splits a reply to fit Telegram's limit and sends each chunk as
// Markdown, falling back to plain text when Telegram rejects the markup.
func (b *Bot) deliver(chatID int64, text string) {
	for _, chunk := range SplitMessage(text, MaxMsgLen) {
		if _, err := b.transport.SendMessage(chatID, chunk, "Markdown", nil); err != nil {
			b.send(chatID, chunk, "", nil)
		}
	}
}

// send is a logged, error-swallowing SendMessage.
func (b *Bot) send(chatID int64, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.transport.SendMessage(chatID, text, parseMode, markup); err != nil {
		logger.WithChat(chatID).Error("failed to send message", "error", err)
	}
}

// recordRecent stores a skill use in the per-chat recents list.
func (b *Bot) recordRecent(chatID int64, name string) {
	if err := b.recents.Add(chatID, name); err != nil {
		logger.WithChat(chatID).Error("failed to record recent skill", "error", err)
	}
}

// aliasOrder returns model alias names in a stable order for the picker.
func (b *Bot) aliasOrder() []string {
	order := make([]string, 0, len(b.cfg.ModelAliases))
	for alias := range b.cfg.ModelAliases {
		order = append(order, alias)
	}
	sort.Strings(order)
	return order
}

// sessionInfoText renders the /session report.
func (b *Bot) sessionInfoText(s *session.Session) string {
	rec := s.Snapshot()
	if rec.EngineSessionID == "" {
		return "No active session. Send a message to start one."
	}

	model := b.settings.GetModel()
	if model == "" {
		model = "default"
	}
	sudo := "disabled"
	if b.settings.GetSkipPermissions() {
		sudo = "enabled"
	}

	return fmt.Sprintf("Session: %s\nStarted: %s\nMessages: %d\nModel: %s\nSudo (skip-permissions): %s",
		rec.EngineSessionID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.MessageCount, model, sudo)
}
