package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/session"
)

// Responder delivers menu navigation updates. Navigation only reads the
// busy flag, it never acquires the session: menus must stay responsive
// while an invocation is in flight.
type Responder struct {
	transport Transport
	registry  *session.Registry
}

// NewResponder wires a responder over the transport and registry.
func NewResponder(transport Transport, registry *session.Registry) *Responder {
	return &Responder{transport: transport, registry: registry}
}

// Respond updates the menu for a chat. When the session is idle the
// existing menu message is edited in place; while busy a new message is
// sent instead, since the original may be carrying progress state the
// user still wants to see. Delivery errors are logged, never returned:
// a failed menu repaint must not break update handling.
func (r *Responder) Respond(chatID int64, messageID int, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) {
	log := logger.WithChat(chatID).With("component", "responder")

	if r.registry.Get(chatID).Busy() {
		if _, err := r.transport.SendMessage(chatID, text, parseMode, markup); err != nil {
			log.Error("failed to send navigation message", "error", err)
		}
		return
	}

	if err := r.transport.EditMessageText(chatID, messageID, text, parseMode, markup); err != nil {
		log.Debug("edit failed, sending new message", "messageID", messageID, "error", err)
		if _, err := r.transport.SendMessage(chatID, text, parseMode, markup); err != nil {
			log.Error("failed to send navigation message", "error", err)
		}
	}
}
