// Package bot is the Telegram side of the bridge: update handling,
// command dispatch, menus, and reply delivery.
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Transport is the slice of the Telegram API the bot uses. The real
// implementation wraps tgbotapi; tests substitute a mock.
type Transport interface {
	// SendMessage sends a new message and returns its message ID.
	SendMessage(chatID int64, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) (int, error)
	// EditMessageText rewrites an existing message in place.
	EditMessageText(chatID int64, messageID int, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) error
	// AnswerCallback acknowledges a button tap.
	AnswerCallback(callbackID, text string) error
	// SendTyping shows the typing indicator for a chat.
	SendTyping(chatID int64) error
	// SetCommands registers the slash command list with Telegram.
	SetCommands(commands []tgbotapi.BotCommand) error
}

// apiTransport adapts *tgbotapi.BotAPI to Transport.
type apiTransport struct {
	api *tgbotapi.BotAPI
}

// NewTransport wraps a Telegram API client.
func NewTransport(api *tgbotapi.BotAPI) Transport {
	return &apiTransport{api: api}
}

func (t *apiTransport) SendMessage(chatID int64, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *apiTransport) EditMessageText(chatID int64, messageID int, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = parseMode
	edit.ReplyMarkup = markup
	_, err := t.api.Send(edit)
	return err
}

func (t *apiTransport) AnswerCallback(callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (t *apiTransport) SendTyping(chatID int64) error {
	_, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

func (t *apiTransport) SetCommands(commands []tgbotapi.BotCommand) error {
	_, err := t.api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}
