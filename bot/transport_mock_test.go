package bot

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sentMessage struct {
	chatID    int64
	text      string
	parseMode string
	markup    *tgbotapi.InlineKeyboardMarkup
}

type editedMessage struct {
	chatID    int64
	messageID int
	text      string
	parseMode string
	markup    *tgbotapi.InlineKeyboardMarkup
}

// mockTransport records every Transport call for assertions.
type mockTransport struct {
	mu        sync.Mutex
	sent      []sentMessage
	edits     []editedMessage
	callbacks []string
	typing    int
	commands  []tgbotapi.BotCommand

	// failMarkdown makes SendMessage reject Markdown sends, exercising
	// the plain-text fallback.
	failMarkdown bool
	// failEdit makes EditMessageText fail.
	failEdit bool
}

func (m *mockTransport) SendMessage(chatID int64, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkdown && parseMode == "Markdown" {
		return 0, errors.New("can't parse entities")
	}
	m.sent = append(m.sent, sentMessage{chatID, text, parseMode, markup})
	return len(m.sent), nil
}

func (m *mockTransport) EditMessageText(chatID int64, messageID int, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEdit {
		return errors.New("message to edit not found")
	}
	m.edits = append(m.edits, editedMessage{chatID, messageID, text, parseMode, markup})
	return nil
}

func (m *mockTransport) AnswerCallback(callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callbackID+":"+text)
	return nil
}

func (m *mockTransport) SendTyping(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing++
	return nil
}

func (m *mockTransport) typingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing
}

func (m *mockTransport) SetCommands(commands []tgbotapi.BotCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = commands
	return nil
}

func (m *mockTransport) sentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockTransport) editedMessages() []editedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]editedMessage, len(m.edits))
	copy(out, m.edits)
	return out
}
