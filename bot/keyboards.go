package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/claudegram/claudegram/skills"
)

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

// mainMenuKeyboard builds the top-level menu: a row of recent skills,
// then category buttons.
func mainMenuKeyboard(recents []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if len(recents) > 0 {
		top := recents
		if len(top) > 3 {
			top = top[:3]
		}
		var row []tgbotapi.InlineKeyboardButton
		for _, r := range top {
			row = append(row, btn("⚡ "+r, "sk:"+r))
		}
		rows = append(rows, row)
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(btn("🛠 Skills", "cat:skills"), btn("📂 Git", "cat:git")),
		tgbotapi.NewInlineKeyboardRow(btn("⚙ Settings", "cat:settings"), btn("📋 Session", "cat:session")),
	)

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// skillsKeyboard lays out discovered skills two per row.
func skillsKeyboard(list []skills.Skill) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var pair []tgbotapi.InlineKeyboardButton

	for _, sk := range list {
		pair = append(pair, btn(sk.Name, "sk:"+sk.Name))
		if len(pair) == 2 {
			rows = append(rows, pair)
			pair = nil
		}
	}
	if len(pair) > 0 {
		rows = append(rows, pair)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("« Back", "back")))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func gitKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("status", "git:status"), btn("diff", "git:diff"), btn("log", "git:log")),
		tgbotapi.NewInlineKeyboardRow(btn("commit", "git:commit"), btn("branch", "git:branch"), btn("stash", "git:stash")),
		tgbotapi.NewInlineKeyboardRow(btn("undo", "git:undo"), btn("pr", "git:pr")),
		tgbotapi.NewInlineKeyboardRow(btn("« Back", "back")),
	)
	return &kb
}

// settingsKeyboard shows the current model (short alias when known),
// the sudo state, and the immutable work dir.
func settingsKeyboard(model, workDir string, aliases map[string]string, sudo bool) *tgbotapi.InlineKeyboardMarkup {
	label := model
	if label == "" {
		label = "default"
	}
	for alias, full := range aliases {
		if full == model {
			label = alias
			break
		}
	}

	sudoLabel := "OFF"
	if sudo {
		sudoLabel = "ON"
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("Model: "+label, "set:model")),
		tgbotapi.NewInlineKeyboardRow(btn("Sudo: "+sudoLabel, "set:sudo")),
		tgbotapi.NewInlineKeyboardRow(btn("Work Dir: "+workDir, "noop")),
		tgbotapi.NewInlineKeyboardRow(btn("« Back", "back")),
	)
	return &kb
}

// modelPickerKeyboard lists model aliases with a check on the current one.
func modelPickerKeyboard(current string, aliases map[string]string, order []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, alias := range order {
		label := alias
		if aliases[alias] == current {
			label += " ✓"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(label, "set:model:"+alias)))
	}

	defaultLabel := "default"
	if current == "" {
		defaultLabel += " ✓"
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(btn(defaultLabel, "set:model:default")),
		tgbotapi.NewInlineKeyboardRow(btn("« Back", "cat:settings")),
	)

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func sessionKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("📊 Info", "ses:info"), btn("🆕 New", "ses:new")),
		tgbotapi.NewInlineKeyboardRow(btn("📦 Compact", "ses:compact"), btn("🗑 Clear", "ses:clear")),
		tgbotapi.NewInlineKeyboardRow(btn("« Back", "back")),
	)
	return &kb
}

func cancelKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("Cancel", "cancel")),
	)
	return &kb
}
