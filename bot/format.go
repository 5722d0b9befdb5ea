package bot

import (
	"strings"
	"unicode/utf8"
)

// MaxMsgLen is Telegram's message length limit.
const MaxMsgLen = 4096

// MenuText heads the button menu message.
const MenuText = "Claude Code Bridge - tap a button or type a message."

// HelpText lists every command the bot understands.
const HelpText = `*Claude Code Bridge*

Send any message to chat with Claude Code.

*Session*
/new - Fresh session
/session - Current session info
/compact - Summarize & start new session
/clear - Drop session tracking

*Model & Settings*
/model [name] - Set or show model
/sudo [on|off] - Toggle permissions skip
/settings - Show current settings

*Git*
/status - Git status
/diff - Show diff
/commit - Commit changes
/log - Recent commits
/branch [name] - List or switch branch
/stash [op] - Git stash operations
/undo - Soft reset HEAD~1
/pr - Create a PR

*Files & Misc*
/find <pattern> - Find files
/read <path> - Read file
/edit <instr> - Edit via instruction
/run <cmd> - Run a shell command
/help - This message`

// SplitMessage breaks text into chunks under the Telegram limit,
// preferring paragraph breaks, then line breaks, then spaces. A cut
// point in the first quarter of the window is rejected as too wasteful.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}

		cut := strings.LastIndex(text[:limit], "\n\n")
		if cut < limit/4 {
			cut = strings.LastIndex(text[:limit], "\n")
		}
		if cut < limit/4 {
			cut = strings.LastIndex(text[:limit], " ")
		}
		if cut < limit/4 {
			// Hard cut: back off to a rune boundary so a chunk never
			// ends mid-character.
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	return chunks
}
