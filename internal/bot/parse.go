package bot

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grepbot/internal/model"
)

const (
	cmdStart  = "start"
	cmdHelp   = "help"
	cmdSyntax = "syntax"
	cmdSource = "source"
	cmdAdd    = "add"
	cmdRemove = "remove"
	cmdList   = "list"
	cmdSave   = "save"
	cmdAuthor = "author"
)

// callbackRemove prefixes inline button data that removes a grep.
const callbackRemove = "rm:"

// maxCallbackData is Telegram's limit on inline button data, in bytes.
const maxCallbackData = 64

var errPatternRequired = errors.New("pattern is required")

// ParsePatternArg extracts a pattern from command arguments. The arguments
// are taken verbatim, so leading and trailing spaces are part of the
// pattern. Blank arguments are rejected.
func ParsePatternArg(args string) (string, error) {
	if strings.TrimSpace(args) == "" {
		return "", errPatternRequired
	}
	return args, nil
}

// removeCallbackData returns the inline button data that removes pattern,
// or false when it does not fit Telegram's limit.
func removeCallbackData(pattern string) (string, bool) {
	data := callbackRemove + pattern
	if len(data) > maxCallbackData {
		return "", false
	}
	return data, true
}

func knownCommand(cmd string) bool {
	switch cmd {
	case cmdStart, cmdHelp, cmdSyntax, cmdSource, cmdAuthor, cmdAdd, cmdRemove, cmdList, cmdSave:
		return true
	default:
		return false
	}
}

func commandLabel(cmd string) string {
	if knownCommand(cmd) {
		return cmd
	}
	return "unknown"
}

// addressedTo reports whether a command without an @suffix, or with
// @username, was sent by the user to this bot.
func addressedTo(m *tgbotapi.Message, username string) bool {
	_, at, ok := strings.Cut(m.CommandWithAt(), "@")
	return !ok || strings.EqualFold(at, username)
}

// toMessage converts a Telegram message into the matcher's input.
// Captions are matched for media messages.
func toMessage(m *tgbotapi.Message) model.Message {
	msg := model.Message{
		ID:     m.MessageID,
		Text:   m.Text,
		ChatID: m.Chat.ID,
	}
	if msg.Text == "" {
		msg.Text = m.Caption
	}
	if m.From != nil {
		msg.AuthorID = m.From.ID
		msg.IsBot = m.From.IsBot
	}
	return msg
}
