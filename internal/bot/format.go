package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grepbot/internal/grep"
)

// Mention renders an HTML mention of a Telegram user by ID.
func Mention(userID int64) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%d</a>`, userID, userID)
}

// FormatGrepList formats a user's greps, one pattern per line.
func FormatGrepList(subs []grep.Subscription) string {
	if len(subs) == 0 {
		return "You have no greps. Use /add <regex> to add one."
	}
	var b strings.Builder
	b.WriteString("Your greps:")
	for _, s := range subs {
		b.WriteString("\n")
		b.WriteString(s.Pattern)
	}
	return b.String()
}

// grepListKeyboard builds one remove button per grep whose pattern fits in
// the callback data. It returns nil when no button fits.
func grepListKeyboard(subs []grep.Subscription) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range subs {
		data, ok := removeCallbackData(s.Pattern)
		if !ok {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Remove "+s.Pattern, data),
		))
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
