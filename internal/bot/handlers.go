package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grepbot/internal/grep"
	"grepbot/internal/model"
)

const (
	sourceURL  = "https://github.com/TumblrCommunity/grepbot"
	authorInfo = "talk to artemis (https://github.com/ashfordneil)"
)

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, `Hi! I'm grepbot.

Tell me a regular expression and I'll mention you whenever someone else writes a message matching it.

Quick start:
1. /add <regex> - start listening for a pattern
2. /list - see your patterns
3. /remove <regex> - stop listening

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, `Commands:
/add <regex> - get mentioned when a message matches <regex>
/remove <regex> - remove a pattern (must match exactly what you added)
/list - show your patterns
/save - dump your patterns as JSON
/syntax - regular expression cheat sheet
/source - where the code lives
/author - who to talk to about the bot

A pattern matches anywhere in a message. You are never notified about your own messages, and at most once every few minutes per chat.`)
}

func (b *Bot) handleSyntax(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, `Patterns use RE2 syntax (https://github.com/google/re2/wiki/Syntax).

.        any character
[abc]    one of a, b, c
a|b      a or b
a*  a+   zero/one or more a
^  $     start / end of message
\b       word boundary
(?i)     case-insensitive from here on

Example: /add (?i)\bdeploy(ed|ing)?\b`)
}

func (b *Bot) handleSource(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, sourceURL)
}

func (b *Bot) handleAuthor(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, authorInfo)
}

func (b *Bot) handleAdd(ctx context.Context, chatID, userID int64, args string) {
	pattern, err := ParsePatternArg(args)
	if err != nil {
		b.reply(ctx, chatID, "Usage: /add <regex>")
		return
	}

	added, err := b.greps.Insert(userID, pattern)
	var invalid *grep.InvalidPatternError
	switch {
	case errors.As(err, &invalid):
		b.reply(ctx, chatID, fmt.Sprintf("Invalid regex. %v", invalid))
		return
	case err != nil:
		b.log.Error("add grep", "user_id", userID, "error", err)
		return
	case !added:
		b.reply(ctx, chatID, "Regex already exists")
		return
	}

	g := model.Grep{Pattern: pattern, UserID: userID}
	if err := b.store.CreateGrep(ctx, g); err != nil {
		b.greps.Remove(userID, pattern)
		b.log.Error("save grep", "user_id", userID, "pattern", pattern, "error", err)
		return
	}

	b.log.Info("grep added", "user_id", userID, "pattern", pattern)
	b.reply(ctx, chatID, "Regex added")
}

func (b *Bot) handleRemove(ctx context.Context, chatID, userID int64, args string) {
	pattern, err := ParsePatternArg(args)
	if err != nil {
		b.reply(ctx, chatID, "Usage: /remove <regex>")
		return
	}

	if !b.greps.Remove(userID, pattern) {
		b.reply(ctx, chatID, fmt.Sprintf("Regex %s was not found", pattern))
		return
	}

	g := model.Grep{Pattern: pattern, UserID: userID}
	if err := b.store.DeleteGrep(ctx, g); err != nil {
		if _, restoreErr := b.greps.Insert(userID, pattern); restoreErr != nil {
			b.log.Error("restore grep", "user_id", userID, "pattern", pattern, "error", restoreErr)
		}
		b.log.Error("delete grep", "user_id", userID, "pattern", pattern, "error", err)
		return
	}

	b.log.Info("grep removed", "user_id", userID, "pattern", pattern)
	b.reply(ctx, chatID, fmt.Sprintf("Regex %s removed", pattern))
}

func (b *Bot) handleList(ctx context.Context, chatID, userID int64) {
	subs := b.greps.ByUser(userID)

	msg := tgbotapi.NewMessage(chatID, FormatGrepList(subs))
	msg.DisableWebPagePreview = true
	if kb := grepListKeyboard(subs); kb != nil {
		msg.ReplyMarkup = kb
	}
	b.send(ctx, msg)
}

func (b *Bot) handleSave(ctx context.Context, chatID, userID int64) {
	subs := b.greps.ByUser(userID)
	greps := make([]model.Grep, len(subs))
	for i, s := range subs {
		greps[i] = s.Grep()
	}

	data, err := grep.MarshalGreps(greps)
	if err != nil {
		b.log.Error("encode greps", "user_id", userID, "error", err)
		return
	}
	b.reply(ctx, chatID, string(data))
}
