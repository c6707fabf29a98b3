package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if cb.Message == nil || cb.From == nil || cb.From.IsBot {
		return
	}
	chatID := cb.Message.Chat.ID

	pattern, ok := strings.CutPrefix(cb.Data, callbackRemove)
	if !ok {
		return
	}

	b.log.Info("callback",
		"action", "remove",
		"pattern", pattern,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	if !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(ctx, chatID, "Access denied.")
		return
	}
	// Removal is keyed by whoever clicked, not by the owner of the list.
	b.handleRemove(ctx, chatID, cb.From.ID, pattern)
}
