package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"grepbot/internal/config"
	"grepbot/internal/grep"
	"grepbot/internal/metrics"
	"grepbot/internal/model"
	"grepbot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that manages greps and posts match notifications.
type Bot struct {
	api      telegramAPI
	username string
	store    storage.Storage
	greps    *grep.Store
	engine   *grep.Engine
	cfg      *config.Config
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token. The grep store must
// already hold the persisted greps; engine must match against it.
func New(token string, store storage.Storage, greps *grep.Store, engine *grep.Engine,
	cfg *config.Config, m *metrics.Metrics, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("authorized", "username", api.Self.UserName)

	return newBot(api, api.Self.UserName, store, greps, engine, cfg, m, log), nil
}

func newBot(api telegramAPI, username string, store storage.Storage, greps *grep.Store, engine *grep.Engine,
	cfg *config.Config, m *metrics.Metrics, log *slog.Logger) *Bot {
	burst := int(cfg.SendRate)
	if burst < 1 {
		burst = 1
	}
	return &Bot{
		api:      api,
		username: username,
		store:    store,
		greps:    greps,
		engine:   engine,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendRate), burst),
		metrics:  m,
		log:      log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	if b.isOwnCommand(msg) {
		if !b.cfg.IsUserAllowed(msg.From.ID) {
			b.reply(ctx, msg.Chat.ID, "Access denied.")
			return
		}
		b.handleCommand(ctx, msg)
		return
	}
	b.handleMessage(ctx, toMessage(msg))
}

// isOwnCommand reports whether msg is a command for this bot. Commands
// addressed to other bots, and unknown commands outside private chats, are
// matched like any other text.
func (b *Bot) isOwnCommand(msg *tgbotapi.Message) bool {
	if !msg.IsCommand() || !addressedTo(msg, b.username) {
		return false
	}
	return knownCommand(msg.Command()) || msg.Chat.IsPrivate()
}

// handleMessage runs the matcher over a plain message and sends the
// notification, if any.
func (b *Bot) handleMessage(ctx context.Context, msg model.Message) {
	start := time.Now()
	n := b.engine.Match(msg)
	b.metrics.MatchLatency.Observe(time.Since(start).Seconds())
	b.metrics.MessagesProcessed.Inc()
	b.metrics.CooldownSuppressed.Add(float64(len(n.Suppressed)))

	if len(n.Suppressed) > 0 {
		b.log.Debug("cooldown suppressed", "chat_id", n.ChatID, "users", n.Suppressed)
	}
	if n.Empty() {
		return
	}

	b.log.Info("grep matched", "chat_id", n.ChatID, "message_id", n.MessageID, "users", n.Users)
	b.metrics.UsersNotified.Add(float64(len(n.Users)))
	b.SendNotification(ctx, n)
}

// SendNotification posts a notification as a reply to the message that
// triggered it. Delivery failures are logged and otherwise ignored.
func (b *Bot) SendNotification(ctx context.Context, n grep.Notification) {
	msg := tgbotapi.NewMessage(n.ChatID, n.Text(Mention))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = n.MessageID
	msg.AllowSendingWithoutReply = true
	if b.send(ctx, msg) {
		b.metrics.NotificationsSent.Inc()
	}
}

// SendMessage sends a plain text message to the given chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	b.send(ctx, msg)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.SendMessage(ctx, chatID, text)
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) bool {
	if err := b.limiter.Wait(ctx); err != nil {
		b.log.Warn("send cancelled", "error", err)
		return false
	}
	if _, err := b.api.Send(c); err != nil {
		b.metrics.SendFailures.Inc()
		b.log.Error("send message", "error", err)
		return false
	}
	return true
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := msg.CommandArguments()
	chatID := msg.Chat.ID
	userID := msg.From.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID, "user_id", userID)
	b.metrics.Commands.WithLabelValues(commandLabel(cmd)).Inc()

	switch cmd {
	case cmdStart:
		b.handleStart(ctx, chatID)
	case cmdHelp:
		b.handleHelp(ctx, chatID)
	case cmdSyntax:
		b.handleSyntax(ctx, chatID)
	case cmdSource:
		b.handleSource(ctx, chatID)
	case cmdAuthor:
		b.handleAuthor(ctx, chatID)
	case cmdAdd:
		b.handleAdd(ctx, chatID, userID, args)
	case cmdRemove:
		b.handleRemove(ctx, chatID, userID, args)
	case cmdList:
		b.handleList(ctx, chatID, userID)
	case cmdSave:
		b.handleSave(ctx, chatID, userID)
	default:
		b.reply(ctx, chatID, "Unknown command. Use /help for a list of commands.")
	}
}
