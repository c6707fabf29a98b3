package grep

import (
	"strings"
	"time"

	"grepbot/internal/model"
)

// Notification is the outcome of matching one message.
type Notification struct {
	ChatID    int64
	MessageID int
	// Users to mention, each at most once.
	Users []int64
	// Suppressed lists matched users skipped because of the cooldown.
	Suppressed []int64
}

// Empty reports whether nobody is to be notified.
func (n Notification) Empty() bool {
	return len(n.Users) == 0
}

// Text renders the notification as "Hey!" followed by one mention per user.
func (n Notification) Text(mention func(userID int64) string) string {
	var b strings.Builder
	b.WriteString("Hey!")
	for _, id := range n.Users {
		b.WriteByte(' ')
		b.WriteString(mention(id))
	}
	return b.String()
}

// Engine matches messages against the subscription store and applies the
// cooldown filter.
type Engine struct {
	store    *Store
	cooldown *Cooldown
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for cooldown decisions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine over the given store and cooldown filter.
func NewEngine(store *Store, cooldown *Cooldown, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		cooldown: cooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match returns the users to notify about msg. Cooldowns for every
// returned user are recorded before Match returns, whether or not the
// notification is later delivered.
func (e *Engine) Match(msg model.Message) Notification {
	n := Notification{ChatID: msg.ChatID, MessageID: msg.ID}
	if msg.IsBot {
		return n
	}

	seen := make(map[int64]struct{})
	now := e.now()
	for _, sub := range e.store.All() {
		if sub.UserID == msg.AuthorID {
			continue
		}
		if _, ok := seen[sub.UserID]; ok {
			continue
		}
		if !sub.Matches(msg.Text) {
			continue
		}
		seen[sub.UserID] = struct{}{}

		if e.cooldown.Acquire(sub.UserID, msg.ChatID, now) {
			n.Users = append(n.Users, sub.UserID)
		} else {
			n.Suppressed = append(n.Suppressed, sub.UserID)
		}
	}
	return n
}
