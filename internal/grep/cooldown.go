package grep

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCooldown is the minimum time between two notifications for the
// same user in the same chat.
const DefaultCooldown = 5 * time.Minute

// Cooldown tracks when each user was last notified in each chat.
//
// Entries never expire inside the cache. Decisions always compare the stored
// timestamp with the supplied time, and Sweep drops entries that can no
// longer suppress anything.
type Cooldown struct {
	mu       sync.Mutex
	interval time.Duration
	sweep    time.Duration
	entries  *cache.Cache
}

// NewCooldown creates a filter with the given interval. A positive sweep is
// the period Run uses to evict stale entries.
func NewCooldown(interval, sweep time.Duration) *Cooldown {
	return &Cooldown{
		interval: interval,
		sweep:    sweep,
		entries:  cache.New(cache.NoExpiration, 0),
	}
}

// Interval returns the configured cooldown interval.
func (c *Cooldown) Interval() time.Duration {
	return c.interval
}

// ShouldNotify reports whether userID may be notified in chatID at now.
func (c *Cooldown) ShouldNotify(userID, chatID int64, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldNotify(userID, chatID, now)
}

// Record stores now as the last notification time for userID in chatID.
func (c *Cooldown) Record(userID, chatID int64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(userID, chatID, now)
}

// Acquire checks and records in one step. It returns true and records now
// when userID may be notified in chatID, and false otherwise.
func (c *Cooldown) Acquire(userID, chatID int64, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.shouldNotify(userID, chatID, now) {
		return false
	}
	c.record(userID, chatID, now)
	return true
}

// Sweep deletes every entry recorded more than one interval before now and
// returns how many were removed.
func (c *Cooldown) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, item := range c.entries.Items() {
		last, ok := item.Object.(time.Time)
		if ok && now.Sub(last) <= c.interval {
			continue
		}
		c.entries.Delete(k)
		removed++
	}
	return removed
}

// Run sweeps stale entries every sweep period until ctx is cancelled.
// It returns immediately when the sweep period is not positive.
func (c *Cooldown) Run(ctx context.Context) {
	if c.sweep <= 0 {
		return
	}
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Sweep(now)
		}
	}
}

// Len returns the number of tracked (user, chat) entries.
func (c *Cooldown) Len() int {
	return c.entries.ItemCount()
}

func (c *Cooldown) shouldNotify(userID, chatID int64, now time.Time) bool {
	v, ok := c.entries.Get(cooldownKey(userID, chatID))
	if !ok {
		return true
	}
	last, ok := v.(time.Time)
	if !ok {
		return true
	}
	return now.Sub(last) > c.interval
}

func (c *Cooldown) record(userID, chatID int64, now time.Time) {
	c.entries.Set(cooldownKey(userID, chatID), now, cache.NoExpiration)
}

func cooldownKey(userID, chatID int64) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(chatID, 10)
}
