// Package reporter periodically publishes the size of the in-memory state.
package reporter

import (
	"context"
	"log/slog"
	"time"

	"grepbot/internal/metrics"
)

// Sizer is anything that can report how many entries it holds.
type Sizer interface {
	Len() int
}

// Reporter periodically refreshes the state gauges and logs changes.
type Reporter struct {
	greps     Sizer
	cooldowns Sizer
	metrics   *metrics.Metrics
	log       *slog.Logger
	tick      time.Duration

	lastGreps     int
	lastCooldowns int
}

// New creates a Reporter with the default 1-minute interval.
func New(greps, cooldowns Sizer, m *metrics.Metrics, log *slog.Logger) *Reporter {
	return &Reporter{
		greps:         greps,
		cooldowns:     cooldowns,
		metrics:       m,
		log:           log,
		tick:          1 * time.Minute,
		lastGreps:     -1,
		lastCooldowns: -1,
	}
}

// SetTickInterval overrides the default 1-minute interval.
func (r *Reporter) SetTickInterval(d time.Duration) {
	r.tick = d
}

// Run starts the reporting loop, blocking until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	r.report()

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	greps := r.greps.Len()
	cooldowns := r.cooldowns.Len()

	r.metrics.Greps.Set(float64(greps))
	r.metrics.CooldownEntries.Set(float64(cooldowns))

	if greps == r.lastGreps && cooldowns == r.lastCooldowns {
		return
	}
	r.lastGreps, r.lastCooldowns = greps, cooldowns
	r.log.Info("state", "greps", greps, "cooldown_entries", cooldowns)
}
