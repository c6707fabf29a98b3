// Package metrics defines the Prometheus metrics exported by the bot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grepbot"

// Metrics holds all application metrics.
type Metrics struct {
	registry *prometheus.Registry

	MessagesProcessed  prometheus.Counter
	NotificationsSent  prometheus.Counter
	UsersNotified      prometheus.Counter
	CooldownSuppressed prometheus.Counter
	SendFailures       prometheus.Counter
	Commands           *prometheus.CounterVec
	MatchLatency       prometheus.Histogram
	Greps              prometheus.Gauge
	CooldownEntries    prometheus.Gauge
}

// New creates all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Total number of non-command messages run through the matcher",
		}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notification messages delivered",
		}),
		UsersNotified: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_notified_total",
			Help:      "Total number of user mentions produced by the matcher",
		}),
		CooldownSuppressed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_suppressed_total",
			Help:      "Total number of matched users skipped because of the cooldown",
		}),
		SendFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Total number of Telegram messages that failed to send",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of handled commands",
		}, []string{"command"}),
		MatchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time spent matching one message against all greps",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
		Greps: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "greps",
			Help:      "Current number of active greps",
		}),
		CooldownEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cooldown_entries",
			Help:      "Current number of tracked (user, chat) cooldown entries",
		}),
	}
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
