package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"grepbot/internal/bot"
	"grepbot/internal/config"
	"grepbot/internal/grep"
	"grepbot/internal/metrics"
	"grepbot/internal/reporter"
	"grepbot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	saved, err := store.ListGreps(ctx)
	if err != nil {
		log.Error("load greps", "error", err)
		os.Exit(1)
	}
	greps, err := grep.NewStore(saved...)
	if err != nil {
		log.Error("compile greps", "error", err)
		os.Exit(1)
	}
	cooldown := grep.NewCooldown(cfg.Cooldown, cfg.CooldownSweep)
	engine := grep.NewEngine(greps, cooldown)
	m := metrics.New()

	b, err := bot.New(cfg.TelegramBotToken, store, greps, engine, cfg, m, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	rep := reporter.New(greps, cooldown, m, log)
	rep.SetTickInterval(cfg.ReportInterval)

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	log.Info("starting bot", "greps", greps.Len(), "cooldown", cfg.Cooldown)

	go rep.Run(ctx)
	go cooldown.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
