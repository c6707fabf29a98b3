// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	DatabasePath     string        `envconfig:"DATABASE_PATH" default:"./data/grepbot.db"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	Cooldown         time.Duration `envconfig:"COOLDOWN" default:"5m"`
	CooldownSweep    time.Duration `envconfig:"COOLDOWN_SWEEP" default:"10m"`
	SendRate         float64       `envconfig:"SEND_RATE" default:"20"`
	MetricsAddr      string        `envconfig:"METRICS_ADDR"`
	ReportInterval   time.Duration `envconfig:"REPORT_INTERVAL" default:"1m"`
	AllowedUsers     []int64       `ignored:"true"`
}

// env holds values that need parsing beyond what envconfig does.
type env struct {
	Config
	AllowedUsersRaw string `envconfig:"ALLOWED_USERS"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg := e.Config

	if cfg.TelegramBotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./data/grepbot.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Cooldown <= 0 {
		return nil, fmt.Errorf("COOLDOWN must be positive, got %s", cfg.Cooldown)
	}
	if cfg.CooldownSweep < 0 {
		return nil, fmt.Errorf("COOLDOWN_SWEEP must not be negative, got %s", cfg.CooldownSweep)
	}
	if cfg.SendRate <= 0 {
		return nil, fmt.Errorf("SEND_RATE must be positive, got %v", cfg.SendRate)
	}
	if cfg.ReportInterval <= 0 {
		return nil, fmt.Errorf("REPORT_INTERVAL must be positive, got %s", cfg.ReportInterval)
	}

	users, err := parseUserIDs(e.AllowedUsersRaw)
	if err != nil {
		return nil, err
	}
	cfg.AllowedUsers = users

	return &cfg, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
