package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // user timezones must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

// Database selects and locates the backing store
type Database struct {
	Type       string // sqlite, postgres or memory
	SQLitePath string
	URL        string
}

// Config contains all runtime settings of the service
type Config struct {
	Database Database

	TelegramToken string
	HTTPAddr      string
	LogMode       string

	DefaultTimezone *time.Location

	SessionSize   int
	ContextBefore int
	ContextAfter  int

	NotificationStartHour int
	NotificationEndHour   int
	EnableScheduler       bool

	AdminUserIDs     []int64
	MetricsNamespace string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		Database: Database{
			Type:       strings.ToLower(envOrDefault("DB_TYPE", "sqlite")),
			SQLitePath: envOrDefault("SQLITE_PATH", "data/hifzbot.db"),
			URL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogMode:          envOrDefault("LOG_MODE", "dev"),
		MetricsNamespace: envOrDefault("METRICS_NAMESPACE", "hifzbot"),
	}

	var err error
	tzName := envOrDefault("DEFAULT_TIMEZONE", "UTC")
	if cfg.DefaultTimezone, err = time.LoadLocation(tzName); err != nil {
		return Config{}, fmt.Errorf("DEFAULT_TIMEZONE parse error: %w", err)
	}
	if cfg.SessionSize, err = intFromEnv("SESSION_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.ContextBefore, err = intFromEnv("CONTEXT_BEFORE", 1); err != nil {
		return Config{}, err
	}
	if cfg.ContextAfter, err = intFromEnv("CONTEXT_AFTER", 1); err != nil {
		return Config{}, err
	}
	if cfg.NotificationStartHour, err = intFromEnv("NOTIFICATION_START_HOUR", 6); err != nil {
		return Config{}, err
	}
	if cfg.NotificationEndHour, err = intFromEnv("NOTIFICATION_END_HOUR", 22); err != nil {
		return Config{}, err
	}
	if cfg.EnableScheduler, err = boolFromEnv("ENABLE_SCHEDULER", true); err != nil {
		return Config{}, err
	}
	if cfg.AdminUserIDs, err = idsFromEnv("ADMIN_USER_IDS"); err != nil {
		return Config{}, err
	}

	switch cfg.Database.Type {
	case "sqlite", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("DB_TYPE must be sqlite, postgres or memory, got %q", cfg.Database.Type)
	}
	if cfg.Database.Type == "postgres" && cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
	}
	if cfg.SessionSize <= 0 {
		return Config{}, fmt.Errorf("SESSION_SIZE must be positive")
	}
	if cfg.ContextBefore < 0 || cfg.ContextAfter < 0 {
		return Config{}, fmt.Errorf("CONTEXT_BEFORE and CONTEXT_AFTER must be >= 0")
	}
	if !validHour(cfg.NotificationStartHour) || !validHour(cfg.NotificationEndHour) {
		return Config{}, fmt.Errorf("notification hours must be within 0-23")
	}
	if cfg.NotificationStartHour > cfg.NotificationEndHour {
		return Config{}, fmt.Errorf("NOTIFICATION_START_HOUR must not exceed NOTIFICATION_END_HOUR")
	}
	return cfg, nil
}

// IsAdmin reports whether the Telegram user is listed in ADMIN_USER_IDS
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback, nil
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

func idsFromEnv(key string) ([]int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s parse error: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
