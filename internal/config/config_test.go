package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"DB_TYPE", "SQLITE_PATH", "DATABASE_URL", "TELEGRAM_BOT_TOKEN", "HTTP_ADDR",
	"DEFAULT_TIMEZONE", "SESSION_SIZE", "CONTEXT_BEFORE", "CONTEXT_AFTER",
	"NOTIFICATION_START_HOUR", "NOTIFICATION_END_HOUR", "ADMIN_USER_IDS",
	"LOG_MODE", "METRICS_NAMESPACE", "ENABLE_SCHEDULER",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Database.Type)
	require.Equal(t, "data/hifzbot.db", cfg.Database.SQLitePath)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "UTC", cfg.DefaultTimezone.String())
	require.Equal(t, 10, cfg.SessionSize)
	require.Equal(t, 1, cfg.ContextBefore)
	require.Equal(t, 1, cfg.ContextAfter)
	require.True(t, cfg.EnableScheduler)
	require.Empty(t, cfg.AdminUserIDs)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SIZE", "25")
	t.Setenv("DEFAULT_TIMEZONE", "Asia/Jakarta")
	t.Setenv("ADMIN_USER_IDS", "42, 7")
	t.Setenv("ENABLE_SCHEDULER", "off")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	require.Equal(t, 25, cfg.SessionSize)
	require.Equal(t, "Asia/Jakarta", cfg.DefaultTimezone.String())
	require.Equal(t, []int64{42, 7}, cfg.AdminUserIDs)
	require.True(t, cfg.IsAdmin(7))
	require.False(t, cfg.IsAdmin(8))
	require.False(t, cfg.EnableScheduler)
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even when empty
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("CONTEXT_AFTER")

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("HTTP_ADDR=:9090\nCONTEXT_AFTER=3\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("CONTEXT_AFTER")
	})

	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, 3, cfg.ContextAfter)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown db", "DB_TYPE", "mysql"},
		{"postgres without url", "DB_TYPE", "postgres"},
		{"zero session size", "SESSION_SIZE", "0"},
		{"bad int", "CONTEXT_BEFORE", "two"},
		{"negative context", "CONTEXT_AFTER", "-1"},
		{"bad hour", "NOTIFICATION_END_HOUR", "24"},
		{"bad bool", "ENABLE_SCHEDULER", "maybe"},
		{"bad timezone", "DEFAULT_TIMEZONE", "Mars/Olympus"},
		{"bad admin id", "ADMIN_USER_IDS", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load(missingEnvFile(t))
			require.Error(t, err)
		})
	}
}
