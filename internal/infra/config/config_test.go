package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("DATABASE_URL", "postgres://localhost/finance_test")
	t.Setenv("USER_CHAT_ID", "123456")
}

func clearOptional(t *testing.T) {
	for _, key := range []string{"TIMEZONE", "REMINDER_HOUR", "CRON_SPEC_DAILY_TICK", "LOG_LEVEL", "ENVIRONMENT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "test-token", cfg.TelegramToken)
	require.Equal(t, int64(123456), cfg.UserChatID)
	require.Equal(t, "Local", cfg.Timezone)
	require.Equal(t, 9, cfg.ReminderHour)
	require.Equal(t, "0 8 * * *", cfg.CronSpecDailyTick)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "development", cfg.Environment)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("REMINDER_HOUR", "20")
	t.Setenv("CRON_SPEC_DAILY_TICK", "30 7 * * *")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", cfg.Timezone)
	require.Equal(t, 20, cfg.ReminderHour)
	require.Equal(t, "30 7 * * *", cfg.CronSpecDailyTick)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "production", cfg.Environment)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct{ name, unset string }{
		{name: "token", unset: "TELEGRAM_TOKEN"},
		{name: "database url", unset: "DATABASE_URL"},
		{name: "chat id", unset: "USER_CHAT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	t.Setenv("USER_CHAT_ID", "not-a-number")
	_, err := Load()
	require.Error(t, err)

	setRequired(t)
	t.Setenv("REMINDER_HOUR", "24")
	_, err = Load()
	require.Error(t, err)
}
