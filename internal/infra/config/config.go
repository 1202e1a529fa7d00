package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken     string
	DatabaseURL       string
	UserChatID        int64  // chat that receives reminders and issues commands
	Timezone          string // IANA zone name the engine does calendar math in
	ReminderHour      int    // local hour of day reminders fire at
	CronSpecDailyTick string // daily auto-post + reminder rebuild tick
	LogLevel          string
	Environment       string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	userChatIDStr := os.Getenv("USER_CHAT_ID")
	if userChatIDStr == "" {
		return nil, fmt.Errorf("USER_CHAT_ID is not set")
	}
	cfg.UserChatID, err = strconv.ParseInt(userChatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid USER_CHAT_ID: %w", err)
	}

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	reminderHourStr := os.Getenv("REMINDER_HOUR")
	if reminderHourStr == "" {
		cfg.ReminderHour = 9 // Default: reminders fire at 09:00 local time
	} else {
		cfg.ReminderHour, err = strconv.Atoi(reminderHourStr)
		if err != nil || cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
			return nil, fmt.Errorf("invalid REMINDER_HOUR: %q", reminderHourStr)
		}
	}

	cfg.CronSpecDailyTick = os.Getenv("CRON_SPEC_DAILY_TICK")
	if cfg.CronSpecDailyTick == "" {
		cfg.CronSpecDailyTick = "0 8 * * *" // Default: 08:00 daily
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
