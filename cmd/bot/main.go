package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"finance_tracker_bot/internal/app"
	"finance_tracker_bot/internal/domain/reminder"
	"finance_tracker_bot/internal/infra/alarm"
	"finance_tracker_bot/internal/infra/config"
	idb "finance_tracker_bot/internal/infra/database"
	"finance_tracker_bot/internal/infra/logger"
	"finance_tracker_bot/internal/infra/scheduler"
	"finance_tracker_bot/internal/infra/telegram"
)

const firedReminderTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"timezone":    cfg.Timezone,
	}).Info("Configuration loaded")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("FATAL: Invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	// Database and repositories.
	db, err := idb.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	if err := idb.InitSchema(db); err != nil {
		log.Fatalf("FATAL: Could not initialize database schema: %v", err)
	}
	log.Info("Database connection established and schema applied")

	obligationRepo := idb.NewPostgresObligationRepository(db)
	ledgerRepo := idb.NewPostgresLedgerRepository(db)
	skipRepo := idb.NewPostgresSkipRepository(db)
	snoozeRepo := idb.NewPostgresSnoozeRepository(db)

	// Telegram bot.
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	// Engine services.
	clock := app.NewSystemClock(loc)
	posting := app.NewPostingService(obligationRepo, ledgerRepo, clock, log.WithField("component", "posting"))
	autoPost := app.NewAutoPostService(obligationRepo, skipRepo, posting, clock, log.WithField("component", "autopost"))

	presenter := telegram.NewReminderPresenter(bot, cfg.UserChatID, loc, log.WithField("component", "presenter"))
	timers := alarm.NewTimerAlarm(log.WithField("component", "alarm"))
	reminders := app.NewReminderService(obligationRepo, skipRepo, snoozeRepo, timers, presenter, clock, cfg.ReminderHour, log.WithField("component", "reminders"))
	timers.OnFire(func(ev reminder.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), firedReminderTimeout)
		defer cancel()
		if err := reminders.HandleFired(ctx, ev); err != nil {
			log.WithError(err).WithField("obligation_id", ev.ObligationID).Error("Failed to handle fired reminder")
		}
	})

	actions := app.NewActionService(obligationRepo, skipRepo, snoozeRepo, posting, reminders, clock, cfg.ReminderHour, log.WithField("component", "actions"))
	admin := app.NewAdminService(obligationRepo, ledgerRepo, skipRepo, clock)
	ticks := app.NewTickService(autoPost, reminders, clock, log.WithField("component", "tick"))

	// Handlers and the periodic trigger.
	telegram.RegisterReminderActionHandlers(bot, actions, log.WithField("component", "telegram"))
	telegram.RegisterBotCommands(bot, cfg, admin, posting, actions, reminders, ticks, clock, log.WithField("component", "telegram"))

	tickScheduler := scheduler.NewTickScheduler(ticks, loc, cfg.CronSpecDailyTick, log.WithField("component", "scheduler"))
	tickScheduler.Start()

	log.Info("Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	tickScheduler.Stop()
	timers.Stop()
	bot.Stop()
	log.Info("Application shut down gracefully")
}
