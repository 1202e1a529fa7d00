// Package logger configures the process-wide logrus instance the engine
// components log through. Every component attaches its own "component" field
// on top of the base entry returned by Get.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"finance_tracker_bot/internal/infra/config"
)

const serviceName = "finance-tracker-bot"

var log = logrus.New()

// Init applies the configured level and picks the output format: JSON for
// production and staging so log shippers can parse tick and posting fields,
// human-readable text everywhere else. Config values arrive already
// lower-cased from config.Load.
func Init(cfg *config.AppConfig) {
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Invalid log level %q, defaulting to 'info'", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// Get returns the base entry everything in the process logs through.
func Get() *logrus.Entry {
	return log.WithField("service", serviceName)
}
