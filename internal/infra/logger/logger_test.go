package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"finance_tracker_bot/internal/infra/config"
)

func TestInitSetsLevelAndFormat(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "debug", Environment: "development"})
	require.Equal(t, logrus.DebugLevel, log.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	Init(&config.AppConfig{LogLevel: "warn", Environment: "production"})
	require.Equal(t, logrus.WarnLevel, log.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestInitInvalidLevelDefaultsToInfo(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "shout", Environment: "development"})
	require.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestGetCarriesServiceField(t *testing.T) {
	entry := Get()
	require.Equal(t, serviceName, entry.Data["service"])
}
