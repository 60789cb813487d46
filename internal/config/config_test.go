package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, time.Minute, cfg.ReminderInterval)
	assert.Equal(t, time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "assignee", cfg.ReminderAudience)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REMINDER_WINDOW", "15m")
	t.Setenv("DISPATCH_SHARDS", "3")
	t.Setenv("MAIL_WORKERS", "zero")
	t.Setenv("MIGRATIONS_AUTO", "false")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.ReminderWindow)
	assert.Equal(t, 3, cfg.DispatchShards)
	assert.Equal(t, 4, cfg.MailWorkers)
	assert.False(t, cfg.AutoMigrate)
}

func TestURLs(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.DSN())
	assert.Equal(t, "pgx5://u:p@db:5432/n?sslmode=disable", cfg.MigrateURL())
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	logger := cfg.NewLogger()

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg = &Config{LogLevel: "nonsense"}
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}
