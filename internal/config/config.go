package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	JWTSecret  string
	JWTExpiry  time.Duration

	AutoMigrate bool

	LogLevel  string
	LogFormat string

	// Realtime relay; empty RedisAddr keeps rooms process local.
	RedisAddr     string
	RedisPassword string
	RedisChannel  string
	SessionBuffer int

	DispatchShards int
	DispatchBuffer int

	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	MailFrom    string
	MailWorkers int
	MailBuffer  int

	ReminderInterval time.Duration
	ReminderWindow   time.Duration
	ReminderAudience string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5431"),
		DBUser:     getEnv("DB_USER", "board_user"),
		DBPassword: getEnv("DB_PASSWORD", "board_pass"),
		DBName:     getEnv("DB_NAME", "board_db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:  time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,

		AutoMigrate: getEnvBool("MIGRATIONS_AUTO", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisChannel:  getEnv("REDIS_CHANNEL", "board:realtime"),
		SessionBuffer: getEnvInt("SESSION_BUFFER", 64),

		DispatchShards: getEnvInt("DISPATCH_SHARDS", 8),
		DispatchBuffer: getEnvInt("DISPATCH_BUFFER", 1024),

		SMTPHost:    getEnv("SMTP_HOST", ""),
		SMTPPort:    getEnv("SMTP_PORT", "587"),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		MailFrom:    getEnv("MAIL_FROM", "Task Board <no-reply@localhost>"),
		MailWorkers: getEnvInt("MAIL_WORKERS", 4),
		MailBuffer:  getEnvInt("MAIL_BUFFER", 256),

		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", time.Minute),
		ReminderWindow:   getEnvDuration("REMINDER_WINDOW", time.Hour),
		ReminderAudience: getEnv("REMINDER_AUDIENCE", "assignee"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt returns defaultVal when the variable is unset or not a positive integer.
func getEnvInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warnf("invalid %s=%q, using %d", key, v, defaultVal)
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Warnf("invalid %s=%q, using %s", key, v, defaultVal)
	}
	return defaultVal
}

// DSN is the postgres connection string used by gorm.
func (c *Config) DSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=disable"
}

// MigrateURL is the golang-migrate pgx/v5 database URL.
func (c *Config) MigrateURL() string {
	return "pgx5://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *log.Logger {
	logger := log.New()
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger
}
