// Package config loads runtime settings from the environment
package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the monitor reads at startup
type Config struct {
	SerialPort        string
	SerialBaud        int
	SerialReadTimeout time.Duration

	DBDriver string
	DBPath   string
	DBDSN    string

	SaveInterval    time.Duration
	WindowSize      int
	RefreshSchedule string
	PurgeSchedule   string
	RetentionDays   int

	HTTPAddr      string
	TelegramToken string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Failed to load %s: %v", file, err)
		}
	}

	return Config{
		SerialPort:        getEnv("SERIAL_PORT", "/dev/ttyUSB0"),
		SerialBaud:        getEnvInt("SERIAL_BAUD", 9600),
		SerialReadTimeout: getEnvDuration("SERIAL_READ_TIMEOUT", 100*time.Millisecond),
		DBDriver:          getEnv("DB_DRIVER", "sqlite3"),
		DBPath:            getEnv("DB_PATH", "data/tank_levels.db"),
		DBDSN:             os.Getenv("DB_DSN"),
		SaveInterval:      getEnvDuration("SAVE_INTERVAL", 60*time.Second),
		WindowSize:        getEnvInt("WINDOW_SIZE", 10),
		RefreshSchedule:   getEnv("REFRESH_SCHEDULE", "@every 1m"),
		PurgeSchedule:     getEnv("PURGE_SCHEDULE", "0 3 * * *"),
		RetentionDays:     getEnvInt("RETENTION_DAYS", 30),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
}

// Retention returns the retention period as a duration
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Log prints the effective configuration with secrets redacted
func Log(logger *log.Logger, cfg Config) {
	logger.Printf("SERIAL_PORT=%s SERIAL_BAUD=%d SERIAL_READ_TIMEOUT=%s", cfg.SerialPort, cfg.SerialBaud, cfg.SerialReadTimeout)
	logger.Printf("DB_DRIVER=%s DB_PATH=%s", cfg.DBDriver, cfg.DBPath)
	if cfg.DBDSN != "" {
		logger.Printf("DB_DSN set (length %d)", len(cfg.DBDSN))
	}
	logger.Printf("SAVE_INTERVAL=%s WINDOW_SIZE=%d", cfg.SaveInterval, cfg.WindowSize)
	logger.Printf("REFRESH_SCHEDULE=%q PURGE_SCHEDULE=%q RETENTION_DAYS=%d", cfg.RefreshSchedule, cfg.PurgeSchedule, cfg.RetentionDays)
	logger.Printf("HTTP_ADDR=%s", emptyFallback(cfg.HTTPAddr, "(disabled)"))
	if cfg.TelegramToken != "" {
		logger.Println("TELEGRAM_BOT_TOKEN set (redacted)")
	} else {
		logger.Println("TELEGRAM_BOT_TOKEN not provided, Telegram bot disabled")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return fallback
}

func emptyFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
