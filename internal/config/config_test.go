package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SERIAL_PORT", "SERIAL_BAUD", "SERIAL_READ_TIMEOUT", "DB_DRIVER", "DB_PATH", "DB_DSN",
	"SAVE_INTERVAL", "WINDOW_SIZE", "REFRESH_SCHEDULE", "PURGE_SCHEDULE", "RETENTION_DAYS",
	"HTTP_ADDR", "TELEGRAM_BOT_TOKEN",
}

// clearEnv unsets every config key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 9600, cfg.SerialBaud)
	assert.Equal(t, 100*time.Millisecond, cfg.SerialReadTimeout)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "data/tank_levels.db", cfg.DBPath)
	assert.Equal(t, 60*time.Second, cfg.SaveInterval)
	assert.Equal(t, 10, cfg.WindowSize)
	assert.Equal(t, "@every 1m", cfg.RefreshSchedule)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.TelegramToken)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERIAL_PORT", "COM4")
	t.Setenv("SAVE_INTERVAL", "5s")
	t.Setenv("WINDOW_SIZE", "20")
	t.Setenv("HTTP_ADDR", "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "COM4", cfg.SerialPort)
	assert.Equal(t, 5*time.Second, cfg.SaveInterval)
	assert.Equal(t, 20, cfg.WindowSize)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERIAL_BAUD", "fast")
	t.Setenv("SAVE_INTERVAL", "a minute")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 9600, cfg.SerialBaud)
	assert.Equal(t, 60*time.Second, cfg.SaveInterval)
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERIAL_BAUD", "115200")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERIAL_BAUD=19200\nRETENTION_DAYS=7\nDB_DRIVER=postgres\n"), 0o600))

	cfg := Load(envFile)

	// the process environment wins over the file
	assert.Equal(t, 115200, cfg.SerialBaud)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestLogRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	Log(logger, Config{TelegramToken: "123:secret", DBDSN: "postgres://user:pw@host/db"})

	out := buf.String()
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "pw@host")
	assert.Contains(t, out, "TELEGRAM_BOT_TOKEN set (redacted)")
	assert.Contains(t, out, "HTTP_ADDR=(disabled)")
}
