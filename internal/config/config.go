package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const secretTokenPath = "/run/secrets/telegram_bot_token"

type Config struct {
	TelegramToken string
	DBPath        string
	Timezone      string
	PanelCommand  string

	AutoStartNextDay bool
	AutoStartDelay   time.Duration
	PauseReminder    time.Duration

	RolloverInterval time.Duration
	ReminderInterval time.Duration

	LogLevel string
	LogFile  string
	Env      string
}

// Load reads the configuration from the environment. The caller is expected
// to have loaded .env already.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:    botToken(secretTokenPath),
		DBPath:           getEnv("DB_PATH", "timesheet.db"),
		Timezone:         getEnv("TIMEZONE", "America/Sao_Paulo"),
		PanelCommand:     strings.TrimPrefix(getEnv("PANEL_COMMAND", "panel"), "/"),
		AutoStartNextDay: getEnvBool("AUTO_START_NEXT_DAY", true),
		AutoStartDelay:   time.Duration(getEnvInt("AUTO_START_DELAY_SECONDS", 5)) * time.Second,
		PauseReminder:    time.Duration(getEnvInt("PAUSE_REMINDER_MINUTES", 15)) * time.Minute,
		RolloverInterval: getEnvDuration("ROLLOVER_INTERVAL", time.Minute),
		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", 30*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		Env:              getEnv("APP_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("bot token not found: neither docker secret nor TELEGRAM_BOT_TOKEN is set")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.PanelCommand == "" {
		return errors.New("PANEL_COMMAND cannot be empty")
	}
	if c.AutoStartDelay < 0 {
		return errors.New("AUTO_START_DELAY_SECONDS must be >= 0")
	}
	if c.RolloverInterval <= 0 {
		return errors.New("ROLLOVER_INTERVAL must be > 0")
	}
	if c.ReminderInterval <= 0 {
		return errors.New("REMINDER_INTERVAL must be > 0")
	}
	return nil
}

// Location is only valid after Validate succeeded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func botToken(secretPath string) string {
	if data, err := os.ReadFile(secretPath); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
