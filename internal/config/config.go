package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/rrule"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	AIAPIKey      string
	AIBaseURL     string
	AIModel       string

	DefaultGoal            int
	DefaultIntervalMinutes int
	Celebration            time.Duration
	// DayResetRule is an RRULE; empty disables the automatic day reset.
	DayResetRule string

	QuietStart string
	QuietEnd   string
	Location   *time.Location

	AudioCuePath string
	IconURL      string
	DevMode      bool
}

// Load reads the environment after loading the given .env files, or ./.env
// when none are given. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIBaseURL:     getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:       getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		DayResetRule:  getEnvOrDefault("DAY_RESET_RULE", rrule.DefaultDayReset),
		QuietStart:    os.Getenv("QUIET_START"),
		QuietEnd:      os.Getenv("QUIET_END"),
		AudioCuePath:  os.Getenv("AUDIO_CUE_PATH"),
		IconURL:       os.Getenv("ICON_URL"),
	}

	var err error
	if cfg.DefaultGoal, err = getIntOrDefault("DEFAULT_GOAL", models.DefaultGoal); err != nil {
		return nil, err
	}
	if cfg.DefaultIntervalMinutes, err = getIntOrDefault("DEFAULT_INTERVAL_MINUTES", models.DefaultIntervalMinutes); err != nil {
		return nil, err
	}
	seconds, err := getIntOrDefault("CELEBRATION_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.Celebration = time.Duration(seconds) * time.Second

	if cfg.DevMode, err = getBoolOrDefault("DEV_MODE", false); err != nil {
		return nil, err
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		if cfg.Location, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("TIMEZONE: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks required values and that the defaults are ones a user could
// pick themselves.
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if !models.IsAllowedGoal(c.DefaultGoal) {
		errs = append(errs, fmt.Errorf("DEFAULT_GOAL %d: %w", c.DefaultGoal, models.ErrInvalidConfigValue))
	}
	if !models.IsAllowedInterval(c.DefaultIntervalMinutes) {
		errs = append(errs, fmt.Errorf("DEFAULT_INTERVAL_MINUTES %d: %w", c.DefaultIntervalMinutes, models.ErrInvalidConfigValue))
	}
	if c.Celebration <= 0 {
		errs = append(errs, fmt.Errorf("CELEBRATION_SECONDS must be positive: %w", models.ErrInvalidConfigValue))
	}
	if (c.QuietStart == "") != (c.QuietEnd == "") {
		errs = append(errs, errors.New("QUIET_START and QUIET_END must be set together"))
	}
	for key, v := range map[string]string{"QUIET_START": c.QuietStart, "QUIET_END": c.QuietEnd} {
		if v != "" && !models.ValidClock(v) {
			errs = append(errs, fmt.Errorf("%s %q is not HH:MM", key, v))
		}
	}
	if c.DayResetRule != "" {
		if _, err := rrule.Parse(c.DayResetRule, time.Now(), c.Location); err != nil {
			errs = append(errs, fmt.Errorf("DAY_RESET_RULE: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Quiet returns the configured quiet window.
func (c *Config) Quiet() models.QuietHours {
	return models.QuietHours{Start: c.QuietStart, End: c.QuietEnd, Location: c.Location}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
