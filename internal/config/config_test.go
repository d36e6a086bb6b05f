package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hray3182/Hydrate/internal/models"
	"github.com/hray3182/Hydrate/internal/rrule"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "AI_API_KEY", "AI_BASE_URL", "AI_MODEL",
		"DEFAULT_GOAL", "DEFAULT_INTERVAL_MINUTES", "CELEBRATION_SECONDS",
		"DAY_RESET_RULE", "QUIET_START", "QUIET_END", "TIMEZONE",
		"AUDIO_CUE_PATH", "ICON_URL", "DEV_MODE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DefaultGoal != models.DefaultGoal {
		t.Errorf("DefaultGoal = %d", cfg.DefaultGoal)
	}
	if cfg.DefaultIntervalMinutes != models.DefaultIntervalMinutes {
		t.Errorf("DefaultIntervalMinutes = %d", cfg.DefaultIntervalMinutes)
	}
	if cfg.Celebration != 5*time.Second {
		t.Errorf("Celebration = %v", cfg.Celebration)
	}
	if cfg.AIBaseURL != "https://openrouter.ai/api/v1" || cfg.AIModel != "openai/gpt-4o-mini" {
		t.Errorf("unexpected AI defaults %q %q", cfg.AIBaseURL, cfg.AIModel)
	}
	if cfg.DayResetRule != rrule.DefaultDayReset {
		t.Errorf("DayResetRule = %q", cfg.DayResetRule)
	}
	if cfg.Location != time.Local || cfg.DevMode {
		t.Errorf("unexpected location %v or dev mode %v", cfg.Location, cfg.DevMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DEFAULT_GOAL", "12")
	t.Setenv("DEFAULT_INTERVAL_MINUTES", "90")
	t.Setenv("CELEBRATION_SECONDS", "3")
	t.Setenv("TIMEZONE", "Asia/Taipei")
	t.Setenv("QUIET_START", "22:00")
	t.Setenv("QUIET_END", "07:30")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultGoal != 12 || cfg.DefaultIntervalMinutes != 90 || cfg.Celebration != 3*time.Second {
		t.Errorf("unexpected %+v", cfg)
	}
	if cfg.Location.String() != "Asia/Taipei" || !cfg.DevMode {
		t.Errorf("unexpected location %v or dev mode %v", cfg.Location, cfg.DevMode)
	}

	quiet := cfg.Quiet()
	if !quiet.Enabled() || quiet.Location != cfg.Location {
		t.Errorf("unexpected quiet hours %+v", quiet)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_BadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DEFAULT_GOAL", "eight"},
		{"DEFAULT_INTERVAL_MINUTES", "10m"},
		{"CELEBRATION_SECONDS", "x"},
		{"DEV_MODE", "maybe"},
		{"TIMEZONE", "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TelegramToken:          "token",
			DefaultGoal:            8,
			DefaultIntervalMinutes: 10,
			Celebration:            5 * time.Second,
			DayResetRule:           rrule.DefaultDayReset,
			Location:               time.UTC,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		invalid bool
	}{
		{"valid", func(*Config) {}, false, false},
		{"no day reset", func(c *Config) { c.DayResetRule = "" }, false, false},
		{"missing token", func(c *Config) { c.TelegramToken = "" }, true, false},
		{"goal not allowed", func(c *Config) { c.DefaultGoal = 7 }, true, true},
		{"interval not allowed", func(c *Config) { c.DefaultIntervalMinutes = 15 }, true, true},
		{"zero celebration", func(c *Config) { c.Celebration = 0 }, true, true},
		{"half quiet window", func(c *Config) { c.QuietStart = "22:00" }, true, false},
		{"bad quiet clock", func(c *Config) { c.QuietStart, c.QuietEnd = "25:00", "07:00" }, true, false},
		{"bad rule", func(c *Config) { c.DayResetRule = "FREQ=SOMETIMES" }, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, models.ErrInvalidConfigValue); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidConfigValue) = %v, want %v (%v)", got, tt.invalid, err)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "".
	for _, key := range []string{"TELEGRAM_TOKEN", "DEFAULT_GOAL", "QUIET_START", "QUIET_END"} {
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "TELEGRAM_TOKEN=from-file\nDEFAULT_GOAL=6\nQUIET_START=23:00\nQUIET_END=06:00\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "from-file" || cfg.DefaultGoal != 6 {
		t.Errorf("env file not applied: %+v", cfg)
	}
	if q := cfg.Quiet(); q.Start != "23:00" || q.End != "06:00" {
		t.Errorf("unexpected quiet hours %+v", q)
	}
}
