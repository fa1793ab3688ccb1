package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable server and round-timing parameters.
// The error budget and pair count are game constants, not configuration.
type Config struct {
	RevealDurationMS int `json:"reveal_duration_ms" yaml:"reveal_duration_ms"`
	MismatchDelayMS  int `json:"mismatch_delay_ms" yaml:"mismatch_delay_ms"`
	ResultDelayMS    int `json:"result_delay_ms" yaml:"result_delay_ms"`
	TickIntervalMS   int `json:"tick_interval_ms" yaml:"tick_interval_ms"`

	MaxNameLength int `json:"max_name_length" yaml:"max_name_length"`
	WSPort        int `json:"ws_port" yaml:"ws_port"`

	// DatabaseURL enables round telemetry when set.
	DatabaseURL string `json:"database_url" yaml:"database_url"`
	// NeonAuthBaseURL enables JWT validation for the auth message and admin endpoints.
	NeonAuthBaseURL string `json:"neon_auth_base_url" yaml:"neon_auth_base_url"`

	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	LogLevel       string   `json:"log_level" yaml:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		RevealDurationMS: 1000,
		MismatchDelayMS:  600,
		ResultDelayMS:    500,
		TickIntervalMS:   1000,
		MaxNameLength:    24,
		WSPort:           8080,
		AllowedOrigins:   []string{"*"},
		LogLevel:         "info",
	}
}

// Load reads configuration from path when given, otherwise from an optional
// config.json or config.yaml in the working directory, then applies environment
// variable overrides. Fields not set in either source retain their default values.
func Load(path string) *Config {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			slog.Warn("failed to load config file", "tag", "config", "path", path, "err", err)
		}
	} else {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if err := loadFile(cfg, candidate); err != nil {
				slog.Warn("failed to parse config file", "tag", "config", "path", candidate, "err", err)
			}
			break
		}
	}

	// Environment variable overrides
	overrideInt(&cfg.RevealDurationMS, "REVEAL_DURATION_MS")
	overrideInt(&cfg.MismatchDelayMS, "MISMATCH_DELAY_MS")
	overrideInt(&cfg.ResultDelayMS, "RESULT_DELAY_MS")
	overrideInt(&cfg.TickIntervalMS, "TICK_INTERVAL_MS")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.NeonAuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideList(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")

	cfg.normalize()
	return cfg
}

// secondTickMS is the only tick period served; elapsedSeconds counts whole seconds.
const secondTickMS = 1000

// normalize replaces values the game cannot run with, so what clients are told
// matches what the controller and timer do.
func (c *Config) normalize() {
	d := Defaults()
	positive := func(field *int, def int, key string) {
		if *field <= 0 {
			slog.Warn("non-positive value replaced with default", "tag", "config", "key", key, "value", *field, "default", def)
			*field = def
		}
	}
	positive(&c.RevealDurationMS, d.RevealDurationMS, "reveal_duration_ms")
	positive(&c.MismatchDelayMS, d.MismatchDelayMS, "mismatch_delay_ms")
	positive(&c.ResultDelayMS, d.ResultDelayMS, "result_delay_ms")
	positive(&c.MaxNameLength, d.MaxNameLength, "max_name_length")
	if c.TickIntervalMS != secondTickMS {
		slog.Warn("tick interval must be one second", "tag", "config", "value", c.TickIntervalMS)
		c.TickIntervalMS = secondTickMS
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// RevealDuration is the initial full-reveal window of a round.
func (c *Config) RevealDuration() time.Duration {
	return time.Duration(c.RevealDurationMS) * time.Millisecond
}

// MismatchDelay is how long two mismatched cards stay face-up.
func (c *Config) MismatchDelay() time.Duration {
	return time.Duration(c.MismatchDelayMS) * time.Millisecond
}

// ResultDelay is the presentation delay before the completion callback.
func (c *Config) ResultDelay() time.Duration {
	return time.Duration(c.ResultDelayMS) * time.Millisecond
}

// TickInterval is the session timer period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid value for env override", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func overrideList(field *[]string, envKey string) {
	val := os.Getenv(envKey)
	if val == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) > 0 {
		*field = out
	}
}
