// Package config loads the optional YAML settings file shared by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/himanishpuri/SyncDeck/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "SYNCDECK_CONFIG"
	EnvDBPath     = "SYNCDECK_DB_PATH"
	EnvLogLevel   = "SYNCDECK_LOG_LEVEL"
)

type Config struct {
	DBPath    string       `yaml:"db_path"`
	FrameRate float64      `yaml:"frame_rate"`
	LogLevel  string       `yaml:"log_level"`
	Server    ServerConfig `yaml:"server"`
	Sync      SyncConfig   `yaml:"sync"`
	Snap      SnapConfig   `yaml:"snap"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SyncConfig struct {
	HardThreshold   float64       `yaml:"hard_threshold"`
	SoftThreshold   float64       `yaml:"soft_threshold"`
	PausedTolerance float64       `yaml:"paused_tolerance"`
	RateBias        float64       `yaml:"rate_bias"`
	TickInterval    time.Duration `yaml:"tick_interval"`
}

type SnapConfig struct {
	Pixels          float64 `yaml:"pixels"`
	PixelsPerSecond float64 `yaml:"pixels_per_second"`
}

func Default() *Config {
	return &Config{
		DBPath:    "syncdeck.sqlite3",
		FrameRate: 30,
		LogLevel:  "info",
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Sync: SyncConfig{
			HardThreshold:   0.15,
			SoftThreshold:   0.05,
			PausedTolerance: 0.01,
			RateBias:        0.05,
			TickInterval:    33 * time.Millisecond,
		},
		Snap: SnapConfig{
			Pixels:          8,
			PixelsPerSecond: 100,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path falls back to $SYNCDECK_CONFIG; a missing file at the
// default location is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %v", c.FrameRate)
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	s := c.Sync
	if s.SoftThreshold <= 0 || s.HardThreshold <= s.SoftThreshold {
		return fmt.Errorf("sync thresholds must satisfy 0 < soft (%v) < hard (%v)", s.SoftThreshold, s.HardThreshold)
	}
	if s.PausedTolerance <= 0 {
		return fmt.Errorf("paused_tolerance must be positive, got %v", s.PausedTolerance)
	}
	if s.RateBias <= 0 || s.RateBias >= 1 {
		return fmt.Errorf("rate_bias must be in (0, 1), got %v", s.RateBias)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", s.TickInterval)
	}
	if c.Snap.Pixels < 0 || c.Snap.PixelsPerSecond <= 0 {
		return fmt.Errorf("snap settings must be non-negative with a positive zoom")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logger.LogLevel {
	lvl, _ := logger.ParseLevel(c.LogLevel)
	return lvl
}

// Write stores c as YAML at path.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
