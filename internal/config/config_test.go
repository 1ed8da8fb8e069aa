package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/himanishpuri/SyncDeck/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syncdeck.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FrameRate != 30 || cfg.Sync.HardThreshold != 0.15 || cfg.Sync.TickInterval != 33*time.Millisecond {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvLogLevel, "")
	path := writeConfig(t, `
frame_rate: 25
log_level: debug
server:
  addr: ":9090"
sync:
  soft_threshold: 0.04
  tick_interval: 16ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FrameRate != 25 || cfg.Server.Addr != ":9090" {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.Sync.SoftThreshold != 0.04 || cfg.Sync.HardThreshold != 0.15 {
		t.Errorf("Expected partial override of sync, got %+v", cfg.Sync)
	}
	if cfg.Sync.TickInterval != 16*time.Millisecond {
		t.Errorf("Expected 16ms tick, got %v", cfg.Sync.TickInterval)
	}
	if cfg.Level() != logger.DEBUG {
		t.Errorf("Expected DEBUG, got %v", cfg.Level())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "db_path: from-file.db\n")
	t.Setenv(EnvDBPath, "from-env.db")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "from-env.db" || cfg.Level() != logger.WARN {
		t.Errorf("Env overrides not applied: %+v", cfg)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "frame_rate: 60\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FrameRate != 60 {
		t.Errorf("Expected 60, got %v", cfg.FrameRate)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "frame_rate: [", "parsing config"},
		{"bad rate", "frame_rate: 0", "frame_rate"},
		{"inverted thresholds", "sync:\n  hard_threshold: 0.01", "thresholds"},
		{"bad level", "log_level: loud", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, "")
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExplicitMissingFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing explicit config")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.FrameRate = 24

	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.FrameRate != 24 || got.Sync.TickInterval != cfg.Sync.TickInterval {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}
