//go:build !js && !wasm

package main

import (
	"fmt"
	"os"

	"github.com/himanishpuri/SyncDeck/internal/config"
	"github.com/himanishpuri/SyncDeck/pkg/logger"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configPath string
	dbPath     string
	logLevel   string
	projectID  string
)

var rootCmd = &cobra.Command{
	Use:   "syncdeck",
	Short: "Edit multi-track timelines and simulate synchronized playback",
	Long: `SyncDeck keeps a stored timeline of clips on tracks and drives independent
media elements in lockstep with one transport clock.

Editing commands load the project named by --project, apply the edit and
save it back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (env: SYNCDECK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database file (env: SYNCDECK_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or off")
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", getEnvOrDefault("SYNCDECK_PROJECT", ""), "Project to edit (env: SYNCDECK_PROJECT)")

	rootCmd.AddCommand(projectCmd, mediaCmd, trackCmd, clipCmd, markerCmd, resolveCmd, playCmd, configCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// createService creates a SyncDeck service with configured options. Sync
// controllers are driven by a frame scheduler the caller steps.
func createService() (syncdeck.Service, *syncer.FrameScheduler, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(cfg.Level())

	frames := syncer.NewFrameScheduler()
	svc, err := syncdeck.NewService(
		syncdeck.WithDBPath(cfg.DBPath),
		syncdeck.WithFrameRate(cfg.FrameRate),
		syncdeck.WithScheduler(frames),
		syncdeck.WithTickInterval(cfg.Sync.TickInterval),
		syncdeck.WithSnap(cfg.Snap.Pixels, cfg.Snap.PixelsPerSecond),
		syncdeck.WithThresholds(syncer.Config{
			HardThreshold:   cfg.Sync.HardThreshold,
			SoftThreshold:   cfg.Sync.SoftThreshold,
			PausedTolerance: cfg.Sync.PausedTolerance,
			RateBias:        cfg.Sync.RateBias,
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, frames, nil
}

// withProject loads the --project project, runs fn against it and, when
// save is set and fn succeeds, writes it back.
func withProject(save bool, fn func(svc syncdeck.Service) error) error {
	if err := requireProject(); err != nil {
		return err
	}
	svc, _, err := createService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.LoadProject(projectID); err != nil {
		return err
	}
	if err := fn(svc); err != nil {
		return err
	}
	if !save {
		return nil
	}
	_, err = svc.SaveProject()
	return err
}

func requireProject() error {
	if projectID == "" {
		return fmt.Errorf("--project is required")
	}
	if !utils.IsUUID(projectID) {
		return fmt.Errorf("--project %q is not a project id", projectID)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
