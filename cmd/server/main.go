//go:build !js && !wasm

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/himanishpuri/SyncDeck/internal/config"
	"github.com/himanishpuri/SyncDeck/pkg/logger"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
)

var (
	configPath     string
	addr           string
	dbPath         string
	mediaDir       string
	tempDir        string
	allowedOrigins string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (default $SYNCDECK_CONFIG)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	flag.StringVar(&mediaDir, "media", getEnvOrDefault("SYNCDECK_MEDIA_DIR", "media"), "Directory uploaded media is stored in")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("SYNCDECK_TEMP_DIR", os.TempDir()), "Temporary directory")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if allowedOrigins != "" {
		cfg.Server.AllowedOrigins = parseOrigins(allowedOrigins)
	}
	logger.SetLevel(cfg.Level())

	absMedia, err := filepath.Abs(mediaDir)
	if err != nil {
		log.Fatalf("Invalid media dir: %v", err)
	}

	service, err := syncdeck.NewService(
		syncdeck.WithDBPath(cfg.DBPath),
		syncdeck.WithFrameRate(cfg.FrameRate),
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
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go service.Run(ctx)

	server := NewServer(service, &ServerConfig{
		Addr:           cfg.Server.Addr,
		DBPath:         cfg.DBPath,
		MediaDir:       absMedia,
		TempDir:        tempDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func parseOrigins(raw string) []string {
	if raw == "*" {
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
