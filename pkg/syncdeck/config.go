package syncdeck

import (
	"time"

	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

// DefaultStillDuration is how long a clip of an image or document lasts
// when first placed.
const DefaultStillDuration = 5.0

type Config struct {
	DBPath          string
	FrameRate       float64
	ProjectName     string
	Logger          Logger
	Storage         Storage
	Registry        MediaRegistry
	Sync            syncer.Config
	Scheduler       syncer.Scheduler
	TickInterval    time.Duration
	SnapPixels      float64
	PixelsPerSecond float64
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithFrameRate(fps float64) Option {
	return func(c *Config) {
		if fps > 0 {
			c.FrameRate = fps
		}
	}
}

func WithProjectName(name string) Option {
	return func(c *Config) {
		c.ProjectName = name
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithStorage replaces the sqlite store. The storage also serves as the media
// registry unless WithRegistry is given.
func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithRegistry sets where clip media metadata is looked up.
func WithRegistry(registry MediaRegistry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithThresholds overrides the sync correction thresholds.
func WithThresholds(cfg syncer.Config) Option {
	return func(c *Config) {
		c.Sync = cfg
	}
}

// WithScheduler selects how sync controllers are driven. The default is a
// timer at TickInterval.
func WithScheduler(s syncer.Scheduler) Option {
	return func(c *Config) {
		c.Scheduler = s
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.TickInterval = d
		}
	}
}

// WithSnap sets the on-screen snap tolerance and the initial zoom.
func WithSnap(pixels, pixelsPerSecond float64) Option {
	return func(c *Config) {
		c.SnapPixels = pixels
		c.PixelsPerSecond = pixelsPerSecond
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:          "syncdeck.sqlite3",
		FrameRate:       timeline.DefaultFrameRate,
		ProjectName:     "Untitled",
		Sync:            syncer.DefaultConfig(),
		TickInterval:    syncer.DefaultTimerInterval,
		SnapPixels:      timeline.DefaultSnapPixels,
		PixelsPerSecond: timeline.DefaultPixelsPerSecond,
	}
}
