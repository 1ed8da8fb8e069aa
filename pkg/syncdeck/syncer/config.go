package syncer

import "github.com/himanishpuri/SyncDeck/pkg/logger"

// Config holds the correction thresholds, in media seconds.
type Config struct {
	// HardThreshold is the drift above which a playing element is reseeked.
	HardThreshold float64
	// SoftThreshold is the drift above which the playback rate is biased.
	SoftThreshold float64
	// PausedTolerance is the drift a paused element may keep before it is reseeked.
	PausedTolerance float64
	// RateBias is the fractional rate change used while soft correcting.
	RateBias float64
}

// DefaultConfig returns the stock thresholds: 150ms hard, 50ms soft, 10ms
// paused and a 5% rate bias.
func DefaultConfig() Config {
	return Config{
		HardThreshold:   0.15,
		SoftThreshold:   0.05,
		PausedTolerance: 0.01,
		RateBias:        0.05,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HardThreshold <= 0 {
		c.HardThreshold = d.HardThreshold
	}
	if c.SoftThreshold <= 0 || c.SoftThreshold > c.HardThreshold {
		c.SoftThreshold = min(d.SoftThreshold, c.HardThreshold)
	}
	if c.PausedTolerance <= 0 {
		c.PausedTolerance = d.PausedTolerance
	}
	if c.RateBias <= 0 || c.RateBias >= 1 {
		c.RateBias = d.RateBias
	}
	return c
}

type settings struct {
	cfg Config
	log Logger
}

// Option configures a Controller or Group.
type Option func(*settings)

// WithConfig overrides the correction thresholds. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.cfg = cfg.withDefaults()
	}
}

// WithLogger sets where state transitions are logged.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{cfg: DefaultConfig(), log: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
