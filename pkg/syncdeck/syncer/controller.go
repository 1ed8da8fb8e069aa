package syncer

import (
	"math"
	"sync"

	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

// State is where a controller's element stands relative to timeline time.
type State int

const (
	// Inactive means the clip is not current and the element is parked.
	Inactive State = iota
	// Converged means drift is within the soft threshold at nominal rate.
	Converged
	// SoftCorrecting means the playback rate is biased to close drift.
	SoftCorrecting
	// HardCorrecting means the element was reseeked on the last tick.
	HardCorrecting
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Converged:
		return "converged"
	case SoftCorrecting:
		return "soft-correcting"
	case HardCorrecting:
		return "hard-correcting"
	}
	return "unknown"
}

// Controller keeps one media element converging on the timeline position of
// one clip. It only ever writes to its own element.
type Controller struct {
	clipID    string
	element   MediaElement
	clock     Clock
	clips     ClipSource
	scheduler Scheduler
	cfg       Config
	log       Logger

	mu     sync.Mutex
	state  State
	cancel func()
	closed bool
}

// NewController binds element to clipID. The controller is idle until Wake
// or Start is called.
func NewController(clipID string, element MediaElement, clock Clock, clips ClipSource, scheduler Scheduler, opts ...Option) *Controller {
	s := newSettings(opts)
	return &Controller{
		clipID:    clipID,
		element:   element,
		clock:     clock,
		clips:     clips,
		scheduler: scheduler,
		cfg:       s.cfg,
		log:       s.log,
		state:     Inactive,
	}
}

// ClipID returns the clip this controller follows.
func (c *Controller) ClipID() string {
	return c.clipID
}

// State returns the state reached on the last tick.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Running reports whether the per-frame loop is scheduled.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Start evaluates immediately and schedules the per-frame loop.
func (c *Controller) Start() State {
	return c.Wake()
}

// Wake evaluates immediately, for example after a transport event, and
// (re)starts the per-frame loop unless the clip is inactive.
// The evaluation and the scheduling decision happen under one lock hold.
func (c *Controller) Wake() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
	if !c.closed && c.state != Inactive && c.cancel == nil && c.scheduler != nil {
		c.cancel = c.scheduler.Schedule(func() { c.Tick() })
	}
	return c.state
}

// Stop cancels the per-frame loop. The element is left where it is.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Close stops the loop for good; later ticks are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.closed = true
}

// Tick runs one evaluation of the correction policy and returns the
// resulting state.
func (c *Controller) Tick() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickLocked()
}

func (c *Controller) tickLocked() State {
	if c.closed {
		return c.state
	}

	snap := c.clock.Snapshot()
	if snap.Exporting {
		return c.state
	}

	clip, ok := c.clips.Clip(c.clipID)
	if !ok {
		c.deactivate()
		return c.state
	}
	target, ok := timeline.MediaTime(snap.Time, clip)
	if !ok {
		c.deactivate()
		return c.state
	}
	if !c.element.Ready() {
		return c.state
	}

	el := c.element
	drift := el.CurrentTime() - target
	abs := math.Abs(drift)
	nominal := snap.BaseSpeed * clip.EffectiveSpeed()
	if nominal <= 0 {
		nominal = clip.EffectiveSpeed()
	}

	// Elements cannot decode backwards, so reversed clips are held paused
	// and stepped by seeks like a paused transport.
	if !snap.Playing || clip.Reverse {
		if !el.Paused() {
			el.Pause()
		}
		if abs > c.cfg.PausedTolerance {
			el.Seek(target)
			c.setState(HardCorrecting)
		} else {
			c.setState(Converged)
		}
		return c.state
	}

	switch {
	case el.Paused():
		el.Seek(target)
		el.SetRate(nominal)
		if err := el.Play(); err != nil {
			c.log.Debugf("clip %s: play refused, retrying next tick: %v", c.clipID, err)
		}
		c.setState(HardCorrecting)
	case abs > c.cfg.HardThreshold:
		el.Seek(target)
		c.setRate(nominal)
		c.setState(HardCorrecting)
	case abs > c.cfg.SoftThreshold:
		bias := 1 + c.cfg.RateBias
		if drift > 0 {
			bias = 1 - c.cfg.RateBias
		}
		c.setRate(nominal * bias)
		c.setState(SoftCorrecting)
	default:
		c.setRate(nominal)
		c.setState(Converged)
	}
	return c.state
}

func (c *Controller) setRate(rate float64) {
	if !utils.NearlyEqual(c.element.Rate(), rate) {
		c.element.SetRate(rate)
	}
}

// deactivate parks the element and cancels the loop. Callers hold c.mu.
func (c *Controller) deactivate() {
	if !c.element.Paused() {
		c.element.Pause()
	}
	c.setState(Inactive)
	c.stopLocked()
}

func (c *Controller) setState(st State) {
	if c.state != st {
		c.log.Debugf("clip %s: %s -> %s", c.clipID, c.state, st)
		c.state = st
	}
}
