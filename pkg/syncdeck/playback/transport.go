package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

// DefaultTickInterval is the clock resolution Run uses when given zero.
const DefaultTickInterval = 33 * time.Millisecond

// Timeline is what the transport needs to know about the edited timeline.
type Timeline interface {
	Duration() float64
	LoopRegion() (models.LoopRegion, bool)
}

// Snapshot is the transport state at one instant.
type Snapshot struct {
	Time      float64 `json:"time"`
	Playing   bool    `json:"playing"`
	BaseSpeed float64 `json:"base_speed"`
	Exporting bool    `json:"exporting"`
}

// Transport is the authoritative playback clock. It is the only publisher on
// its bus: every state change is announced after the transport's own lock is
// released.
type Transport struct {
	timeline Timeline
	bus      *Bus

	mu        sync.RWMutex
	time      float64
	playing   bool
	baseSpeed float64
	exporting bool
}

// NewTransport returns a paused transport at time zero and speed 1.
func NewTransport(timeline Timeline, bus *Bus) *Transport {
	if bus == nil {
		bus = NewBus()
	}
	return &Transport{
		timeline:  timeline,
		bus:       bus,
		baseSpeed: 1,
	}
}

// Bus returns the channel this transport publishes on.
func (t *Transport) Bus() *Bus {
	return t.bus
}

// bounds reads timeline state. It must be called without t.mu held: the
// store may call back into the transport for the playhead.
func (t *Transport) bounds() (float64, *models.LoopRegion) {
	if t.timeline == nil {
		return math.Inf(1), nil
	}
	d := t.timeline.Duration()
	if loop, ok := t.timeline.LoopRegion(); ok && loop.Valid() {
		return d, &loop
	}
	return d, nil
}

// Time returns the current timeline time.
func (t *Transport) Time() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.time
}

// Playing reports whether the transport is running.
func (t *Transport) Playing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playing
}

// Snapshot returns a consistent copy of the transport state.
func (t *Transport) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		Time:      t.time,
		Playing:   t.playing,
		BaseSpeed: t.baseSpeed,
		Exporting: t.exporting,
	}
}

// Play starts the clock. Playing from the end restarts at zero.
func (t *Transport) Play() {
	duration, _ := t.bounds()

	t.mu.Lock()
	if t.time >= duration {
		t.time = 0
	}
	t.playing = true
	e := Event{Kind: EventTransport, Time: t.time, Playing: true}
	t.mu.Unlock()

	t.bus.Publish(e)
}

// Pause stops the clock at the current time.
func (t *Transport) Pause() {
	t.mu.Lock()
	t.playing = false
	e := Event{Kind: EventTransport, Time: t.time, Playing: false}
	t.mu.Unlock()

	t.bus.Publish(e)
}

// Toggle flips between playing and paused and returns the new state.
func (t *Transport) Toggle() bool {
	if t.Playing() {
		t.Pause()
		return false
	}
	t.Play()
	return true
}

// Seek moves the playhead to at, clamped to [0, duration].
func (t *Transport) Seek(at float64) error {
	if math.IsNaN(at) {
		return ErrInvalidTime
	}
	duration, _ := t.bounds()

	t.mu.Lock()
	t.time = math.Min(math.Max(0, at), duration)
	e := Event{Kind: EventSeek, Time: t.time, Playing: t.playing}
	t.mu.Unlock()

	t.bus.Publish(e)
	return nil
}

// SetSpeed sets the base rate every clip's own speed is multiplied by.
func (t *Transport) SetSpeed(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ErrInvalidRate
	}

	t.mu.Lock()
	t.baseSpeed = rate
	e := Event{Kind: EventSpeed, Time: t.time, Playing: t.playing, Rate: rate}
	t.mu.Unlock()

	t.bus.Publish(e)
	return nil
}

// SetExporting raises or clears the export flag. While it is set sync
// controllers leave their elements alone and Advance does nothing.
func (t *Transport) SetExporting(on bool) {
	t.mu.Lock()
	if t.exporting == on {
		t.mu.Unlock()
		return
	}
	t.exporting = on
	e := Event{Kind: EventExporting, Time: t.time, Playing: t.playing, Exporting: on}
	t.mu.Unlock()

	t.bus.Publish(e)
}

// Advance moves a playing clock forward by dt wall seconds scaled by the base
// speed. Reaching or passing the loop out point wraps into the loop and
// publishes a seek, so a playhead parked after the loop is pulled back in;
// reaching the end of the timeline stops playback.
func (t *Transport) Advance(dt float64) float64 {
	duration, loop := t.bounds()

	t.mu.Lock()
	if !t.playing || t.exporting || dt <= 0 {
		now := t.time
		t.mu.Unlock()
		return now
	}

	next := t.time + dt*t.baseSpeed
	var e *Event
	switch {
	case loop != nil && next >= loop.OutPoint:
		length := loop.OutPoint - loop.InPoint
		next = loop.InPoint + math.Mod(next-loop.OutPoint, length)
		e = &Event{Kind: EventSeek, Time: next, Playing: true}
	case next >= duration:
		next = duration
		t.playing = false
		e = &Event{Kind: EventTransport, Time: next, Playing: false}
	}
	t.time = next
	t.mu.Unlock()

	if e != nil {
		t.bus.Publish(*e)
	}
	return next
}

// Run drives the clock from wall time until ctx is done.
func (t *Transport) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Advance(now.Sub(last).Seconds())
			last = now
		}
	}
}
