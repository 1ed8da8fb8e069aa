package syncer

import (
	"errors"
	"sync"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
)

// fakeElement records every command a controller issues
type fakeElement struct {
	mu      sync.Mutex
	time    float64
	rate    float64
	paused  bool
	ready   bool
	playErr error
	seeks   []float64
	plays   int
	pauses  int
}

func newElement(at float64, paused bool) *fakeElement {
	return &fakeElement{time: at, rate: 1, paused: paused, ready: true}
}

func (e *fakeElement) CurrentTime() float64 { e.mu.Lock(); defer e.mu.Unlock(); return e.time }
func (e *fakeElement) Paused() bool         { e.mu.Lock(); defer e.mu.Unlock(); return e.paused }
func (e *fakeElement) Ready() bool          { e.mu.Lock(); defer e.mu.Unlock(); return e.ready }
func (e *fakeElement) Rate() float64        { e.mu.Lock(); defer e.mu.Unlock(); return e.rate }

func (e *fakeElement) Seek(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.time = t
	e.seeks = append(e.seeks, t)
}

func (e *fakeElement) SetRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
}

func (e *fakeElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays++
	if e.playErr != nil {
		return e.playErr
	}
	e.paused = false
	return nil
}

func (e *fakeElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
	e.paused = true
}

func (e *fakeElement) seekCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seeks)
}

var errAutoplay = errors.New("autoplay refused")

type fakeClock struct {
	mu   sync.Mutex
	snap playback.Snapshot
}

func (c *fakeClock) Snapshot() playback.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *fakeClock) set(fn func(s *playback.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.snap)
}

type fakeClips map[string]models.Clip

func (f fakeClips) Clip(id string) (models.Clip, bool) {
	c, ok := f[id]
	return c, ok
}

func tenSecondClip() models.Clip {
	return models.Clip{ID: "c1", MediaID: "m", StartTime: 0, EndTime: 10, InPoint: 0, OutPoint: 10, Speed: 1}
}
