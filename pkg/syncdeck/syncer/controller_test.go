package syncer

import (
	"math"
	"sync"
	"testing"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
)

const tolerance = 1e-9

// setupController binds el to a 10s clip on a playing clock at time 2
func setupController(t *testing.T, el *fakeElement, clip models.Clip) (*Controller, *fakeClock, *FrameScheduler) {
	t.Helper()
	clock := &fakeClock{snap: playback.Snapshot{Time: 2, Playing: true, BaseSpeed: 1}}
	sched := NewFrameScheduler()
	c := NewController(clip.ID, el, clock, fakeClips{clip.ID: clip}, sched)
	t.Cleanup(c.Close)
	return c, clock, sched
}

func TestSoftCorrectionBiasesRateWithoutSeeking(t *testing.T) {
	tests := []struct {
		name     string
		position float64
		wantRate float64
	}{
		{"ahead", 2.06, 0.95},
		{"behind", 1.94, 1.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := newElement(tt.position, false)
			c, _, _ := setupController(t, el, tenSecondClip())

			if st := c.Tick(); st != SoftCorrecting {
				t.Errorf("Expected SoftCorrecting, got %s", st)
			}
			if el.seekCount() != 0 {
				t.Errorf("Soft correction must not seek, got %v", el.seeks)
			}
			if math.Abs(el.Rate()-tt.wantRate) > tolerance {
				t.Errorf("Expected rate %v, got %v", tt.wantRate, el.Rate())
			}
		})
	}
}

func TestHardCorrectionReseeks(t *testing.T) {
	el := newElement(2.3, false)
	el.rate = 1.05
	c, _, _ := setupController(t, el, tenSecondClip())

	if st := c.Tick(); st != HardCorrecting {
		t.Errorf("Expected HardCorrecting, got %s", st)
	}
	if len(el.seeks) != 1 || el.seeks[0] != 2 {
		t.Errorf("Expected one seek to 2, got %v", el.seeks)
	}
	if el.Rate() != 1 {
		t.Errorf("Expected nominal rate restored, got %v", el.Rate())
	}
}

func TestConvergedRestoresNominalRate(t *testing.T) {
	el := newElement(2.02, false)
	el.rate = 0.95
	clip := tenSecondClip()
	clip.Speed = 2
	clip.EndTime = 5
	c, clock, _ := setupController(t, el, clip)
	clock.set(func(s *playback.Snapshot) { s.Time = 1; s.BaseSpeed = 1.5 })

	if st := c.Tick(); st != Converged {
		t.Errorf("Expected Converged, got %s", st)
	}
	if math.Abs(el.Rate()-3) > tolerance {
		t.Errorf("Expected base x clip speed = 3, got %v", el.Rate())
	}
}

func TestOutOfRangeDeactivatesAndCancelsLoop(t *testing.T) {
	el := newElement(2, false)
	c, clock, sched := setupController(t, el, tenSecondClip())

	if st := c.Wake(); st != Converged {
		t.Fatalf("Expected Converged, got %s", st)
	}
	if !c.Running() || sched.Len() != 1 {
		t.Fatal("Expected the per-frame loop to be scheduled")
	}

	clock.set(func(s *playback.Snapshot) { s.Time = 10 })
	sched.Frame()

	if c.State() != Inactive {
		t.Errorf("Expected Inactive past the clip end, got %s", c.State())
	}
	if !el.Paused() {
		t.Error("Expected the element to be paused")
	}
	if c.Running() || sched.Len() != 0 {
		t.Error("Expected the per-frame loop to be cancelled")
	}
}

// TestInactiveControllerStaysUnscheduled tests that a wake racing with a
// deactivating tick never leaves an inactive controller with a frame loop
func TestInactiveControllerStaysUnscheduled(t *testing.T) {
	el := newElement(2, false)
	c, clock, sched := setupController(t, el, tenSecondClip())

	for i := 0; i < 200; i++ {
		at := 2.0
		if i%2 == 0 {
			at = 10
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Wake()
		}()
		go func() {
			defer wg.Done()
			clock.set(func(s *playback.Snapshot) { s.Time = at })
			c.Tick()
		}()
		wg.Wait()

		if c.State() == Inactive && (c.Running() || sched.Len() != 0) {
			t.Fatalf("Iteration %d: inactive controller still has a frame loop", i)
		}
	}

	clock.set(func(s *playback.Snapshot) { s.Time = 10 })
	if st := c.Wake(); st != Inactive {
		t.Fatalf("Expected Inactive past the clip end, got %s", st)
	}
	if c.Running() {
		t.Error("Wake must not schedule an inactive controller")
	}
}

func TestExportingLeavesElementAlone(t *testing.T) {
	el := newElement(5, false)
	c, clock, _ := setupController(t, el, tenSecondClip())
	clock.set(func(s *playback.Snapshot) { s.Exporting = true })

	c.Tick()
	clock.set(func(s *playback.Snapshot) { s.Time = 20 })
	c.Tick()

	if el.seekCount() != 0 || el.pauses != 0 || el.plays != 0 || el.Rate() != 1 {
		t.Errorf("Element was touched while exporting: %+v", el)
	}
	if c.State() != Inactive {
		t.Errorf("State must not change while exporting, got %s", c.State())
	}
}

func TestPausedTransportSeeksOnlyBeyondTolerance(t *testing.T) {
	el := newElement(2.005, true)
	c, clock, _ := setupController(t, el, tenSecondClip())
	clock.set(func(s *playback.Snapshot) { s.Playing = false })

	if st := c.Tick(); st != Converged || el.seekCount() != 0 {
		t.Errorf("Expected Converged without seeking, got %s with %v", st, el.seeks)
	}

	clock.set(func(s *playback.Snapshot) { s.Time = 4 })
	if st := c.Tick(); st != HardCorrecting {
		t.Errorf("Expected HardCorrecting, got %s", st)
	}
	if len(el.seeks) != 1 || el.seeks[0] != 4 || !el.Paused() {
		t.Errorf("Expected one exact seek to 4 and a paused element, got %v paused=%v", el.seeks, el.Paused())
	}
}

func TestPausedElementIsStartedWhenPlaying(t *testing.T) {
	el := newElement(0, true)
	clip := tenSecondClip()
	clip.Speed = 1.5
	c, clock, _ := setupController(t, el, clip)
	clock.set(func(s *playback.Snapshot) { s.BaseSpeed = 2 })

	c.Tick()

	if len(el.seeks) != 1 || el.seeks[0] != 3 {
		t.Errorf("Expected seek to 3, got %v", el.seeks)
	}
	if el.Rate() != 3 || el.Paused() {
		t.Errorf("Expected playing at rate 3, got rate=%v paused=%v", el.Rate(), el.Paused())
	}
}

func TestPlayFailureIsRetried(t *testing.T) {
	el := newElement(0, true)
	el.playErr = errAutoplay
	c, _, _ := setupController(t, el, tenSecondClip())

	c.Tick()
	c.Tick()

	if el.plays != 2 {
		t.Errorf("Expected a play attempt per tick, got %d", el.plays)
	}

	el.playErr = nil
	c.Tick()
	if el.Paused() {
		t.Error("Expected playback to start once allowed")
	}
}

func TestNotReadyRetriesNextTick(t *testing.T) {
	el := newElement(7, false)
	el.ready = false
	c, _, _ := setupController(t, el, tenSecondClip())

	if st := c.Tick(); st != Inactive || el.seekCount() != 0 {
		t.Errorf("Expected untouched element, got %s and %v", st, el.seeks)
	}

	el.ready = true
	if st := c.Tick(); st != HardCorrecting {
		t.Errorf("Expected HardCorrecting once ready, got %s", st)
	}
}

func TestReversedClipIsSteppedBySeeks(t *testing.T) {
	el := newElement(0, false)
	clip := tenSecondClip()
	clip.Reverse = true
	c, _, _ := setupController(t, el, clip)

	if st := c.Tick(); st != HardCorrecting {
		t.Errorf("Expected HardCorrecting, got %s", st)
	}
	if !el.Paused() {
		t.Error("Reversed clips are held paused")
	}
	if len(el.seeks) != 1 || el.seeks[0] != 8 {
		t.Errorf("Expected seek to 8, got %v", el.seeks)
	}
}

func TestRemovedClipDeactivates(t *testing.T) {
	el := newElement(2, false)
	clock := &fakeClock{snap: playback.Snapshot{Time: 2, Playing: true, BaseSpeed: 1}}
	c := NewController("gone", el, clock, fakeClips{}, NewFrameScheduler())

	if st := c.Wake(); st != Inactive || !el.Paused() {
		t.Errorf("Expected Inactive and paused, got %s paused=%v", st, el.Paused())
	}
	if c.Running() {
		t.Error("An inactive controller must not keep a loop")
	}
}

func TestClosedControllerIgnoresTicks(t *testing.T) {
	el := newElement(9, false)
	c, _, sched := setupController(t, el, tenSecondClip())
	c.Wake()
	c.Close()

	c.Tick()
	if el.seekCount() != 1 {
		t.Errorf("Expected only the seek from before Close, got %v", el.seeks)
	}
	if sched.Len() != 0 {
		t.Errorf("Expected no scheduled callbacks, got %d", sched.Len())
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{HardThreshold: 0.04}.withDefaults()

	if cfg.SoftThreshold != 0.04 {
		t.Errorf("Soft threshold must not exceed hard, got %v", cfg.SoftThreshold)
	}
	if cfg.PausedTolerance != 0.01 || cfg.RateBias != 0.05 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}
