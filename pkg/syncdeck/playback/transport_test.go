package playback

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

type fakeTimeline struct {
	mu       sync.Mutex
	duration float64
	loop     *models.LoopRegion
}

func (f *fakeTimeline) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeTimeline) LoopRegion() (models.LoopRegion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loop == nil {
		return models.LoopRegion{}, false
	}
	return *f.loop, true
}

// recorder collects every event published on a bus
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func setupTransport(t *testing.T, duration float64) (*Transport, *fakeTimeline, *recorder) {
	t.Helper()
	tl := &fakeTimeline{duration: duration}
	tr := NewTransport(tl, NewBus())
	rec := &recorder{}
	t.Cleanup(tr.Bus().Subscribe(rec.handle))
	return tr, tl, rec
}

func TestPlayPausePublishTransportEvents(t *testing.T) {
	tr, _, rec := setupTransport(t, 10)

	tr.Play()
	tr.Pause()
	if playing := tr.Toggle(); !playing {
		t.Error("Toggle from paused should start playback")
	}

	events := rec.all()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	want := []bool{true, false, true}
	for i, e := range events {
		if e.Kind != EventTransport || e.Playing != want[i] {
			t.Errorf("Event %d: got %+v", i, e)
		}
	}
}

func TestSeekClampsToTimeline(t *testing.T) {
	tr, _, rec := setupTransport(t, 10)

	tr.Seek(-3)
	if tr.Time() != 0 {
		t.Errorf("Expected 0, got %v", tr.Time())
	}
	tr.Seek(25)
	if tr.Time() != 10 {
		t.Errorf("Expected 10, got %v", tr.Time())
	}
	if err := tr.Seek(math.NaN()); err != ErrInvalidTime {
		t.Errorf("Expected ErrInvalidTime, got %v", err)
	}

	events := rec.all()
	if len(events) != 2 || events[1].Kind != EventSeek || events[1].Time != 10 {
		t.Errorf("Unexpected events %+v", events)
	}
}

func TestAdvanceScalesBySpeed(t *testing.T) {
	tr, _, _ := setupTransport(t, 10)

	if got := tr.Advance(1); got != 0 {
		t.Errorf("Paused transport must not move, got %v", got)
	}

	tr.Play()
	if err := tr.SetSpeed(2); err != nil {
		t.Fatalf("SetSpeed failed: %v", err)
	}
	if got := tr.Advance(0.5); got != 1 {
		t.Errorf("Expected 1 after 0.5s at 2x, got %v", got)
	}
	if err := tr.SetSpeed(0); err != ErrInvalidRate {
		t.Errorf("Expected ErrInvalidRate, got %v", err)
	}
}

func TestAdvanceStopsAtEnd(t *testing.T) {
	tr, _, rec := setupTransport(t, 2)
	tr.Play()

	tr.Advance(5)

	snap := tr.Snapshot()
	if snap.Playing || snap.Time != 2 {
		t.Errorf("Expected stopped at 2, got %+v", snap)
	}
	events := rec.all()
	last := events[len(events)-1]
	if last.Kind != EventTransport || last.Playing {
		t.Errorf("Expected a pause event, got %+v", last)
	}

	tr.Play()
	if tr.Time() != 0 {
		t.Errorf("Playing from the end should restart at 0, got %v", tr.Time())
	}
}

func TestAdvanceWrapsLoop(t *testing.T) {
	tr, tl, rec := setupTransport(t, 20)
	tl.loop = &models.LoopRegion{InPoint: 2, OutPoint: 4}

	tr.Seek(3.5)
	tr.Play()
	got := tr.Advance(1)

	if math.Abs(got-2.5) > 1e-9 {
		t.Errorf("Expected wrap to 2.5, got %v", got)
	}
	events := rec.all()
	last := events[len(events)-1]
	if last.Kind != EventSeek || math.Abs(last.Time-2.5) > 1e-9 {
		t.Errorf("Expected a seek event on wrap, got %+v", last)
	}
}

func TestAdvanceWrapsFromAfterLoop(t *testing.T) {
	for _, start := range []float64{5, 8} {
		tr, tl, rec := setupTransport(t, 20)
		tl.loop = &models.LoopRegion{InPoint: 2, OutPoint: 5}

		tr.Seek(start)
		tr.Play()
		got := tr.Advance(0.5)

		if math.Abs(got-2.5) > 1e-9 {
			t.Errorf("From %v: expected wrap to 2.5, got %v", start, got)
		}
		events := rec.all()
		if last := events[len(events)-1]; last.Kind != EventSeek {
			t.Errorf("From %v: expected a seek event on wrap, got %+v", start, last)
		}
		if !tr.Playing() {
			t.Errorf("From %v: loop wrap must keep playing", start)
		}
	}
}

func TestExportingFreezesClock(t *testing.T) {
	tr, _, rec := setupTransport(t, 10)
	tr.Play()
	tr.SetExporting(true)
	tr.SetExporting(true)

	if got := tr.Advance(1); got != 0 {
		t.Errorf("Clock must not run while exporting, got %v", got)
	}

	exporting := 0
	for _, e := range rec.all() {
		if e.Kind == EventExporting {
			exporting++
		}
	}
	if exporting != 1 {
		t.Errorf("Expected one exporting event, got %d", exporting)
	}
}

func TestRunAdvancesUntilCancelled(t *testing.T) {
	tr, _, _ := setupTransport(t, 100)
	tr.Play()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if tr.Time() <= 0 {
		t.Error("Expected the clock to advance")
	}
}
