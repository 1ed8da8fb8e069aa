package syncer

import (
	"testing"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

type groupFixture struct {
	store     *timeline.Store
	transport *playback.Transport
	sched     *FrameScheduler
	group     *Group
	early     models.Clip
	late      models.Clip
}

// setupGroup builds a store with clips [0,4) and [4,8) on the first track,
// a transport and a frame-driven group
func setupGroup(t *testing.T) *groupFixture {
	t.Helper()

	f := &groupFixture{}
	f.store = timeline.NewStore(timeline.WithPlayhead(func() float64 { return f.transport.Time() }))
	f.transport = playback.NewTransport(f.store, playback.NewBus())
	f.sched = NewFrameScheduler()
	f.group = NewGroup(f.transport, f.store, f.transport.Bus(), f.sched)
	t.Cleanup(f.group.Close)

	track := f.store.Tracks()[0].ID
	var err error
	if f.early, err = f.store.AddClip(track, "m1", 0, 4); err != nil {
		t.Fatalf("AddClip failed: %v", err)
	}
	if f.late, err = f.store.AddClip(track, "m2", 4, 4); err != nil {
		t.Fatalf("AddClip failed: %v", err)
	}
	return f
}

func TestBusEventsReachControllersImmediately(t *testing.T) {
	f := setupGroup(t)
	el := newElement(0, true)
	f.group.Bind(f.early.ID, el)

	f.transport.Seek(3)

	if len(el.seeks) == 0 || el.seeks[len(el.seeks)-1] != 3 {
		t.Errorf("Expected an immediate seek to 3, got %v", el.seeks)
	}

	f.transport.Play()
	if el.Paused() {
		t.Error("Expected play to start the element without waiting for a frame")
	}
}

func TestWatcherWakesClipEnteringRange(t *testing.T) {
	f := setupGroup(t)
	early, late := newElement(0, true), newElement(0, true)
	cEarly := f.group.Bind(f.early.ID, early)
	cLate := f.group.Bind(f.late.ID, late)

	if cLate.State() != Inactive || cLate.Running() {
		t.Fatalf("Late clip should start inactive, got %s", cLate.State())
	}

	f.transport.Play()
	f.transport.Advance(4.5)
	f.sched.Frame()

	if cEarly.State() != Inactive {
		t.Errorf("Early clip should be inactive at 4.5, got %s", cEarly.State())
	}
	if !early.Paused() {
		t.Error("Early element should be paused")
	}
	if cLate.State() == Inactive || !cLate.Running() {
		t.Errorf("Late clip should be awake at 4.5, got %s", cLate.State())
	}
	if late.Paused() {
		t.Error("Late element should be playing")
	}
}

func TestExportingEventDoesNotTouchElements(t *testing.T) {
	f := setupGroup(t)
	el := newElement(0, true)
	f.group.Bind(f.early.ID, el)
	before := el.seekCount()

	f.transport.SetExporting(true)
	f.transport.Seek(2)
	f.sched.Frame()

	if el.seekCount() != before {
		t.Errorf("Element was seeked while exporting: %v", el.seeks)
	}

	f.transport.SetExporting(false)
	if el.seekCount() != before+1 {
		t.Errorf("Expected a catch-up seek when export ends, got %v", el.seeks)
	}
}

func TestBindReplacesAndUnbindCloses(t *testing.T) {
	f := setupGroup(t)
	first := f.group.Bind(f.early.ID, newElement(0, true))
	second := f.group.Bind(f.early.ID, newElement(0, true))

	if got, _ := f.group.Controller(f.early.ID); got != second {
		t.Error("Expected the second binding to replace the first")
	}
	if first.Running() {
		t.Error("Replaced controller must be stopped")
	}

	if !f.group.Unbind(f.early.ID) {
		t.Error("Expected Unbind to report a bound clip")
	}
	if f.group.Unbind(f.early.ID) {
		t.Error("Second Unbind should report nothing bound")
	}
	if len(f.group.ClipIDs()) != 0 {
		t.Errorf("Expected no bindings, got %v", f.group.ClipIDs())
	}
}

func TestCloseReleasesBusAndScheduler(t *testing.T) {
	f := setupGroup(t)
	f.group.Bind(f.early.ID, newElement(0, true))

	f.group.Close()

	if n := f.transport.Bus().Len(); n != 0 {
		t.Errorf("Expected no bus subscribers, got %d", n)
	}
	if n := f.sched.Len(); n != 0 {
		t.Errorf("Expected no scheduled callbacks, got %d", n)
	}
}

func TestEditsApplyWithoutRebinding(t *testing.T) {
	f := setupGroup(t)
	el := newElement(0, true)
	f.group.Bind(f.early.ID, el)
	f.transport.Seek(1)

	if _, err := f.store.MoveClip(f.early.ID, "", 0.5); err != nil {
		t.Fatalf("MoveClip failed: %v", err)
	}
	f.sched.Frame()

	if got := el.CurrentTime(); got != 0.5 {
		t.Errorf("Expected element at 0.5 after the move, got %v", got)
	}
}
