package syncer

import (
	"sort"
	"sync"

	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

// Group owns the controllers for every bound element. It subscribes to the
// bus so transport changes reach each controller immediately, and runs one
// watcher per frame that wakes inactive controllers whose clip has come
// into range during continuous playback.
type Group struct {
	clock     Clock
	clips     ClipSource
	scheduler Scheduler
	opts      []Option
	log       Logger

	mu          sync.Mutex
	controllers map[string]*Controller
	unsubscribe func()
	stopWatch   func()
	closed      bool
}

// NewGroup returns a group listening on bus. Close releases the subscription
// and every controller.
func NewGroup(clock Clock, clips ClipSource, bus *playback.Bus, scheduler Scheduler, opts ...Option) *Group {
	if scheduler == nil {
		scheduler = NewTimerScheduler(DefaultTimerInterval)
	}
	g := &Group{
		clock:       clock,
		clips:       clips,
		scheduler:   scheduler,
		opts:        opts,
		log:         newSettings(opts).log,
		controllers: make(map[string]*Controller),
	}
	if bus != nil {
		g.unsubscribe = bus.Subscribe(g.handle)
	}
	g.stopWatch = scheduler.Schedule(g.watch)
	return g
}

// Bind attaches element to clipID and starts syncing it. A clip has at most
// one element; binding again replaces the previous controller.
func (g *Group) Bind(clipID string, element MediaElement) *Controller {
	c := NewController(clipID, element, g.clock, g.clips, g.scheduler, g.opts...)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		c.Close()
		return c
	}
	old := g.controllers[clipID]
	g.controllers[clipID] = c
	g.mu.Unlock()

	if old != nil {
		old.Close()
	}
	g.log.Debugf("bound element to clip %s", clipID)
	c.Start()
	return c
}

// Unbind stops syncing clipID's element. It reports whether one was bound.
func (g *Group) Unbind(clipID string) bool {
	g.mu.Lock()
	c, ok := g.controllers[clipID]
	delete(g.controllers, clipID)
	g.mu.Unlock()

	if ok {
		c.Close()
		g.log.Debugf("unbound clip %s", clipID)
	}
	return ok
}

// Controller returns the controller bound to clipID.
func (g *Group) Controller(clipID string) (*Controller, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.controllers[clipID]
	return c, ok
}

// ClipIDs returns the bound clip ids in sorted order.
func (g *Group) ClipIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.controllers))
	for id := range g.controllers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// States returns the current state of every bound clip.
func (g *Group) States() map[string]State {
	out := make(map[string]State)
	for _, c := range g.snapshot() {
		out[c.ClipID()] = c.State()
	}
	return out
}

// WakeAll evaluates every controller immediately.
func (g *Group) WakeAll() {
	for _, c := range g.snapshot() {
		c.Wake()
	}
}

func (g *Group) snapshot() []*Controller {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Controller, 0, len(g.controllers))
	for _, c := range g.controllers {
		out = append(out, c)
	}
	return out
}

func (g *Group) handle(e playback.Event) {
	if e.Kind == playback.EventExporting && e.Exporting {
		return
	}
	g.WakeAll()
}

// watch wakes inactive controllers whose clip covers the current time.
func (g *Group) watch() {
	snap := g.clock.Snapshot()
	if snap.Exporting {
		return
	}
	for _, c := range g.snapshot() {
		if c.Running() {
			continue
		}
		clip, ok := g.clips.Clip(c.ClipID())
		if !ok {
			continue
		}
		if _, in := timeline.MediaTime(snap.Time, clip); in {
			c.Wake()
		}
	}
}

// Close unsubscribes from the bus and closes every controller.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	controllers := g.controllers
	g.controllers = make(map[string]*Controller)
	g.mu.Unlock()

	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	if g.stopWatch != nil {
		g.stopWatch()
	}
	for _, c := range controllers {
		c.Close()
	}
}
