package syncer

import (
	"sync"
	"time"
)

// DefaultTimerInterval is the fallback tick used when no frame callback exists.
const DefaultTimerInterval = 33 * time.Millisecond

// Scheduler runs a callback once per display frame. Controllers only see
// this interface and never know which implementation drives them.
type Scheduler interface {
	// Schedule calls fn every frame until the returned cancel function is
	// called. cancel is idempotent and may be called from inside fn.
	Schedule(fn func()) (cancel func())
}

// TimerScheduler drives callbacks from a fixed-interval ticker, one
// goroutine per scheduled callback.
type TimerScheduler struct {
	interval time.Duration
}

// NewTimerScheduler returns a scheduler ticking every interval, or every
// DefaultTimerInterval when interval is not positive.
func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = DefaultTimerInterval
	}
	return &TimerScheduler{interval: interval}
}

func (s *TimerScheduler) Schedule(fn func()) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}

type frameCallback struct {
	id int
	fn func()
}

// FrameScheduler runs callbacks when the host presents a frame. The host
// calls Frame from its frame callback (requestAnimationFrame in a browser);
// tests call it by hand.
type FrameScheduler struct {
	mu        sync.Mutex
	nextID    int
	callbacks []frameCallback
}

// NewFrameScheduler returns a scheduler with nothing registered.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

func (s *FrameScheduler) Schedule(fn func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.callbacks = append(s.callbacks, frameCallback{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *FrameScheduler) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cb := range s.callbacks {
		if cb.id == id {
			s.callbacks = append(s.callbacks[:i:i], s.callbacks[i+1:]...)
			return
		}
	}
}

// Frame runs every registered callback once. Callbacks cancelled during the
// frame by an earlier callback are skipped.
func (s *FrameScheduler) Frame() {
	s.mu.Lock()
	pending := append([]frameCallback(nil), s.callbacks...)
	s.mu.Unlock()

	for _, cb := range pending {
		if s.has(cb.id) {
			cb.fn()
		}
	}
}

func (s *FrameScheduler) has(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cb := range s.callbacks {
		if cb.id == id {
			return true
		}
	}
	return false
}

// Len returns the number of registered callbacks.
func (s *FrameScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}
