package syncer

import (
	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
)

// MediaElement is one independently decoding playback element, such as a
// browser video tag. Seek and Play are fire-and-forget: the controller never
// waits for them and reads the actual position again on the next tick.
type MediaElement interface {
	CurrentTime() float64
	Paused() bool
	// Ready reports whether the element can report and accept positions.
	Ready() bool
	Seek(t float64)
	Rate() float64
	SetRate(rate float64)
	Play() error
	Pause()
}

// Clock reports the authoritative transport state.
type Clock interface {
	Snapshot() playback.Snapshot
}

// ClipSource looks up the current geometry of a clip. Controllers read it on
// every tick so edits apply without rebinding.
type ClipSource interface {
	Clip(id string) (models.Clip, bool)
}

// Logger is the subset of the logger the sync loop writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}
