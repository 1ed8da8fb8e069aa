package timeline

import (
	"math"
	"sync"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

const (
	// DefaultSnapPixels is how close, on screen, an edge must come to a target to snap.
	DefaultSnapPixels = 8.0

	// DefaultPixelsPerSecond is the zoom level a new resolver starts at.
	DefaultPixelsPerSecond = 100.0
)

// Resolver finds snap targets and overlaps for edits against a Store.
type Resolver struct {
	store *Store

	mu              sync.RWMutex
	enabled         bool
	snapPixels      float64
	pixelsPerSecond float64
}

// NewResolver returns an enabled resolver at the default zoom.
func NewResolver(store *Store) *Resolver {
	return &Resolver{
		store:           store,
		enabled:         true,
		snapPixels:      DefaultSnapPixels,
		pixelsPerSecond: DefaultPixelsPerSecond,
	}
}

// SetEnabled turns snapping on or off. Frame quantization always applies.
func (r *Resolver) SetEnabled(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = on
}

// SetZoom sets the current zoom in pixels per timeline second.
func (r *Resolver) SetZoom(pixelsPerSecond float64) {
	if pixelsPerSecond <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pixelsPerSecond = pixelsPerSecond
}

// SetSnapPixels sets the on-screen snap tolerance.
func (r *Resolver) SetSnapPixels(px float64) {
	if px < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapPixels = px
}

// Threshold returns the snap tolerance in timeline seconds. It shrinks as
// the user zooms in.
func (r *Resolver) Threshold() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapPixels / r.pixelsPerSecond
}

// Candidates lists snap targets in scan order: zero, the playhead, markers,
// then the start and end of every clip except excludeClipID.
func (r *Resolver) Candidates(excludeClipID string) []float64 {
	out := []float64{0, r.store.readPlayhead()}
	for _, m := range r.store.Markers() {
		out = append(out, m.Time)
	}
	for _, c := range r.store.AllClips() {
		if c.ID == excludeClipID {
			continue
		}
		out = append(out, c.StartTime, c.EndTime)
	}
	return out
}

// Snap returns the first candidate within the threshold of proposed, or
// proposed quantized to the frame grid and false when none is close enough.
func (r *Resolver) Snap(proposed float64, excludeClipID string) (float64, bool) {
	r.mu.RLock()
	enabled := r.enabled
	r.mu.RUnlock()

	if enabled {
		threshold := r.Threshold()
		for _, c := range r.Candidates(excludeClipID) {
			if math.Abs(proposed-c) <= threshold {
				return c, true
			}
		}
	}
	return Quantize(proposed, r.store.FrameRate()), false
}

// SnapMove resolves a proposed start for dragging a clip: the leading edge
// is tried first, then the trailing edge.
func (r *Resolver) SnapMove(clipID string, proposedStart float64) float64 {
	c, ok := r.store.Clip(clipID)
	if !ok {
		return Quantize(proposedStart, r.store.FrameRate())
	}
	if start, ok := r.Snap(proposedStart, clipID); ok {
		return start
	}
	length := c.Duration()
	if end, ok := r.Snap(proposedStart+length, clipID); ok {
		return math.Max(0, end-length)
	}
	return Quantize(proposedStart, r.store.FrameRate())
}

// IntervalsOverlap reports whether half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd float64) bool {
	return aStart < bEnd && aEnd > bStart
}

// OverlappingClips returns the clips on trackID intersecting [start, end),
// except excludeClipID.
func (r *Resolver) OverlappingClips(trackID string, start, end float64, excludeClipID string) []models.Clip {
	var out []models.Clip
	for _, c := range r.store.ClipsOnTrack(trackID) {
		if c.ID == excludeClipID {
			continue
		}
		if IntervalsOverlap(c.StartTime, c.EndTime, start, end) {
			out = append(out, c)
		}
	}
	return out
}

// Overlaps reports whether any clip on trackID intersects [start, end).
func (r *Resolver) Overlaps(trackID string, start, end float64, excludeClipID string) bool {
	return len(r.OverlappingClips(trackID, start, end, excludeClipID)) > 0
}
