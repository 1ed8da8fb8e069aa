package models

import "time"

// TrackRole tags what a track is used for.
type TrackRole string

const (
	RolePrimary   TrackRole = "primary"
	RoleSecondary TrackRole = "secondary"
	RoleAudio     TrackRole = "audio"
	RoleCaption   TrackRole = "caption"
	RoleGeneric   TrackRole = "generic"
)

// Valid reports whether r is one of the known roles.
func (r TrackRole) Valid() bool {
	switch r {
	case RolePrimary, RoleSecondary, RoleAudio, RoleCaption, RoleGeneric:
		return true
	}
	return false
}

// Track is an ordered lane of clips. Clip order is for display only;
// overlapping clips are a valid state.
type Track struct {
	ID      string      // UUID of the track
	Name    string      // Display name
	Role    TrackRole   // What the lane is used for
	Clips   []Clip      // Owned clips, in display order
	Muted   bool        // Audio output suppressed
	Locked  bool        // Edits are rejected while set
	Accepts []MediaKind // Media kinds that may be placed on the track
}

// AcceptsKind reports whether media of the given kind may be placed on the track.
// An empty accept list accepts everything.
func (t *Track) AcceptsKind(kind MediaKind) bool {
	if len(t.Accepts) == 0 || kind == "" {
		return true
	}
	for _, k := range t.Accepts {
		if k == kind {
			return true
		}
	}
	return false
}

// Clip places a window of a media asset on the timeline.
//
// StartTime/EndTime are timeline seconds (half-open), InPoint/OutPoint are
// seconds in the media's own clock.
type Clip struct {
	ID        string
	MediaID   string
	TrackID   string
	StartTime float64
	EndTime   float64
	InPoint   float64
	OutPoint  float64
	Speed     float64
	Reverse   bool
}

// Duration returns the clip's length on the timeline.
func (c Clip) Duration() float64 {
	return c.EndTime - c.StartTime
}

// EffectiveSpeed returns Speed, defaulting to 1 when unset or invalid.
func (c Clip) EffectiveSpeed() float64 {
	if c.Speed <= 0 {
		return 1
	}
	return c.Speed
}

// Contains reports whether timeline time t falls inside [StartTime, EndTime).
func (c Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.EndTime
}

// Marker is a labelled timeline instant used as a snap target.
type Marker struct {
	ID    string
	Time  float64
	Label string
}

// LoopRegion wraps playback from OutPoint back to InPoint while active.
type LoopRegion struct {
	InPoint  float64
	OutPoint float64
}

// Valid reports whether the region has positive length.
func (l LoopRegion) Valid() bool {
	return l.InPoint >= 0 && l.OutPoint > l.InPoint
}

// Project is the full editable state handed to and from the external store.
type Project struct {
	ID        string
	Name      string
	FrameRate float64
	Tracks    []Track
	Markers   []Marker
	Loop      *LoopRegion
}

// ProjectSummary is a listing row for a stored project.
type ProjectSummary struct {
	ID         string
	Name       string
	FrameRate  float64
	TrackCount int
	ClipCount  int
	UpdatedAt  time.Time
}
