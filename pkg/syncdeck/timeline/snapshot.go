package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

// Snapshot returns a deep copy of the editable state for the external store.
func (s *Store) Snapshot() models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := models.Project{
		FrameRate: s.frameRate,
		Tracks:    make([]models.Track, len(s.tracks)),
		Markers:   append([]models.Marker(nil), s.markers...),
	}
	for i, t := range s.tracks {
		p.Tracks[i] = copyTrack(t)
	}
	if s.loop != nil {
		l := *s.loop
		p.Loop = &l
	}
	return p
}

// ValidateClip checks the clip invariants external data must satisfy. The
// trim window must match the timeline length at the clip's speed to within
// one frame of the fps grid.
func ValidateClip(c models.Clip, fps float64) error {
	for _, v := range []float64{c.StartTime, c.EndTime, c.InPoint, c.OutPoint, c.Speed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s has a non-finite time or speed", ErrInvalidClip, c.ID)
		}
	}
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidClip)
	case c.EndTime <= c.StartTime:
		return fmt.Errorf("%w: %s ends at %.4f before it starts at %.4f", ErrInvalidClip, c.ID, c.EndTime, c.StartTime)
	case c.InPoint < 0 || c.OutPoint <= c.InPoint:
		return fmt.Errorf("%w: %s has trim window [%.4f, %.4f]", ErrInvalidClip, c.ID, c.InPoint, c.OutPoint)
	case c.Speed < 0:
		return fmt.Errorf("%w: %s has negative speed", ErrInvalidClip, c.ID)
	}

	speed := c.EffectiveSpeed()
	window := c.OutPoint - c.InPoint
	covered := c.Duration() * speed
	if math.Abs(window-covered) > FrameDuration(fps)*speed+utils.Epsilon {
		return fmt.Errorf("%w: %s trim window %.4fs does not match %.4fs at %gx",
			ErrInvalidClip, c.ID, window, c.Duration(), speed)
	}
	return nil
}

// Restore replaces the whole state with p. The project is validated first;
// on error the store is left untouched. Missing primary tracks are added so
// the store always holds at least two.
func (s *Store) Restore(p models.Project) error {
	fps := p.FrameRate
	if fps <= 0 {
		fps = s.FrameRate()
	}

	tracks := make([]*models.Track, 0, len(p.Tracks)+2)
	trackIDs := make(map[string]bool, len(p.Tracks))
	clipIDs := make(map[string]bool)
	primaries := 0
	for _, t := range p.Tracks {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: track %s has role %q", ErrInvalidRole, t.ID, t.Role)
		}
		if t.ID == "" || trackIDs[t.ID] {
			return fmt.Errorf("%w: %q", ErrInvalidTrackID, t.ID)
		}
		trackIDs[t.ID] = true
		tc := copyTrack(&t)
		for i := range tc.Clips {
			if err := ValidateClip(tc.Clips[i], fps); err != nil {
				return err
			}
			if clipIDs[tc.Clips[i].ID] {
				return fmt.Errorf("%w: duplicate clip id %s", ErrInvalidClip, tc.Clips[i].ID)
			}
			clipIDs[tc.Clips[i].ID] = true
			if tc.Clips[i].Speed == 0 {
				tc.Clips[i].Speed = 1
			}
			tc.Clips[i].TrackID = tc.ID
		}
		if t.Role == models.RolePrimary {
			primaries++
		}
		tracks = append(tracks, &tc)
	}

	var loop *models.LoopRegion
	if p.Loop != nil {
		if !p.Loop.Valid() {
			return ErrInvalidLoop
		}
		l := *p.Loop
		loop = &l
	}

	s.mu.Lock()
	defer s.unlock()

	for ; primaries < 2; primaries++ {
		tracks = append(tracks, s.makeTrack(trackName("Primary", primaries+1), models.RolePrimary))
	}
	if p.FrameRate > 0 {
		s.frameRate = p.FrameRate
	}
	s.tracks = tracks
	s.markers = append([]models.Marker(nil), p.Markers...)
	sort.SliceStable(s.markers, func(i, j int) bool { return s.markers[i].Time < s.markers[j].Time })
	s.loop = loop
	s.selected = nil
	s.clipboard = nil
	s.commit()
	return nil
}
