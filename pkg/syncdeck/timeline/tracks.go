package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

func trackName(prefix string, n int) string {
	return fmt.Sprintf("%s %d", prefix, n)
}

// AddTrack appends a new empty track. An empty name is generated from the role.
func (s *Store) AddTrack(name string, role models.TrackRole) (models.Track, error) {
	if !role.Valid() {
		return models.Track{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	s.mu.Lock()
	defer s.unlock()

	if name == "" {
		n := 1
		for _, t := range s.tracks {
			if t.Role == role {
				n++
			}
		}
		name = trackName(roleLabel(role), n)
	}
	t := s.makeTrack(name, role)
	s.tracks = append(s.tracks, t)
	s.commit()
	return copyTrack(t), nil
}

func roleLabel(role models.TrackRole) string {
	switch role {
	case models.RolePrimary:
		return "Primary"
	case models.RoleSecondary:
		return "Secondary"
	case models.RoleAudio:
		return "Audio"
	case models.RoleCaption:
		return "Caption"
	}
	return "Track"
}

// RemoveTrack deletes a track and its clips. The last two primary tracks
// cannot be removed.
func (s *Store) RemoveTrack(trackID string) error {
	s.mu.Lock()
	defer s.unlock()

	idx := -1
	primaries := 0
	for i, t := range s.tracks {
		if t.ID == trackID {
			idx = i
		}
		if t.Role == models.RolePrimary {
			primaries++
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	t := s.tracks[idx]
	if t.Locked {
		return ErrTrackLocked
	}
	if t.Role == models.RolePrimary && primaries <= 2 {
		return ErrMinimumTracks
	}

	for _, c := range t.Clips {
		s.dropSelection(c.ID)
	}
	s.tracks = append(s.tracks[:idx], s.tracks[idx+1:]...)
	s.commit()
	return nil
}

func (s *Store) updateTrack(trackID string, fn func(t *models.Track)) error {
	s.mu.Lock()
	defer s.unlock()

	t, err := s.trackByID(trackID)
	if err != nil {
		return err
	}
	fn(t)
	s.commit()
	return nil
}

// SetTrackMuted sets a track's mute flag.
func (s *Store) SetTrackMuted(trackID string, muted bool) error {
	return s.updateTrack(trackID, func(t *models.Track) { t.Muted = muted })
}

// SetTrackLocked sets a track's lock flag. Lock changes are allowed on locked tracks.
func (s *Store) SetTrackLocked(trackID string, locked bool) error {
	return s.updateTrack(trackID, func(t *models.Track) { t.Locked = locked })
}

// RenameTrack changes a track's display name.
func (s *Store) RenameTrack(trackID, name string) error {
	return s.updateTrack(trackID, func(t *models.Track) { t.Name = name })
}

// AddMarker places a labelled marker on the frame grid.
func (s *Store) AddMarker(at float64, label string) models.Marker {
	s.mu.Lock()
	defer s.unlock()

	m := models.Marker{ID: s.newID(), Time: math.Max(0, s.q(at)), Label: label}
	s.markers = append(s.markers, m)
	sort.SliceStable(s.markers, func(i, j int) bool { return s.markers[i].Time < s.markers[j].Time })
	s.commit()
	return m
}

// RemoveMarker deletes a marker.
func (s *Store) RemoveMarker(id string) error {
	s.mu.Lock()
	defer s.unlock()

	for i, m := range s.markers {
		if m.ID == id {
			s.markers = append(s.markers[:i], s.markers[i+1:]...)
			s.commit()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMarkerNotFound, id)
}

// Markers returns the markers in time order.
func (s *Store) Markers() []models.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Marker(nil), s.markers...)
}

// SetLoopRegion activates looping between in and out, replacing any previous region.
func (s *Store) SetLoopRegion(in, out float64) (models.LoopRegion, error) {
	s.mu.Lock()
	defer s.unlock()

	l := models.LoopRegion{InPoint: s.q(in), OutPoint: s.q(out)}
	if !l.Valid() {
		return models.LoopRegion{}, ErrInvalidLoop
	}
	s.loop = &l
	s.commit()
	return l, nil
}

// ClearLoop deactivates looping.
func (s *Store) ClearLoop() {
	s.mu.Lock()
	defer s.unlock()
	if s.loop != nil {
		s.loop = nil
		s.commit()
	}
}

// LoopRegion returns the active loop region, if any.
func (s *Store) LoopRegion() (models.LoopRegion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loop == nil {
		return models.LoopRegion{}, false
	}
	return *s.loop, true
}
