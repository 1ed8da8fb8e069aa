package timeline

import (
	"math"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

// DuplicateClip places a copy of a clip directly after it on the same track.
func (s *Store) DuplicateClip(clipID string) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	if t.Locked {
		return models.Clip{}, ErrTrackLocked
	}

	dup := t.Clips[i]
	length := dup.Duration()
	dup.ID = s.newID()
	dup.StartTime = dup.EndTime
	dup.EndTime = s.q(dup.StartTime + length)
	t.Clips = append(t.Clips, dup)
	s.commit()
	return dup, nil
}

// Copy puts a clip on the single-slot clipboard.
func (s *Store) Copy(clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, i, err := s.findClip(clipID)
	if err != nil {
		return err
	}
	c := t.Clips[i]
	s.clipboard = &c
	return nil
}

// Clipboard returns the copied clip, if any.
func (s *Store) Clipboard() (models.Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clipboard == nil {
		return models.Clip{}, false
	}
	return *s.clipboard, true
}

// Paste inserts the clipboard clip on trackID at timeline time at. An empty
// trackID pastes onto the track the clip was copied from.
func (s *Store) Paste(trackID string, at float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.pasteLocked(trackID, at, false)
}

// PasteAtPlayhead pastes at the playhead. When clips on the target track
// already cover the playhead, the paste moves forward to the end of the last
// of them. Clips further along that the moved paste may now overlap are not
// considered.
func (s *Store) PasteAtPlayhead(trackID string) (models.Clip, error) {
	at := s.readPlayhead()

	s.mu.Lock()
	defer s.unlock()
	return s.pasteLocked(trackID, at, true)
}

func (s *Store) pasteLocked(trackID string, at float64, avoid bool) (models.Clip, error) {
	if s.clipboard == nil {
		return models.Clip{}, ErrEmptyClipboard
	}
	src := *s.clipboard
	if trackID == "" {
		trackID = src.TrackID
	}
	t, err := s.editableTrack(trackID)
	if err != nil {
		return models.Clip{}, err
	}
	if err := s.checkAccepts(t, src.MediaID); err != nil {
		return models.Clip{}, err
	}

	at = math.Max(0, s.q(at))
	if avoid {
		target := at
		for _, c := range t.Clips {
			if c.Contains(target) && c.EndTime > at {
				at = c.EndTime
			}
		}
	}

	length := src.Duration()
	pasted := src
	pasted.ID = s.newID()
	pasted.TrackID = t.ID
	pasted.StartTime = at
	pasted.EndTime = s.q(at + length)
	t.Clips = append(t.Clips, pasted)
	s.commit()
	return pasted, nil
}
