package timeline

import (
	"sort"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

// Select replaces the selection with the given clip ids. Unknown ids are ignored.
func (s *Store) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = s.selected[:0]
	for _, id := range ids {
		if _, _, err := s.findClip(id); err == nil && !s.isSelected(id) {
			s.selected = append(s.selected, id)
		}
	}
}

// ToggleSelect adds or removes one clip from the selection.
func (s *Store) ToggleSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isSelected(id) {
		s.dropSelection(id)
		return
	}
	if _, _, err := s.findClip(id); err == nil {
		s.selected = append(s.selected, id)
	}
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Selected returns the selected clip ids in selection order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selected...)
}

func (s *Store) isSelected(id string) bool {
	for _, sel := range s.selected {
		if sel == id {
			return true
		}
	}
	return false
}

func (s *Store) dropSelection(id string) {
	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
}

// RemoveSelected deletes every selected clip on an unlocked track as one
// edit and returns how many were removed. Clips on locked tracks stay selected.
func (s *Store) RemoveSelected() int {
	s.mu.Lock()
	defer s.unlock()

	type target struct {
		track *models.Track
		clip  models.Clip
	}
	var targets []target
	for _, id := range s.selected {
		t, i, err := s.findClip(id)
		if err != nil || t.Locked {
			continue
		}
		targets = append(targets, target{track: t, clip: t.Clips[i]})
	}
	// Latest first so each ripple only moves clips that are still to the right.
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].clip.StartTime > targets[j].clip.StartTime
	})

	for _, tg := range targets {
		s.removeLocked(tg.track, tg.clip.ID, s.ripple)
	}
	if len(targets) > 0 {
		s.commit()
	}
	return len(targets)
}
