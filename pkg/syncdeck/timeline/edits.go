package timeline

import (
	"math"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

// AddClip places a full-trim clip of mediaID on a track. start and duration
// are snapped to the frame grid.
func (s *Store) AddClip(trackID, mediaID string, start, duration float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, err := s.editableTrack(trackID)
	if err != nil {
		return models.Clip{}, err
	}
	if err := s.checkAccepts(t, mediaID); err != nil {
		return models.Clip{}, err
	}

	start = math.Max(0, s.q(start))
	duration = s.q(duration)
	if duration < s.frame()-utils.Epsilon {
		return models.Clip{}, ErrTooShort
	}

	clip := models.Clip{
		ID:        s.newID(),
		MediaID:   mediaID,
		TrackID:   t.ID,
		StartTime: start,
		EndTime:   s.q(start + duration),
		InPoint:   0,
		OutPoint:  duration,
		Speed:     1,
	}
	t.Clips = append(t.Clips, clip)
	s.commit()
	return clip, nil
}

// TrimClip moves one edge of a clip to newTime.
//
// The start edge moves StartTime and the media position shown there; the end
// edge moves EndTime and the media position shown there. For forward clips
// those are InPoint and OutPoint; reversed clips show OutPoint at their start.
// In ripple mode an end-edge trim shifts every later clip on the track by the
// same delta.
func (s *Store) TrimClip(clipID string, edge Edge, newTime float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	if t.Locked {
		return models.Clip{}, ErrTrackLocked
	}

	c := t.Clips[i]
	speed := c.EffectiveSpeed()
	at := s.q(newTime)
	frame := s.frame()
	oldEnd := c.EndTime

	switch edge {
	case EdgeStart:
		if at < 0 {
			return models.Clip{}, ErrOutsideClip
		}
		if c.EndTime-at < frame-utils.Epsilon {
			return models.Clip{}, ErrTooShort
		}
		delta := (at - c.StartTime) * speed
		if c.Reverse {
			c.OutPoint -= delta
		} else {
			c.InPoint += delta
		}
		c.StartTime = at
	case EdgeEnd:
		if at-c.StartTime < frame-utils.Epsilon {
			return models.Clip{}, ErrTooShort
		}
		delta := (at - c.EndTime) * speed
		if c.Reverse {
			c.InPoint -= delta
		} else {
			c.OutPoint += delta
		}
		c.EndTime = at
	default:
		return models.Clip{}, ErrInvalidEdge
	}

	if c.InPoint >= c.OutPoint {
		return models.Clip{}, ErrInvertedTrim
	}
	if c.InPoint < -utils.Epsilon {
		return models.Clip{}, ErrBeyondMedia
	}
	f, ok, err := s.lookupMedia(c.MediaID)
	if err == nil && ok && f.HasFiniteDuration() && c.OutPoint > f.Duration+utils.Epsilon {
		return models.Clip{}, ErrBeyondMedia
	}
	c.InPoint = math.Max(0, c.InPoint)

	t.Clips[i] = c
	if edge == EdgeEnd && s.ripple {
		s.shiftAfter(t, oldEnd, c.EndTime-oldEnd, c.ID)
	}
	s.commit()
	return c, nil
}

// splitLocked cuts a clip in two. The left part keeps the original id.
func (s *Store) splitLocked(clipID string, at float64) (*models.Track, models.Clip, models.Clip, error) {
	t, i, err := s.findClip(clipID)
	if err != nil {
		return nil, models.Clip{}, models.Clip{}, err
	}
	if t.Locked {
		return nil, models.Clip{}, models.Clip{}, ErrTrackLocked
	}

	c := t.Clips[i]
	at = s.q(at)
	if at <= c.StartTime+utils.Epsilon || at >= c.EndTime-utils.Epsilon {
		return nil, models.Clip{}, models.Clip{}, ErrOutsideClip
	}

	left, right := c, c
	right.ID = s.newID()
	left.EndTime = at
	right.StartTime = at

	rel := (at - c.StartTime) * c.EffectiveSpeed()
	if c.Reverse {
		mid := c.OutPoint - rel
		left.InPoint = mid
		right.OutPoint = mid
	} else {
		mid := c.InPoint + rel
		left.OutPoint = mid
		right.InPoint = mid
	}

	t.Clips[i] = left
	t.Clips = append(t.Clips, models.Clip{})
	copy(t.Clips[i+2:], t.Clips[i+1:])
	t.Clips[i+1] = right
	return t, left, right, nil
}

// removeLocked deletes a clip, closing the gap when ripple is set.
func (s *Store) removeLocked(t *models.Track, clipID string, ripple bool) (models.Clip, bool) {
	for i, c := range t.Clips {
		if c.ID != clipID {
			continue
		}
		t.Clips = append(t.Clips[:i], t.Clips[i+1:]...)
		if ripple {
			s.shiftAfter(t, c.EndTime, -c.Duration(), "")
		}
		s.dropSelection(clipID)
		return c, true
	}
	return models.Clip{}, false
}

// SplitClip cuts a clip at timeline time at, which must lie strictly inside
// it. Both halves share the media and their trim windows together cover the
// original window exactly.
func (s *Store) SplitClip(clipID string, at float64) (left, right models.Clip, err error) {
	s.mu.Lock()
	defer s.unlock()

	_, left, right, err = s.splitLocked(clipID, at)
	if err != nil {
		return models.Clip{}, models.Clip{}, err
	}
	s.commit()
	return left, right, nil
}

// SplitKeepLeft splits and discards the right half. In ripple mode later
// clips move left to close the gap.
func (s *Store) SplitKeepLeft(clipID string, at float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, left, right, err := s.splitLocked(clipID, at)
	if err != nil {
		return models.Clip{}, err
	}
	s.removeLocked(t, right.ID, s.ripple)
	s.commit()
	return left, nil
}

// SplitKeepRight splits and discards the left half. In ripple mode the kept
// half and every later clip move left to close the gap.
func (s *Store) SplitKeepRight(clipID string, at float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, left, right, err := s.splitLocked(clipID, at)
	if err != nil {
		return models.Clip{}, err
	}
	s.removeLocked(t, left.ID, s.ripple)
	s.commit()
	for _, c := range t.Clips {
		if c.ID == right.ID {
			return c, nil
		}
	}
	return right, nil
}

// MoveClip relocates a clip to trackID at start, keeping its length and trim window.
func (s *Store) MoveClip(clipID, trackID string, start float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	src, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	if src.Locked {
		return models.Clip{}, ErrTrackLocked
	}
	dst := src
	if trackID != "" && trackID != src.ID {
		if dst, err = s.editableTrack(trackID); err != nil {
			return models.Clip{}, err
		}
		if err := s.checkAccepts(dst, src.Clips[i].MediaID); err != nil {
			return models.Clip{}, err
		}
	}

	c := src.Clips[i]
	length := c.Duration()
	c.StartTime = math.Max(0, s.q(start))
	c.EndTime = s.q(c.StartTime + length)
	c.TrackID = dst.ID

	if dst == src {
		src.Clips[i] = c
	} else {
		src.Clips = append(src.Clips[:i], src.Clips[i+1:]...)
		dst.Clips = append(dst.Clips, c)
	}
	s.commit()
	return c, nil
}

// RemoveClip deletes a clip. In ripple mode later clips on the same track
// move left by the removed clip's duration.
func (s *Store) RemoveClip(clipID string) error {
	s.mu.Lock()
	defer s.unlock()

	t, _, err := s.findClip(clipID)
	if err != nil {
		return err
	}
	if t.Locked {
		return ErrTrackLocked
	}
	s.removeLocked(t, clipID, s.ripple)
	s.commit()
	return nil
}

// ReplaceClipMedia swaps a clip's media in place. When newDuration is given
// the trim window and EndTime are rescaled by newDuration over the old media
// duration, so the clip covers the same fraction of the new asset.
func (s *Store) ReplaceClipMedia(clipID, mediaID string, newDuration *float64) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	if t.Locked {
		return models.Clip{}, ErrTrackLocked
	}
	if err := s.checkAccepts(t, mediaID); err != nil {
		return models.Clip{}, err
	}

	c := t.Clips[i]
	if newDuration != nil && *newDuration > 0 {
		oldDuration := c.OutPoint
		if f, ok, err := s.lookupMedia(c.MediaID); err == nil && ok && f.HasFiniteDuration() {
			oldDuration = f.Duration
		}
		ratio := *newDuration / oldDuration
		c.InPoint *= ratio
		c.OutPoint *= ratio
		speed := c.EffectiveSpeed()
		end := s.q(c.StartTime + (c.OutPoint-c.InPoint)/speed)
		if (end-c.StartTime)*speed > c.OutPoint-c.InPoint+utils.Epsilon {
			end = s.q(end - s.frame())
		}
		if end-c.StartTime < s.frame()-utils.Epsilon {
			return models.Clip{}, ErrTooShort
		}
		c.EndTime = end
		c.OutPoint = c.InPoint + (end-c.StartTime)*speed
	}
	c.MediaID = mediaID

	t.Clips[i] = c
	s.commit()
	return c, nil
}

// SetClipSpeed changes playback speed, keeping the trim window and
// stretching EndTime to match.
func (s *Store) SetClipSpeed(clipID string, speed float64) (models.Clip, error) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return models.Clip{}, ErrInvalidSpeed
	}

	s.mu.Lock()
	defer s.unlock()

	t, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	if t.Locked {
		return models.Clip{}, ErrTrackLocked
	}

	c := t.Clips[i]
	end := s.q(c.StartTime + (c.OutPoint-c.InPoint)/speed)
	if end-c.StartTime < s.frame()-utils.Epsilon {
		return models.Clip{}, ErrTooShort
	}
	c.Speed = speed
	c.EndTime = end

	t.Clips[i] = c
	s.commit()
	return c, nil
}

// SetClipReverse toggles reversed playback of a clip.
func (s *Store) SetClipReverse(clipID string, reverse bool) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	t, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	if t.Locked {
		return models.Clip{}, ErrTrackLocked
	}
	t.Clips[i].Reverse = reverse
	s.commit()
	return t.Clips[i], nil
}

// ExtractAudio copies a clip onto the first unlocked audio track, creating
// one when none exists.
func (s *Store) ExtractAudio(clipID string) (models.Clip, error) {
	s.mu.Lock()
	defer s.unlock()

	src, i, err := s.findClip(clipID)
	if err != nil {
		return models.Clip{}, err
	}
	c := src.Clips[i]

	f, ok, err := s.lookupMedia(c.MediaID)
	if err != nil {
		return models.Clip{}, err
	}
	if ok && f.Kind != models.KindVideo && f.Kind != models.KindAudio {
		return models.Clip{}, ErrKindNotAccepted
	}

	var dst *models.Track
	audioCount := 0
	for _, t := range s.tracks {
		if t.Role != models.RoleAudio {
			continue
		}
		audioCount++
		if dst == nil && !t.Locked {
			dst = t
		}
	}
	if dst == nil {
		dst = s.makeTrack(trackName("Audio", audioCount+1), models.RoleAudio)
		s.tracks = append(s.tracks, dst)
	}

	extracted := c
	extracted.ID = s.newID()
	extracted.TrackID = dst.ID
	dst.Clips = append(dst.Clips, extracted)
	s.commit()
	return extracted, nil
}
