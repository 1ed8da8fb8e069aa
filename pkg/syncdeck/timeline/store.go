package timeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

// MediaLookup resolves a clip's media id to registry metadata.
type MediaLookup interface {
	GetFile(mediaID string) (models.MediaFile, error)
}

// Edge selects which end of a clip a trim moves.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	switch e {
	case EdgeStart:
		return "start"
	case EdgeEnd:
		return "end"
	}
	return "unknown"
}

// ParseEdge maps "start"/"end" to an Edge.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "start", "in", "left":
		return EdgeStart, nil
	case "end", "out", "right":
		return EdgeEnd, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidEdge, s)
}

// Option configures a Store.
type Option func(*Store)

// WithFrameRate sets the frame grid every clip edge is quantized to.
func WithFrameRate(fps float64) Option {
	return func(s *Store) {
		if fps > 0 {
			s.frameRate = fps
		}
	}
}

// WithMediaLookup enables media kind and duration checks on edits.
func WithMediaLookup(m MediaLookup) Option {
	return func(s *Store) {
		s.media = m
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithPlayhead sets where the store reads the current timeline time from.
func WithPlayhead(fn func() float64) Option {
	return func(s *Store) {
		s.playhead = fn
	}
}

// Store is the authoritative clip/track model.
//
// All mutations are atomic with respect to readers: a reader never observes
// a half-applied edit. The overall duration is recomputed before every
// mutating call returns.
type Store struct {
	mu        sync.RWMutex
	frameRate float64
	tracks    []*models.Track
	markers   []models.Marker
	loop      *models.LoopRegion
	duration  float64
	ripple    bool
	clipboard *models.Clip
	selected  []string

	media    MediaLookup
	newID    func() string
	playhead func() float64

	dirty    bool
	onChange func(duration float64)
}

// NewStore returns a store holding the two primary comparison tracks.
func NewStore(opts ...Option) *Store {
	s := &Store{
		frameRate: DefaultFrameRate,
		newID:     utils.GenerateUUID,
		duration:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracks = []*models.Track{
		s.makeTrack("Primary A", models.RolePrimary),
		s.makeTrack("Primary B", models.RolePrimary),
	}
	return s
}

// defaultAccepts lists what a freshly created track of each role accepts.
func defaultAccepts(role models.TrackRole) []models.MediaKind {
	switch role {
	case models.RolePrimary, models.RoleSecondary:
		return []models.MediaKind{models.KindVideo, models.KindImage, models.KindDocument}
	case models.RoleAudio:
		return []models.MediaKind{models.KindAudio, models.KindVideo}
	case models.RoleCaption:
		return []models.MediaKind{models.KindDocument}
	}
	return nil
}

func (s *Store) makeTrack(name string, role models.TrackRole) *models.Track {
	return &models.Track{
		ID:      s.newID(),
		Name:    name,
		Role:    role,
		Accepts: defaultAccepts(role),
	}
}

// SetOnChange registers a callback run after every structural edit, outside
// the store's lock.
func (s *Store) SetOnChange(fn func(duration float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// SetPlayhead replaces the playhead source.
func (s *Store) SetPlayhead(fn func() float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playhead = fn
}

// unlock releases the write lock and fires onChange when the edit committed.
func (s *Store) unlock() {
	dirty, fn, d := s.dirty, s.onChange, s.duration
	s.dirty = false
	s.mu.Unlock()
	if dirty && fn != nil {
		fn(d)
	}
}

// commit recomputes derived state after a structural edit. Callers hold the write lock.
func (s *Store) commit() {
	s.recompute()
	s.dirty = true
}

// recompute derives the overall duration. A clip with EndTime <= StartTime
// cannot be produced by the edit API; reaching one here is a bug.
func (s *Store) recompute() {
	maxEnd := 0.0
	for _, t := range s.tracks {
		for _, c := range t.Clips {
			if c.EndTime <= c.StartTime {
				panic(fmt.Sprintf("timeline: clip %s has end %.6f <= start %.6f", c.ID, c.EndTime, c.StartTime))
			}
			if c.EndTime > maxEnd {
				maxEnd = c.EndTime
			}
		}
	}
	if maxEnd <= 0 {
		maxEnd = 1
	}
	s.duration = maxEnd
}

func (s *Store) q(t float64) float64 {
	return Quantize(t, s.frameRate)
}

func (s *Store) frame() float64 {
	return FrameDuration(s.frameRate)
}

func (s *Store) readPlayhead() float64 {
	s.mu.RLock()
	fn := s.playhead
	s.mu.RUnlock()
	if fn == nil {
		return 0
	}
	return fn()
}

func (s *Store) trackByID(id string) (*models.Track, error) {
	for _, t := range s.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
}

func (s *Store) editableTrack(id string) (*models.Track, error) {
	t, err := s.trackByID(id)
	if err != nil {
		return nil, err
	}
	if t.Locked {
		return nil, ErrTrackLocked
	}
	return t, nil
}

// findClip returns the owning track and index of a clip.
func (s *Store) findClip(id string) (*models.Track, int, error) {
	for _, t := range s.tracks {
		for i := range t.Clips {
			if t.Clips[i].ID == id {
				return t, i, nil
			}
		}
	}
	return nil, -1, fmt.Errorf("%w: %s", ErrClipNotFound, id)
}

// lookupMedia returns registry metadata, or ok=false when no registry is wired.
func (s *Store) lookupMedia(id string) (models.MediaFile, bool, error) {
	if s.media == nil {
		return models.MediaFile{}, false, nil
	}
	f, err := s.media.GetFile(id)
	if err != nil {
		return models.MediaFile{}, false, fmt.Errorf("%w: %s: %v", ErrMediaNotFound, id, err)
	}
	return f, true, nil
}

func (s *Store) checkAccepts(t *models.Track, mediaID string) error {
	f, ok, err := s.lookupMedia(mediaID)
	if err != nil {
		return err
	}
	if ok && !t.AcceptsKind(f.Kind) {
		return fmt.Errorf("%w: %s on %s track", ErrKindNotAccepted, f.Kind, t.Role)
	}
	return nil
}

// shiftAfter moves every clip on t starting at or after from by delta, except
// skipID. Shifted edges are put back on the frame grid.
func (s *Store) shiftAfter(t *models.Track, from, delta float64, skipID string) {
	if delta == 0 {
		return
	}
	for i := range t.Clips {
		c := &t.Clips[i]
		if c.ID == skipID {
			continue
		}
		if c.StartTime >= from-utils.Epsilon {
			c.StartTime = s.q(c.StartTime + delta)
			c.EndTime = s.q(c.EndTime + delta)
		}
	}
}

// FrameRate returns the frame grid rate.
func (s *Store) FrameRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameRate
}

// Duration returns the overall timeline duration: the latest clip end, or 1 when empty.
func (s *Store) Duration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

// SetRipple toggles ripple editing.
func (s *Store) SetRipple(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ripple = on
}

// Ripple reports whether ripple editing is active.
func (s *Store) Ripple() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ripple
}

func copyTrack(t *models.Track) models.Track {
	out := *t
	out.Clips = append([]models.Clip(nil), t.Clips...)
	out.Accepts = append([]models.MediaKind(nil), t.Accepts...)
	return out
}

// Tracks returns a copy of every track in display order.
func (s *Store) Tracks() []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = copyTrack(t)
	}
	return out
}

// Track returns a copy of one track.
func (s *Store) Track(id string) (models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.trackByID(id)
	if err != nil {
		return models.Track{}, false
	}
	return copyTrack(t), true
}

// Clip returns a copy of one clip.
func (s *Store) Clip(id string) (models.Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, i, err := s.findClip(id)
	if err != nil {
		return models.Clip{}, false
	}
	return t.Clips[i], true
}

// ClipsOnTrack returns the clips of a track sorted by start time.
func (s *Store) ClipsOnTrack(trackID string) []models.Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.trackByID(trackID)
	if err != nil {
		return nil
	}
	out := append([]models.Clip(nil), t.Clips...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// AllClips returns every clip in track then clip order.
func (s *Store) AllClips() []models.Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Clip
	for _, t := range s.tracks {
		out = append(out, t.Clips...)
	}
	return out
}

// ResolveAt evaluates every clip at timeline time t.
func (s *Store) ResolveAt(t float64) []ClipTime {
	return Resolve(t, s.Tracks())
}
