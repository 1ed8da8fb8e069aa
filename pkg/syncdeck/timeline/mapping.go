package timeline

import (
	"math"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

// MediaTime maps timeline time t onto the clip's media clock.
//
// It returns false when t lies outside [StartTime, EndTime). Inside the clip
// the position advances from InPoint at the clip's speed and is clamped to
// [InPoint, OutPoint]; reversed clips are reflected about the trim window.
// MediaTime is pure and never panics, so previews, exporters and sync
// controllers all get the same answer for the same input.
func MediaTime(t float64, clip models.Clip) (float64, bool) {
	if math.IsNaN(t) || t < clip.StartTime || t >= clip.EndTime {
		return 0, false
	}

	relative := t - clip.StartTime
	raw := clip.InPoint + relative*clip.EffectiveSpeed()
	raw = utils.Clamp(raw, clip.InPoint, clip.OutPoint)

	if clip.Reverse {
		return clip.OutPoint - (raw - clip.InPoint), true
	}
	return raw, true
}

// TimelineTime is the inverse of MediaTime: it returns the timeline instant
// at which the clip shows media time m. The result may fall outside the clip
// when m is outside the trim window.
func TimelineTime(m float64, clip models.Clip) float64 {
	raw := m
	if clip.Reverse {
		raw = clip.OutPoint - (m - clip.InPoint)
	}
	return clip.StartTime + (raw-clip.InPoint)/clip.EffectiveSpeed()
}

// ClipTime is the resolved state of one clip at a timeline instant.
type ClipTime struct {
	Clip      models.Clip
	TrackID   string
	Visible   bool    // timeline time falls inside the clip
	MediaTime float64 // meaningful only when Visible
	Muted     bool    // owning track is muted
}

// Resolve evaluates every clip of every track at timeline time t, in track
// then clip order. Renderers and exporters read this once per frame.
func Resolve(t float64, tracks []models.Track) []ClipTime {
	var out []ClipTime
	for _, track := range tracks {
		for _, clip := range track.Clips {
			mt, ok := MediaTime(t, clip)
			out = append(out, ClipTime{
				Clip:      clip,
				TrackID:   track.ID,
				Visible:   ok,
				MediaTime: mt,
				Muted:     track.Muted,
			})
		}
	}
	return out
}
