package models

// MediaKind is the broad type of a media asset.
type MediaKind string

const (
	KindVideo    MediaKind = "video"
	KindImage    MediaKind = "image"
	KindAudio    MediaKind = "audio"
	KindDocument MediaKind = "document"
)

// MediaFile is the registry view of an asset. Clips only hold its ID.
type MediaFile struct {
	ID        string    // UUID of the asset
	Name      string    // Original file name
	Kind      MediaKind // video, image, audio or document
	URL       string    // Where playback elements load it from
	Duration  float64   // Native duration in seconds, 0 for stills
	Width     int       // Pixel width, 0 when not visual
	Height    int       // Pixel height, 0 when not visual
	SizeBytes int64     // File size on disk
}

// HasFiniteDuration reports whether the asset has its own clock that bounds trims.
func (m MediaFile) HasFiniteDuration() bool {
	return (m.Kind == KindVideo || m.Kind == KindAudio) && m.Duration > 0
}

// Visual returns the dimensioned variant of the asset, or false for
// audio and documents.
func (m MediaFile) Visual() (Visual, bool) {
	switch m.Kind {
	case KindVideo:
		return Video{Width: m.Width, Height: m.Height}, true
	case KindImage:
		return Image{Width: m.Width, Height: m.Height}, true
	}
	return nil, false
}

// Visual is either a Video or an Image.
type Visual interface {
	Dimensions() (width, height int)
	visual()
}

// Video is a moving-picture asset.
type Video struct {
	Width  int
	Height int
}

// Image is a still asset.
type Image struct {
	Width  int
	Height int
}

func (v Video) Dimensions() (int, int) { return v.Width, v.Height }
func (i Image) Dimensions() (int, int) { return i.Width, i.Height }

func (Video) visual() {}
func (Image) visual() {}

// HasArea reports whether a visual has non-zero dimensions, i.e. whether
// a texture can be produced from it yet.
func HasArea(v Visual) bool {
	if v == nil {
		return false
	}
	w, h := v.Dimensions()
	return w > 0 && h > 0
}
