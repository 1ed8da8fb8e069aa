package timeline

import "errors"

// Lookup errors
var (
	// ErrTrackNotFound indicates that a track id does not exist.
	ErrTrackNotFound = errors.New("track not found")

	// ErrClipNotFound indicates that a clip id does not exist.
	ErrClipNotFound = errors.New("clip not found")

	// ErrMarkerNotFound indicates that a marker id does not exist.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrMediaNotFound indicates that the media registry does not know the asset.
	ErrMediaNotFound = errors.New("media not found")
)

// Geometric errors. These come from live drag input and leave the store unchanged.
var (
	// ErrOutsideClip indicates a split point not strictly inside the clip.
	ErrOutsideClip = errors.New("outside clip bounds")

	// ErrTooShort indicates an edit that would leave a clip shorter than one frame.
	ErrTooShort = errors.New("clip shorter than one frame")

	// ErrInvertedTrim indicates an edit that would make InPoint >= OutPoint.
	ErrInvertedTrim = errors.New("in point not before out point")

	// ErrBeyondMedia indicates a trim window reaching outside the media's own duration.
	ErrBeyondMedia = errors.New("trim beyond media bounds")

	// ErrInvalidEdge indicates an unknown trim edge.
	ErrInvalidEdge = errors.New("invalid trim edge")

	// ErrInvalidSpeed indicates a non-positive playback speed.
	ErrInvalidSpeed = errors.New("speed must be positive")

	// ErrInvalidLoop indicates a loop region with non-positive length.
	ErrInvalidLoop = errors.New("invalid loop region")
)

// Track errors
var (
	// ErrTrackLocked indicates an edit on a locked track.
	ErrTrackLocked = errors.New("track is locked")

	// ErrKindNotAccepted indicates media the track does not accept.
	ErrKindNotAccepted = errors.New("media kind not accepted by track")

	// ErrMinimumTracks indicates removal of one of the last two primary tracks.
	ErrMinimumTracks = errors.New("at least two primary tracks are required")

	// ErrInvalidRole indicates an unknown track role.
	ErrInvalidRole = errors.New("invalid track role")
)

// Clipboard errors
var (
	// ErrEmptyClipboard indicates a paste with nothing copied.
	ErrEmptyClipboard = errors.New("clipboard is empty")
)

// ErrInvalidClip indicates external project data holding a malformed clip.
var ErrInvalidClip = errors.New("invalid clip")

// ErrInvalidTrackID indicates external project data with a missing or repeated track id.
var ErrInvalidTrackID = errors.New("missing or duplicate track id")
