package probe

import "errors"

var (
	ErrUnsupportedKind  = errors.New("unsupported media type")
	ErrInvalidWAV       = errors.New("invalid WAV file")
	ErrNoStream         = errors.New("no usable stream found")
	ErrProbeUnavailable = errors.New("ffprobe not available")
)
