package playback

import "errors"

var (
	ErrInvalidRate = errors.New("playback rate must be positive and finite")
	ErrInvalidTime = errors.New("invalid timeline time")
)
