package timeline

import "math"

// DefaultFrameRate is the frame grid used when none is configured.
const DefaultFrameRate = 30.0

// Quantize rounds t to the nearest multiple of 1/fps. Non-positive rates
// leave t unchanged. Quantizing an already quantized value is a no-op.
func Quantize(t, fps float64) float64 {
	if fps <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return t
	}
	return math.Round(t*fps) / fps
}

// FrameDuration returns the length of one frame in seconds.
func FrameDuration(fps float64) float64 {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return 1 / fps
}

// FrameCount returns how many whole frames fit in d.
func FrameCount(d, fps float64) int {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return int(math.Round(d * fps))
}
