package timeline

import "testing"

func TestThresholdScalesWithZoom(t *testing.T) {
	s, _, _ := setupStore(t)
	r := NewResolver(s)

	if got := r.Threshold(); !approx(got, DefaultSnapPixels/DefaultPixelsPerSecond) {
		t.Errorf("Unexpected default threshold %v", got)
	}

	r.SetZoom(800)
	if got := r.Threshold(); !approx(got, 0.01) {
		t.Errorf("Expected 0.01 when zoomed in, got %v", got)
	}

	r.SetZoom(-1)
	if got := r.Threshold(); !approx(got, 0.01) {
		t.Errorf("Invalid zoom must be ignored, got %v", got)
	}
}

func TestSnapToClipEdge(t *testing.T) {
	s, a, b := setupStore(t)
	mustAdd(t, s, a, 1, 4)
	moving := mustAdd(t, s, b, 0, 1)
	r := NewResolver(s)

	got, ok := r.Snap(4.95, moving.ID)
	if !ok || got != 5 {
		t.Errorf("Expected snap to clip end 5, got %v (%v)", got, ok)
	}

	got, ok = r.Snap(3, moving.ID)
	if ok || got != 3 {
		t.Errorf("Expected no snap at 3, got %v (%v)", got, ok)
	}
}

func TestSnapExcludesEditedClip(t *testing.T) {
	s, a, _ := setupStore(t)
	c := mustAdd(t, s, a, 2, 2)
	r := NewResolver(s)

	if _, ok := r.Snap(3.97, c.ID); ok {
		t.Error("A clip must not snap to its own edges")
	}
}

// TestSnapFirstMatchWins tests the fixed scan order: zero, playhead, markers, clip edges
func TestSnapFirstMatchWins(t *testing.T) {
	playhead := 0.5
	s, a, _ := setupStore(t, WithPlayhead(func() float64 { return playhead }))
	s.AddMarker(0.5333, "close")
	mustAdd(t, s, a, 0.5666, 1)
	r := NewResolver(s)

	got, ok := r.Snap(0.54, "")
	if !ok || got != 0.5 {
		t.Errorf("Expected playhead to win, got %v", got)
	}

	playhead = 10
	got, _ = r.Snap(0.54, "")
	if !approx(got, 16.0/30) {
		t.Errorf("Expected marker to win once the playhead moved, got %v", got)
	}
}

func TestSnapDisabledStillQuantizes(t *testing.T) {
	s, a, _ := setupStore(t)
	mustAdd(t, s, a, 0, 5)
	r := NewResolver(s)
	r.SetEnabled(false)

	got, ok := r.Snap(4.99, "")
	if ok || !approx(got, 5) {
		t.Errorf("Expected quantized 5 without snapping, got %v (%v)", got, ok)
	}
	got, _ = r.Snap(2.51, "")
	if !approx(got, 2.5) {
		t.Errorf("Expected 2.5, got %v", got)
	}
}

func TestSnapMoveUsesTrailingEdge(t *testing.T) {
	s, a, b := setupStore(t)
	mustAdd(t, s, a, 6, 2)
	c := mustAdd(t, s, b, 0, 2)
	r := NewResolver(s)

	// Leading edge at 3.95 is far from everything, trailing edge 5.95 is near 6.
	if got := r.SnapMove(c.ID, 3.95); !approx(got, 4) {
		t.Errorf("Expected start 4 from trailing-edge snap, got %v", got)
	}
}

// TestOverlapSymmetry tests that half-open intersection is symmetric
func TestOverlapSymmetry(t *testing.T) {
	intervals := [][2]float64{{0, 5}, {5, 8}, {4, 6}, {1, 2}, {0, 10}, {8, 9}, {4.999, 5}}

	for _, x := range intervals {
		for _, y := range intervals {
			ab := IntervalsOverlap(x[0], x[1], y[0], y[1])
			ba := IntervalsOverlap(y[0], y[1], x[0], x[1])
			if ab != ba {
				t.Errorf("overlap(%v, %v) = %v but overlap(%v, %v) = %v", x, y, ab, y, x, ba)
			}
		}
	}

	if IntervalsOverlap(0, 5, 5, 8) {
		t.Error("Adjacent half-open intervals must not overlap")
	}
}

func TestOverlappingClips(t *testing.T) {
	s, a, _ := setupStore(t)
	c1 := mustAdd(t, s, a, 0, 5)
	c2 := mustAdd(t, s, a, 3, 4)
	mustAdd(t, s, a, 8, 1)
	r := NewResolver(s)

	got := r.OverlappingClips(a, 4, 8, "")
	if len(got) != 2 || got[0].ID != c1.ID || got[1].ID != c2.ID {
		t.Errorf("Expected c1 and c2, got %+v", got)
	}
	if !r.Overlaps(a, 0, 5, c1.ID) {
		t.Error("c2 overlaps [0,5)")
	}
	if r.Overlaps(a, 7, 8, "") {
		t.Error("Nothing occupies [7,8)")
	}
}
