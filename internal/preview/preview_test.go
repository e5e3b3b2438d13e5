package preview

import "testing"

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name    string
		monitor Size
		canvas  Canvas
		want    float64
	}{
		{"wide canvas uses height scale", Size{1920, 1080}, Canvas{400, 100}, 100.0 / 1080},
		{"tall canvas uses width scale", Size{1920, 1080}, Canvas{192, 400}, 0.1},
		{"degenerate monitor", Size{0, 1080}, Canvas{200, 100}, 0},
		{"degenerate canvas", Size{1920, 1080}, Canvas{0, 0}, 0},
	}
	for _, tt := range tests {
		if got := FitScale(tt.monitor, tt.canvas); got != tt.want {
			t.Errorf("%s: FitScale = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoundTripWithinOnePixel(t *testing.T) {
	monitor := Size{1920, 1080}
	canvas := Canvas{320, 180}

	rects := []RealRect{
		{0, 0, 400, 300},
		{1520, 780, 400, 300},
		{7, 13, 333, 77},
		{960, 540, 1, 1},
		{0, 0, 1920, 1080},
	}

	for _, r := range rects {
		back := ToReal(ToPreview(r, monitor, canvas), monitor, canvas)
		if absInt(back.X-r.X) > 1 || absInt(back.Y-r.Y) > 1 ||
			absInt(back.W-r.W) > 1 || absInt(back.H-r.H) > 1 {
			t.Errorf("round trip %+v -> %+v drifts more than one pixel", r, back)
		}
	}
}

func TestDragClampsToFarEdge(t *testing.T) {
	monitor := Size{1920, 1080}
	overlay := Size{400, 300}
	scale := 1.0

	got := Drag(RealPoint{1800, 1000}, CanvasPoint{500, 500}, scale, overlay, monitor)
	want := RealPoint{1520, 780}
	if got != want {
		t.Errorf("Drag = %+v, want %+v", got, want)
	}
}

func TestDragClampsToOrigin(t *testing.T) {
	monitor := Size{1920, 1080}
	overlay := Size{400, 300}

	got := Drag(RealPoint{10, 20}, CanvasPoint{-300, -300}, 1.0, overlay, monitor)
	if got != (RealPoint{0, 0}) {
		t.Errorf("Drag = %+v, want origin", got)
	}
}

func TestDragScalesCanvasDelta(t *testing.T) {
	monitor := Size{1920, 1080}
	overlay := Size{100, 100}

	// 0.25 canvas pixels per real pixel: a 10px canvas move is 40 real.
	got := Drag(RealPoint{100, 100}, CanvasPoint{10, -10}, 0.25, overlay, monitor)
	want := RealPoint{140, 60}
	if got != want {
		t.Errorf("Drag = %+v, want %+v", got, want)
	}
}

func TestDragPreservesSizeOversizedOverlay(t *testing.T) {
	// Overlay larger than monitor: position pins to 0, size untouched.
	monitor := Size{800, 600}
	overlay := Size{1000, 700}

	got := Drag(RealPoint{50, 50}, CanvasPoint{100, 100}, 1.0, overlay, monitor)
	if got != (RealPoint{0, 0}) {
		t.Errorf("Drag = %+v, want pinned origin", got)
	}
}

func TestResizeAspectClampReDerivesWidth(t *testing.T) {
	monitor := Size{1920, 1080}
	aspect := 4.0 / 3.0

	// Widening 400x300 to 2000 real width: derived height would be
	// 1500, so height clamps to 1080 and width re-derives to 1440.
	got := Resize(Size{400, 300}, CanvasPoint{1600, 0}, 1.0, aspect, monitor)
	want := Size{1440, 1080}
	if got != want {
		t.Errorf("Resize = %+v, want %+v", got, want)
	}
}

func TestResizeAspectDerivesHeight(t *testing.T) {
	monitor := Size{1920, 1080}
	aspect := 2.0

	got := Resize(Size{400, 200}, CanvasPoint{200, 0}, 1.0, aspect, monitor)
	want := Size{600, 300}
	if got != want {
		t.Errorf("Resize = %+v, want %+v", got, want)
	}
}

func TestResizeMinimumFloor(t *testing.T) {
	monitor := Size{1920, 1080}

	got := Resize(Size{100, 100}, CanvasPoint{-500, -500}, 1.0, 0, monitor)
	want := Size{MinOverlaySize, MinOverlaySize}
	if got != want {
		t.Errorf("Resize = %+v, want %+v", got, want)
	}
}

func TestResizeMinimumFloorBeforeAspect(t *testing.T) {
	monitor := Size{1920, 1080}
	aspect := 4.0 / 3.0

	// Width floors first; the derived height lands under the floor
	// too, so height pins to the floor and width re-derives from it.
	got := Resize(Size{100, 75}, CanvasPoint{-500, 0}, 1.0, aspect, monitor)
	want := Size{21, MinOverlaySize}
	if got != want {
		t.Errorf("Resize = %+v, want %+v", got, want)
	}
}

func TestResizeSoftCap(t *testing.T) {
	monitor := Size{10000, 10000}

	// Small content can't blow past the soft cap in one gesture even
	// though the monitor has room.
	got := Resize(Size{20, 20}, CanvasPoint{5000, 0}, 1.0, 1.0, monitor)
	want := Size{20 * maxScaleFactor, 20 * maxScaleFactor}
	if got != want {
		t.Errorf("Resize = %+v, want soft cap %+v", got, want)
	}
}

func TestResizeIgnoresBadScale(t *testing.T) {
	start := Size{400, 300}
	if got := Resize(start, CanvasPoint{100, 100}, 0, 0, Size{1920, 1080}); got != start {
		t.Errorf("Resize with zero scale = %+v, want start size", got)
	}
}
