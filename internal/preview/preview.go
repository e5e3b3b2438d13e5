// Package preview maps overlay geometry between real monitor pixels
// and a scaled-down preview canvas used for interactive placement
// editing. Real space and canvas space are deliberately distinct
// types; a canvas rectangle can never be handed to a native placement
// call by accident.
package preview

import "math"

const (
	// MinOverlaySize is the smallest overlay edge in real pixels,
	// applied before aspect derivation during a resize.
	MinOverlaySize = 16
	// maxScaleFactor soft-caps a resize at a multiple of the starting
	// size so tiny source content can't be scaled up without bound in
	// one gesture. The exact value is a product choice, not a
	// correctness invariant.
	maxScaleFactor = 8
)

// Size is an extent in real monitor pixels.
type Size struct {
	W int
	H int
}

// RealPoint is an offset relative to a monitor's top-left corner,
// in real pixels.
type RealPoint struct {
	X int
	Y int
}

// RealRect is an overlay rectangle in monitor-local real pixels.
type RealRect struct {
	X int
	Y int
	W int
	H int
}

// Canvas is the preview widget's drawable extent in canvas pixels.
type Canvas struct {
	W int
	H int
}

// CanvasPoint is a position or delta in canvas pixels.
type CanvasPoint struct {
	X int
	Y int
}

// CanvasRect is an overlay rectangle in canvas pixels. Coordinates
// are fractional: rounding happens only at the real-space boundary,
// which keeps real->canvas->real round trips within one pixel even on
// a coarse canvas. Callers round when painting.
type CanvasRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// FitScale returns canvas pixels per real pixel for a preview that
// must keep the monitor's aspect ratio inside a fixed canvas: the
// smaller of the per-axis scales.
func FitScale(monitor Size, canvas Canvas) float64 {
	if monitor.W <= 0 || monitor.H <= 0 || canvas.W <= 0 || canvas.H <= 0 {
		return 0
	}
	sw := float64(canvas.W) / float64(monitor.W)
	sh := float64(canvas.H) / float64(monitor.H)
	return math.Min(sw, sh)
}

// ToPreview converts a monitor-local rectangle to canvas space.
func ToPreview(r RealRect, monitor Size, canvas Canvas) CanvasRect {
	scale := FitScale(monitor, canvas)
	return CanvasRect{
		X: float64(r.X) * scale,
		Y: float64(r.Y) * scale,
		W: float64(r.W) * scale,
		H: float64(r.H) * scale,
	}
}

// ToReal converts a canvas rectangle back to monitor-local real
// pixels. Round-tripping through ToPreview converges within one pixel
// per axis; both spaces are discrete, so exactness is not promised.
func ToReal(r CanvasRect, monitor Size, canvas Canvas) RealRect {
	scale := FitScale(monitor, canvas)
	if scale == 0 {
		return RealRect{}
	}
	return RealRect{
		X: round(r.X / scale),
		Y: round(r.Y / scale),
		W: round(r.W / scale),
		H: round(r.H / scale),
	}
}

// Drag applies a canvas-space pointer delta to the overlay's real
// offset. The result is clamped so the overlay stays fully inside the
// monitor; size is preserved and the position slides along the edge,
// it never shrinks during a drag.
func Drag(start RealPoint, delta CanvasPoint, scale float64, overlay Size, monitor Size) RealPoint {
	if scale <= 0 {
		return start
	}
	moved := RealPoint{
		X: start.X + round(float64(delta.X)/scale),
		Y: start.Y + round(float64(delta.Y)/scale),
	}
	return ClampOffset(moved, overlay, monitor)
}

// ClampOffset pins offset so the overlay rectangle stays inside the
// monitor rectangle: 0 <= x and x+w <= monitor.W, same for y.
func ClampOffset(offset RealPoint, overlay Size, monitor Size) RealPoint {
	maxX := monitor.W - overlay.W
	maxY := monitor.H - overlay.H
	return RealPoint{
		X: clamp(offset.X, 0, maxX),
		Y: clamp(offset.Y, 0, maxY),
	}
}

// Resize applies a canvas-space pointer delta to the overlay's real
// size. Width drives the computation; when aspect is non-zero, height
// is derived as width/aspect. If the derived height exceeds the
// monitor's height, height is clamped and width re-derived from it.
// The minimum size floor applies before aspect derivation; the
// maximum is the monitor extent with a soft cap for degenerate
// scale-up.
func Resize(start Size, delta CanvasPoint, scale float64, aspect float64, monitor Size) Size {
	if scale <= 0 {
		return start
	}

	w := start.W + round(float64(delta.X)/scale)
	h := start.H + round(float64(delta.Y)/scale)

	// Hard max is the monitor extent; the soft cap bounds how far a
	// single gesture can blow up very small content.
	maxW := min(monitor.W, start.W*maxScaleFactor)
	if maxW < MinOverlaySize {
		maxW = MinOverlaySize
	}
	w = clamp(w, MinOverlaySize, maxW)
	if aspect > 0 {
		h = round(float64(w) / aspect)
		if h > monitor.H {
			// Secondary clamp: height pins to the monitor and width
			// re-derives, so the aspect lock survives the clamp.
			h = monitor.H
			w = round(float64(h) * aspect)
		}
		if h < MinOverlaySize {
			h = MinOverlaySize
			w = round(float64(h) * aspect)
		}
	} else {
		maxH := min(monitor.H, start.H*maxScaleFactor)
		if maxH < MinOverlaySize {
			maxH = MinOverlaySize
		}
		h = clamp(h, MinOverlaySize, maxH)
	}

	return Size{W: w, H: h}
}

func round(f float64) int {
	return int(math.Round(f))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
