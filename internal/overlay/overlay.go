// Package overlay owns the overlay surface's placement, size, and
// click-through state. Callers think in monitor-relative coordinates;
// the conversion into virtual-desktop space the window manager expects
// happens here and nowhere else.
package overlay

import (
	"errors"
	"image"

	"github.com/rs/zerolog"

	"deskpin/internal/monitor"
)

// ErrZeroSize rejects a degenerate overlay rectangle at the API
// boundary, before any OS state is touched.
var ErrZeroSize = errors.New("overlay size must be positive")

// ContentKind identifies what the overlay shows. Rendering parameters
// are opaque to this package and passed through by the controller.
type ContentKind int

const (
	KindImage ContentKind = iota
	KindMemo
)

// Point is an offset relative to a monitor's top-left corner.
type Point struct {
	X int
	Y int
}

// Size is the overlay extent in pixels.
type Size struct {
	W int
	H int
}

// Placement is the full desired state of the overlay surface.
type Placement struct {
	Monitor monitor.Monitor
	Offset  Point
	Size    Size
	// Alpha is the window opacity, 0 (invisible) to 255 (opaque).
	Alpha uint8
	Kind  ContentKind
}

// Surface is the native window the positioner drives. ApplyPlacement
// receives a rectangle already converted to virtual-desktop space;
// ApplyContent receives the render content pre-scaled to the placement
// size, or nil to clear it.
type Surface interface {
	ApplyPlacement(rect monitor.Rect) error
	ApplyAlpha(alpha uint8) error
	ApplyClickThrough(on bool) error
	ApplyContent(img image.Image) error
	SetVisible(on bool) error
}

// Positioner tracks the last requested overlay state and applies it to
// the surface. Calls made before a surface is attached are buffered as
// "last requested state" and flushed on Attach, never dropped.
//
// The positioner assumes single-threaded access; a concurrent host
// must marshal calls onto one goroutine.
type Positioner struct {
	log     zerolog.Logger
	surface Surface

	placement    *Placement
	content      image.Image
	haveContent  bool
	clickThrough bool
	visible      bool
}

func NewPositioner(log zerolog.Logger) *Positioner {
	return &Positioner{log: log}
}

// Attach hands the positioner its native surface and flushes any
// buffered state onto it.
func (p *Positioner) Attach(s Surface) error {
	p.surface = s

	if p.placement != nil {
		if err := p.applyPlacement(*p.placement); err != nil {
			return err
		}
	}
	if p.haveContent {
		if err := s.ApplyContent(p.content); err != nil {
			return err
		}
	}
	// Establish a known input style regardless of what the window was
	// created with.
	if err := s.ApplyClickThrough(p.clickThrough); err != nil {
		return err
	}
	return s.SetVisible(p.visible)
}

// Attached reports whether a native surface is present.
func (p *Positioner) Attached() bool {
	return p.surface != nil
}

// Place records the desired placement and applies it if the surface
// exists. The offset is monitor-relative; conversion to virtual
// desktop coordinates happens here.
func (p *Positioner) Place(pl Placement) error {
	if pl.Size.W <= 0 || pl.Size.H <= 0 {
		return ErrZeroSize
	}

	p.placement = &pl
	if p.surface == nil {
		p.log.Debug().Msg("No overlay surface yet, buffering placement")
		return nil
	}
	return p.applyPlacement(pl)
}

// SetContent records the render content, pre-scaled by the caller to
// the placement size, and applies it if the surface exists. Nil
// clears the content (memo mode owns its own painting).
func (p *Positioner) SetContent(img image.Image) error {
	p.content = img
	p.haveContent = true
	if p.surface == nil {
		p.log.Debug().Msg("No overlay surface yet, buffering content")
		return nil
	}
	return p.surface.ApplyContent(img)
}

// SetClickThrough switches the surface between Interactive and
// ClickThrough. The style is re-applied on every call even when the
// requested state matches the last one: window styles can be altered
// externally, so the assumed current state is never trusted.
func (p *Positioner) SetClickThrough(on bool) error {
	p.clickThrough = on
	if p.surface == nil {
		return nil
	}
	return p.surface.ApplyClickThrough(on)
}

// ClickThrough reports the last requested click-through state.
func (p *Positioner) ClickThrough() bool {
	return p.clickThrough
}

// Show makes the overlay visible without taking focus.
func (p *Positioner) Show() error {
	p.visible = true
	if p.surface == nil {
		return nil
	}
	return p.surface.SetVisible(true)
}

// Hide removes the overlay from the screen; its state is kept.
func (p *Positioner) Hide() error {
	p.visible = false
	if p.surface == nil {
		return nil
	}
	return p.surface.SetVisible(false)
}

// Visible reports the last requested visibility.
func (p *Positioner) Visible() bool {
	return p.visible
}

// Placement returns the last requested placement, if any.
func (p *Positioner) Placement() (Placement, bool) {
	if p.placement == nil {
		return Placement{}, false
	}
	return *p.placement, true
}

func (p *Positioner) applyPlacement(pl Placement) error {
	if err := p.surface.ApplyPlacement(virtualRect(pl)); err != nil {
		return err
	}
	return p.surface.ApplyAlpha(pl.Alpha)
}

// virtualRect converts a monitor-relative placement into virtual
// desktop coordinates by adding the monitor's origin. The OS placement
// API operates in virtual-desktop space while the user-facing model is
// per-monitor; this is the only place the two spaces meet.
func virtualRect(pl Placement) monitor.Rect {
	return monitor.Rect{
		X: pl.Monitor.Rect.X + pl.Offset.X,
		Y: pl.Monitor.Rect.Y + pl.Offset.Y,
		W: pl.Size.W,
		H: pl.Size.H,
	}
}
