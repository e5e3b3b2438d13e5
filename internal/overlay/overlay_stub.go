//go:build !windows

package overlay

import "errors"

// NewSurface is unavailable off Windows; the positioner still works in
// buffered mode so the rest of the application can run.
func NewSurface() (Surface, error) {
	return nil, errors.New("overlay surface not supported on this platform")
}
