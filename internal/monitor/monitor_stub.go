//go:build !windows

package monitor

import "fmt"

// VirtualBounds returns an empty rectangle on unsupported platforms.
func VirtualBounds() Rect {
	return Rect{}
}

func enumerate() (Snapshot, error) {
	return Snapshot{}, fmt.Errorf("%w: not supported on this platform", ErrEnumFailed)
}
