// Package monitor enumerates physical displays and models their
// geometry in virtual-desktop coordinates.
package monitor

import "errors"

// ErrEnumFailed indicates the OS display enumeration call failed.
var ErrEnumFailed = errors.New("monitor enumeration failed")

// Rect is a rectangle in virtual-desktop coordinates. X and Y can be
// negative on multi-monitor setups (e.g. a display left of the primary).
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Monitor is an immutable snapshot of one display. A fresh enumeration
// produces a new set; handles are never reused across device changes.
type Monitor struct {
	// ID is the OS device name, e.g. `\\.\DISPLAY1`.
	ID      string
	Rect    Rect
	Primary bool
}

// Snapshot is the result of one enumeration, in OS enumeration order.
// The order is not guaranteed stable across calls.
type Snapshot []Monitor

// Enumerate captures the current display topology. On OS failure it
// returns an empty snapshot and an error wrapping ErrEnumFailed;
// callers decide whether "no monitors" is fatal.
func Enumerate() (Snapshot, error) {
	return enumerate()
}

// Primary returns the monitor flagged primary by the OS. If no entry
// carries the flag the first enumerated monitor is used. The second
// return is false only for an empty snapshot.
func (s Snapshot) Primary() (Monitor, bool) {
	for _, m := range s {
		if m.Primary {
			return m, true
		}
	}
	if len(s) > 0 {
		return s[0], true
	}
	return Monitor{}, false
}

// FindByID returns the monitor with the given device name.
func (s Snapshot) FindByID(id string) (Monitor, bool) {
	for _, m := range s {
		if m.ID == id {
			return m, true
		}
	}
	return Monitor{}, false
}
