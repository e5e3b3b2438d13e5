//go:build windows

package monitor

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// SM_XVIRTUALSCREEN = 76
// SM_YVIRTUALSCREEN = 77
// SM_CXVIRTUALSCREEN = 78
// SM_CYVIRTUALSCREEN = 79

const monitorinfofPrimary = 1

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")
)

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type monitorInfoExW struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
	Device  [32]uint16
}

// VirtualBounds returns the bounding rectangle of the entire virtual
// desktop, spanning all monitors.
func VirtualBounds() Rect {
	x, _, _ := procGetSystemMetrics.Call(76)
	y, _, _ := procGetSystemMetrics.Call(77)
	w, _, _ := procGetSystemMetrics.Call(78)
	h, _, _ := procGetSystemMetrics.Call(79)

	return Rect{X: int(int32(x)), Y: int(int32(y)), W: int(int32(w)), H: int(int32(h))}
}

func enumerate() (Snapshot, error) {
	var monitors Snapshot

	cb := syscall.NewCallback(func(hMonitor uintptr, hdcMonitor uintptr, lprcMonitor uintptr, dwData uintptr) uintptr {
		var mi monitorInfoExW
		mi.Size = uint32(unsafe.Sizeof(mi))

		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret != 0 {
			monitors = append(monitors, Monitor{
				ID: windows.UTF16ToString(mi.Device[:]),
				Rect: Rect{
					X: int(mi.Monitor.Left),
					Y: int(mi.Monitor.Top),
					W: int(mi.Monitor.Right - mi.Monitor.Left),
					H: int(mi.Monitor.Bottom - mi.Monitor.Top),
				},
				Primary: mi.Flags&monitorinfofPrimary != 0,
			})
		}
		return 1 // continue enumeration
	})

	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return Snapshot{}, fmt.Errorf("%w: EnumDisplayMonitors: %v", ErrEnumFailed, err)
	}
	return monitors, nil
}
