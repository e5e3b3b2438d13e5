//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                 = syscall.NewLazyDLL("user32.dll")
	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procRegisterClassExW   = user32.NewProc("RegisterClassExW")
	procCreateWindowExW    = user32.NewProc("CreateWindowExW")
	procDestroyWindow      = user32.NewProc("DestroyWindow")
	procDefWindowProcW     = user32.NewProc("DefWindowProcW")
	procPostQuitMessage    = user32.NewProc("PostQuitMessage")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostMessageW       = user32.NewProc("PostMessageW")
	procGetModuleHandleW   = kernel32.NewProc("GetModuleHandleW")
)

const (
	wmDestroy = 0x0002
	wmHotkey  = 0x0312
	// Wakes the pump to drain the marshaled-call queue.
	wmWake = 0x8000 + 1 // WM_APP + 1

	errHotkeyAlreadyRegistered = 1409 // ERROR_HOTKEY_ALREADY_REGISTERED
	errClassAlreadyExists      = 1410 // ERROR_CLASS_ALREADY_EXISTS

	className = "DeskpinHotkeyWindow"
)

// HWND_MESSAGE parents a window into the message-only hierarchy: it
// receives dispatched messages but is never visible and never
// participates in z-order.
var hwndMessage = ^uintptr(2) // (HWND)-3

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

type wndClassEx struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     uintptr
	HIcon         uintptr
	HCursor       uintptr
	HbrBackground uintptr
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       uintptr
}

var wndProcCallback = syscall.NewCallback(wndProc)

func wndProc(hwnd, message, wparam, lparam uintptr) uintptr {
	if message == wmDestroy {
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, message, wparam, lparam)
	return ret
}

// windowsBackend owns a message-only window and its message pump.
// RegisterHotKey binds registrations to the creating thread, so every
// call is marshaled onto the pump goroutine via calls + a wake message.
type windowsBackend struct {
	hwnd  uintptr
	calls chan func()
	done  chan struct{}
	fire  func(id int)
}

func newPlatformBackend(fire func(id int)) (backend, error) {
	b := &windowsBackend{
		calls: make(chan func(), 4),
		done:  make(chan struct{}),
		fire:  fire,
	}

	ready := make(chan error, 1)
	go b.pump(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return b, nil
}

func (b *windowsBackend) Register(id int, mods Modifier, key Key) error {
	var err error
	b.do(func() {
		ret, _, callErr := procRegisterHotKey.Call(b.hwnd, uintptr(id), uintptr(mods), uintptr(key))
		if ret == 0 {
			if errno, ok := callErr.(syscall.Errno); ok && errno == errHotkeyAlreadyRegistered {
				err = ErrAlreadyTaken
			} else {
				err = fmt.Errorf("RegisterHotKey: %w", callErr)
			}
		}
	})
	return err
}

func (b *windowsBackend) Unregister(id int) error {
	var err error
	b.do(func() {
		ret, _, callErr := procUnregisterHotKey.Call(b.hwnd, uintptr(id))
		if ret == 0 {
			err = fmt.Errorf("UnregisterHotKey: %w", callErr)
		}
	})
	return err
}

func (b *windowsBackend) Close() error {
	b.do(func() {
		procDestroyWindow.Call(b.hwnd)
	})
	// WM_DESTROY posts the quit message; wait for the pump to drain.
	<-b.done
	return nil
}

// do runs f on the pump thread and waits for it to complete.
func (b *windowsBackend) do(f func()) {
	ran := make(chan struct{})
	b.calls <- func() {
		f()
		close(ran)
	}
	procPostMessageW.Call(b.hwnd, wmWake, 0, 0)
	<-ran
}

func (b *windowsBackend) pump(ready chan<- error) {
	// The window and all its registrations live on this thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(b.done)

	hwnd, err := createMessageWindow()
	if err != nil {
		ready <- err
		return
	}
	b.hwnd = hwnd
	ready <- nil

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			return // WM_QUIT or pump failure
		}

		switch m.Message {
		case wmHotkey:
			b.fire(int(m.WParam))
		case wmWake:
			b.drainCalls()
		default:
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		}
	}
}

func (b *windowsBackend) drainCalls() {
	for {
		select {
		case f := <-b.calls:
			f()
		default:
			return
		}
	}
}

func createMessageWindow() (uintptr, error) {
	hInstance, _, _ := procGetModuleHandleW.Call(0)

	classNamePtr, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return 0, err
	}

	wc := wndClassEx{
		LpfnWndProc:   wndProcCallback,
		HInstance:     hInstance,
		LpszClassName: classNamePtr,
	}
	wc.CbSize = uint32(unsafe.Sizeof(wc))

	ret, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	if ret == 0 {
		if errno, ok := callErr.(syscall.Errno); !ok || errno != errClassAlreadyExists {
			return 0, fmt.Errorf("RegisterClassEx: %w", callErr)
		}
	}

	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(classNamePtr)),
		0,
		0,
		0, 0, 0, 0,
		hwndMessage,
		0,
		hInstance,
		0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx: %w", callErr)
	}
	return hwnd, nil
}
