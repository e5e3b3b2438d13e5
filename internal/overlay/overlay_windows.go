//go:build windows

package overlay

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sys/windows"

	"deskpin/internal/monitor"
)

var (
	user32                         = syscall.NewLazyDLL("user32.dll")
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procBeginPaint                 = user32.NewProc("BeginPaint")
	procEndPaint                   = user32.NewProc("EndPaint")
	procInvalidateRect             = user32.NewProc("InvalidateRect")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procGetModuleHandleW           = kernel32.NewProc("GetModuleHandleW")

	gdi32             = syscall.NewLazyDLL("gdi32.dll")
	procStretchDIBits = gdi32.NewProc("StretchDIBits")
)

const (
	wsPopup         = 0x80000000
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExTopmost     = 0x00000008
	wsExNoActivate  = 0x08000000

	gwlExStyle = ^uintptr(19) // GWL_EXSTYLE = -20

	lwaAlpha = 0x2

	swpNoActivate = 0x0010
	swpNoZOrder   = 0x0004

	swHide           = 0
	swShowNoActivate = 4

	wmClose   = 0x0010
	wmDestroy = 0x0002
	wmPaint   = 0x000F

	srcCopy      = 0x00CC0020
	dibRGBColors = 0

	errClassAlreadyExists = 1410

	overlayClassName = "DeskpinOverlayWindow"
)

var hwndTopmost = ^uintptr(0) // (HWND)-1

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

type rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type paintStruct struct {
	Hdc         uintptr
	FErase      int32
	RcPaint     rect
	FRestore    int32
	FIncUpdate  int32
	RgbReserved [32]byte
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
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

var overlayWndProcCallback = syscall.NewCallback(overlayWndProc)

// activeSurface is the single overlay window; the window procedure
// has no per-window state pointer, so painting goes through it.
var activeSurface *windowSurface

func overlayWndProc(hwnd, message, wparam, lparam uintptr) uintptr {
	switch message {
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	case wmPaint:
		if s := activeSurface; s != nil {
			s.paint(hwnd)
			return 0
		}
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, message, wparam, lparam)
	return ret
}

// windowSurface drives a borderless layered topmost tool window. The
// window is created hidden; the positioner decides when it shows.
type windowSurface struct {
	hwnd uintptr
	done chan struct{}

	// Content pixels in top-down BGRA order, painted on WM_PAINT.
	// ApplyContent writes on the caller's goroutine, paint reads on
	// the pump thread.
	mu   sync.Mutex
	pix  []byte
	pixW int
	pixH int
}

// NewSurface creates the native overlay window and starts its message
// pump on a dedicated OS thread. The window starts hidden at zero size.
func NewSurface() (Surface, error) {
	s := &windowSurface{done: make(chan struct{})}
	activeSurface = s

	ready := make(chan error, 1)
	go s.pump(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *windowSurface) pump(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	hwnd, err := createOverlayWindow()
	if err != nil {
		ready <- err
		return
	}
	s.hwnd = hwnd
	ready <- nil

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// ApplyPlacement moves the window to the given virtual-desktop
// rectangle, keeping it topmost and never stealing focus.
func (s *windowSurface) ApplyPlacement(rect monitor.Rect) error {
	ret, _, err := procSetWindowPos.Call(
		s.hwnd,
		hwndTopmost,
		uintptr(int32(rect.X)),
		uintptr(int32(rect.Y)),
		uintptr(int32(rect.W)),
		uintptr(int32(rect.H)),
		swpNoActivate,
	)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

func (s *windowSurface) ApplyAlpha(alpha uint8) error {
	ret, _, err := procSetLayeredWindowAttributes.Call(s.hwnd, 0, uintptr(alpha), lwaAlpha)
	if ret == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", err)
	}
	return nil
}

// ApplyClickThrough sets or clears WS_EX_TRANSPARENT while keeping the
// window layered. The extended style is read fresh and rewritten every
// call; external style changes make cached state unreliable.
func (s *windowSurface) ApplyClickThrough(on bool) error {
	style, _, _ := procGetWindowLongPtrW.Call(s.hwnd, gwlExStyle)

	style |= wsExLayered
	if on {
		style |= wsExTransparent
	} else {
		style &^= wsExTransparent
	}

	ret, _, err := procSetWindowLongPtrW.Call(s.hwnd, gwlExStyle, style)
	if ret == 0 {
		// SetWindowLongPtr legitimately returns 0 when the previous
		// style value was 0; disambiguate via the error code.
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return fmt.Errorf("SetWindowLongPtr: %w", err)
		}
	}
	return nil
}

// ApplyContent stores the image as a top-down BGRA pixel buffer and
// schedules a repaint. Nil clears the buffer so the window paints its
// background only.
func (s *windowSurface) ApplyContent(img image.Image) error {
	var pix []byte
	var w, h int
	if img != nil {
		rgba, ok := img.(*image.RGBA)
		if !ok {
			b := img.Bounds()
			rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
			xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
		}
		w, h = rgba.Rect.Dx(), rgba.Rect.Dy()
		pix = make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			src := rgba.Pix[y*rgba.Stride:]
			dst := pix[y*w*4:]
			for x := 0; x < w; x++ {
				// RGBA -> BGRA
				dst[x*4] = src[x*4+2]
				dst[x*4+1] = src[x*4+1]
				dst[x*4+2] = src[x*4]
				dst[x*4+3] = src[x*4+3]
			}
		}
	}

	s.mu.Lock()
	s.pix = pix
	s.pixW = w
	s.pixH = h
	s.mu.Unlock()

	procInvalidateRect.Call(s.hwnd, 0, 1)
	return nil
}

// paint runs on the pump thread inside WM_PAINT, stretching the
// content buffer over the client area.
func (s *windowSurface) paint(hwnd uintptr) {
	var ps paintStruct
	hdc, _, _ := procBeginPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
	defer procEndPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
	if hdc == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pix) == 0 {
		return
	}

	var rc rect
	procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc)))

	bi := bitmapInfoHeader{
		Width:    int32(s.pixW),
		Height:   -int32(s.pixH), // negative = top-down rows
		Planes:   1,
		BitCount: 32,
	}
	bi.Size = uint32(unsafe.Sizeof(bi))

	procStretchDIBits.Call(
		hdc,
		0, 0,
		uintptr(rc.Right-rc.Left), uintptr(rc.Bottom-rc.Top),
		0, 0,
		uintptr(s.pixW), uintptr(s.pixH),
		uintptr(unsafe.Pointer(&s.pix[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
		srcCopy,
	)
}

func (s *windowSurface) SetVisible(on bool) error {
	cmd := uintptr(swHide)
	if on {
		cmd = swShowNoActivate
	}
	procShowWindow.Call(s.hwnd, cmd)
	return nil
}

// Close destroys the window and waits for the pump to exit. The
// destroy is posted because DestroyWindow only works from the thread
// that created the window.
func (s *windowSurface) Close() error {
	procPostMessageW.Call(s.hwnd, wmClose, 0, 0)
	<-s.done
	return nil
}

func createOverlayWindow() (uintptr, error) {
	hInstance, _, _ := procGetModuleHandleW.Call(0)

	classNamePtr, err := windows.UTF16PtrFromString(overlayClassName)
	if err != nil {
		return 0, err
	}

	wc := wndClassEx{
		LpfnWndProc:   overlayWndProcCallback,
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
		wsExLayered|wsExToolWindow|wsExTopmost|wsExNoActivate,
		uintptr(unsafe.Pointer(classNamePtr)),
		0,
		wsPopup,
		0, 0, 0, 0,
		0,
		0,
		hInstance,
		0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx: %w", callErr)
	}
	return hwnd, nil
}
