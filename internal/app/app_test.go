package app

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"deskpin/internal/config"
	"deskpin/internal/hotkey"
	"deskpin/internal/lang"
	"deskpin/internal/monitor"
	"deskpin/internal/overlay"
)

// Mock implementations for testing
type mockRegistry struct {
	handler     func(id int)
	registered  map[int]struct{}
	registerErr error
	closed      bool
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{registered: make(map[int]struct{})}
}

func (m *mockRegistry) Register(id int, mods hotkey.Modifier, key hotkey.Key) error {
	if m.registerErr != nil {
		return m.registerErr
	}
	m.registered[id] = struct{}{}
	return nil
}

func (m *mockRegistry) Unregister(id int) error {
	delete(m.registered, id)
	return nil
}

func (m *mockRegistry) SetHandler(h func(id int)) {
	m.handler = h
}

func (m *mockRegistry) Close() error {
	m.closed = true
	return nil
}

type mockSurface struct {
	placements []monitor.Rect
	contents   []image.Image
	visible    bool
}

func (m *mockSurface) ApplyPlacement(rect monitor.Rect) error {
	m.placements = append(m.placements, rect)
	return nil
}

func (m *mockSurface) ApplyContent(img image.Image) error {
	m.contents = append(m.contents, img)
	return nil
}

func (m *mockSurface) ApplyAlpha(alpha uint8) error    { return nil }
func (m *mockSurface) ApplyClickThrough(on bool) error { return nil }
func (m *mockSurface) SetVisible(on bool) error        { m.visible = on; return nil }

func testMonitors() monitor.Snapshot {
	return monitor.Snapshot{
		{ID: `\\.\DISPLAY1`, Rect: monitor.Rect{X: 0, Y: 0, W: 1920, H: 1080}, Primary: true},
		{ID: `\\.\DISPLAY2`, Rect: monitor.Rect{X: 1920, Y: 0, W: 2560, H: 1440}},
	}
}

func testCatalog(t *testing.T) *lang.Catalog {
	t.Helper()
	c, err := lang.Load("en")
	if err != nil {
		t.Fatalf("lang.Load: %v", err)
	}
	return c
}

func memoConfig() *config.Config {
	return &config.Config{
		Mode:         config.ModeMemo,
		Hotkey:       "Ctrl+Shift+O",
		Memo:         config.MemoConfig{Text: "note", Width: 300, Height: 200},
		OverlaySize:  100,
		OverlayAlpha: 100,
	}
}

func newTestApp(t *testing.T, cfg *config.Config, reg *mockRegistry, surface *mockSurface) *App {
	t.Helper()
	// Config.Save writes under APPDATA/XDG; point it at a sandbox.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	pos := overlay.NewPositioner(zerolog.Nop())
	if surface != nil {
		if err := pos.Attach(surface); err != nil {
			t.Fatalf("Attach: %v", err)
		}
	}
	return New(Config{
		Hotkeys:    reg,
		Positioner: pos,
		Config:     cfg,
		Catalog:    testCatalog(t),
		Logger:     zerolog.Nop(),
		Enumerate:  func() (monitor.Snapshot, error) { return testMonitors(), nil },
	})
}

func TestStartRegistersToggleHotkey(t *testing.T) {
	reg := newMockRegistry()
	a := newTestApp(t, memoConfig(), reg, &mockSurface{})

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok := reg.registered[ToggleHotkeyID]; !ok {
		t.Error("toggle hotkey not registered")
	}
	if reg.handler == nil {
		t.Error("hotkey handler not installed")
	}
}

func TestStartRejectsBadAccel(t *testing.T) {
	cfg := memoConfig()
	cfg.Hotkey = "Ctrl+Nope"
	a := newTestApp(t, cfg, newMockRegistry(), &mockSurface{})

	if err := a.Start(); err == nil {
		t.Fatal("Start should fail on an unknown key name")
	}
}

func TestHotkeyTogglesOverlay(t *testing.T) {
	reg := newMockRegistry()
	surface := &mockSurface{}
	a := newTestApp(t, memoConfig(), reg, surface)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	reg.handler(ToggleHotkeyID)
	if !surface.visible {
		t.Fatal("first toggle should show the overlay")
	}
	reg.handler(ToggleHotkeyID)
	if surface.visible {
		t.Fatal("second toggle should hide the overlay")
	}

	// Unmapped ids do nothing.
	reg.handler(99)
	if surface.visible {
		t.Fatal("unmapped id must not change visibility")
	}
}

func TestStartPlacesMemoFromConfig(t *testing.T) {
	cfg := memoConfig()
	cfg.OverlayX = 50
	cfg.OverlayY = 60
	surface := &mockSurface{}
	a := newTestApp(t, cfg, newMockRegistry(), surface)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if len(surface.placements) == 0 {
		t.Fatal("Start did not place the overlay")
	}
	got := surface.placements[len(surface.placements)-1]
	want := monitor.Rect{X: 50, Y: 60, W: 300, H: 200}
	if got != want {
		t.Errorf("placement = %+v, want %+v", got, want)
	}
}

func TestSavedOffsetClampedIntoMonitor(t *testing.T) {
	// Geometry saved on a larger display must stay inside the current
	// one: size preserved, position pinned to the far edge.
	cfg := memoConfig()
	cfg.OverlayX = 5000
	cfg.OverlayY = 2000
	surface := &mockSurface{}
	a := newTestApp(t, cfg, newMockRegistry(), surface)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := surface.placements[len(surface.placements)-1]
	want := monitor.Rect{X: 1620, Y: 880, W: 300, H: 200}
	if got != want {
		t.Errorf("placement = %+v, want %+v", got, want)
	}
}

func TestSelectMonitorConvertsOrigin(t *testing.T) {
	cfg := memoConfig()
	surface := &mockSurface{}
	a := newTestApp(t, cfg, newMockRegistry(), surface)
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := a.SelectMonitor(`\\.\DISPLAY2`); err != nil {
		t.Fatalf("SelectMonitor: %v", err)
	}

	got := surface.placements[len(surface.placements)-1]
	// DISPLAY2 starts at virtual x=1920.
	if got.X != 1920 || got.Y != 0 {
		t.Errorf("placement origin = (%d,%d), want (1920,0)", got.X, got.Y)
	}
	if cfg.TargetMonitorName != `\\.\DISPLAY2` {
		t.Errorf("target not persisted: %q", cfg.TargetMonitorName)
	}
}

func TestSelectMonitorUnknownID(t *testing.T) {
	a := newTestApp(t, memoConfig(), newMockRegistry(), &mockSurface{})
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.SelectMonitor(`\\.\DISPLAY9`); err == nil {
		t.Error("selecting a vanished monitor must fail loudly")
	}
}

func TestVanishedMonitorFallsBackToPrimary(t *testing.T) {
	cfg := memoConfig()
	cfg.TargetMonitorName = `\\.\DISPLAY7` // no longer attached
	surface := &mockSurface{}
	a := newTestApp(t, cfg, newMockRegistry(), surface)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := surface.placements[len(surface.placements)-1]
	if got.X != 0 || got.Y != 0 {
		t.Errorf("fallback placement origin = (%d,%d), want primary (0,0)", got.X, got.Y)
	}
}

func TestImageModePlacesScaledImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pin.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 400, 300))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg := memoConfig()
	cfg.Mode = config.ModeImage
	cfg.LastImagePath = path
	cfg.OverlaySize = 50
	surface := &mockSurface{}
	a := newTestApp(t, cfg, newMockRegistry(), surface)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := surface.placements[len(surface.placements)-1]
	if got.W != 200 || got.H != 150 {
		t.Errorf("image placement size = %dx%d, want 200x150", got.W, got.H)
	}

	// The surface receives the image pre-scaled to the placement size.
	if len(surface.contents) == 0 {
		t.Fatal("no content handed to the surface")
	}
	content := surface.contents[len(surface.contents)-1]
	if content == nil {
		t.Fatal("image mode handed nil content to the surface")
	}
	b := content.Bounds()
	if b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("content size = %dx%d, want 200x150", b.Dx(), b.Dy())
	}
}

func TestMemoModeClearsContent(t *testing.T) {
	surface := &mockSurface{}
	a := newTestApp(t, memoConfig(), newMockRegistry(), surface)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if len(surface.contents) == 0 {
		t.Fatal("memo placement did not touch surface content")
	}
	if surface.contents[len(surface.contents)-1] != nil {
		t.Error("memo mode must clear surface content")
	}
}

type mockStatus struct {
	seen []bool
}

func (m *mockStatus) SetOverlayVisible(visible bool) {
	m.seen = append(m.seen, visible)
}

func TestStatusUpdaterSeesToggles(t *testing.T) {
	reg := newMockRegistry()
	status := &mockStatus{}
	pos := overlay.NewPositioner(zerolog.Nop())
	if err := pos.Attach(&mockSurface{}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	a := New(Config{
		Hotkeys:       reg,
		Positioner:    pos,
		Config:        memoConfig(),
		Catalog:       testCatalog(t),
		Logger:        zerolog.Nop(),
		StatusUpdater: status,
		Enumerate:     func() (monitor.Snapshot, error) { return testMonitors(), nil },
	})
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	a.ToggleOverlay()
	a.ToggleOverlay()
	a.SetOverlayEnabled(true)

	want := []bool{true, false, true}
	if len(status.seen) != len(want) {
		t.Fatalf("status updates = %v, want %v", status.seen, want)
	}
	for i, v := range want {
		if status.seen[i] != v {
			t.Fatalf("status updates = %v, want %v", status.seen, want)
		}
	}
}

func TestShutdownClosesRegistry(t *testing.T) {
	reg := newMockRegistry()
	cfg := memoConfig()
	a := newTestApp(t, cfg, reg, &mockSurface{})
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !reg.closed {
		t.Error("Shutdown must close the hotkey registry")
	}
}
