package app

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"deskpin/internal/config"
	"deskpin/internal/hotkey"
	"deskpin/internal/imaging"
	"deskpin/internal/lang"
	"deskpin/internal/monitor"
	"deskpin/internal/overlay"
	"deskpin/internal/preview"
)

// ToggleHotkeyID is the registry id bound to the show/hide shortcut.
// The registry delivers bare ids; the controller owns this mapping.
const ToggleHotkeyID = 1

// HotkeyRegistry is the slice of the hotkey registry the controller
// needs. *hotkey.Registry satisfies it.
type HotkeyRegistry interface {
	Register(id int, mods hotkey.Modifier, key hotkey.Key) error
	Unregister(id int) error
	SetHandler(h func(id int))
	Close() error
}

// StatusUpdater receives overlay state changes, typically the tray UI
// mirroring hotkey toggles into its checkbox.
type StatusUpdater interface {
	SetOverlayVisible(visible bool)
}

type Config struct {
	Hotkeys    HotkeyRegistry
	Positioner *overlay.Positioner
	Config     *config.Config
	Catalog    *lang.Catalog
	Logger     zerolog.Logger

	// StatusUpdater may be nil.
	StatusUpdater StatusUpdater

	// Enumerate is swapped for a fake in tests; nil means the real OS
	// enumeration.
	Enumerate func() (monitor.Snapshot, error)
}

// App wires hotkey events, monitor topology and the overlay
// positioner together. All overlay state changes funnel through its
// mutex, so callbacks from the tray and the hotkey dispatcher can
// arrive on any goroutine.
type App struct {
	hotkeys    HotkeyRegistry
	positioner *overlay.Positioner
	cfg        *config.Config
	catalog    *lang.Catalog
	log        zerolog.Logger
	enumerate  func() (monitor.Snapshot, error)
	status     StatusUpdater

	mu       sync.Mutex
	monitors monitor.Snapshot
	target   monitor.Monitor
	haveMon  bool
}

func New(cfg Config) *App {
	enum := cfg.Enumerate
	if enum == nil {
		enum = monitor.Enumerate
	}
	return &App{
		hotkeys:    cfg.Hotkeys,
		positioner: cfg.Positioner,
		cfg:        cfg.Config,
		catalog:    cfg.Catalog,
		log:        cfg.Logger,
		enumerate:  enum,
		status:     cfg.StatusUpdater,
	}
}

// Start restores persisted state: enumerates monitors, places the
// overlay from the saved geometry, and registers the toggle hotkey.
// A machine with no monitors is not fatal; the overlay stays hidden
// until a topology refresh finds one.
func (a *App) Start() error {
	a.hotkeys.SetHandler(a.OnHotkey)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.refreshMonitorsLocked(); err != nil {
		a.log.Warn().Err(err).Msg(a.catalog.Get("error_no_monitors", nil))
	} else {
		if err := a.placeFromConfigLocked(); err != nil {
			a.log.Error().Err(err).Msg("Failed to place overlay")
		}
	}

	mods, key, err := hotkey.ParseAccel(a.cfg.Hotkey)
	if err != nil {
		return fmt.Errorf("parsing hotkey %q: %w", a.cfg.Hotkey, err)
	}
	if err := a.hotkeys.Register(ToggleHotkeyID, mods|hotkey.ModNoRepeat, key); err != nil {
		return fmt.Errorf("registering %q: %w", a.cfg.Hotkey, err)
	}
	a.log.Info().Str("hotkey", a.cfg.Hotkey).Msg("Toggle hotkey registered")
	return nil
}

// OnHotkey maps pressed ids to actions. It runs on the hotkey
// dispatch goroutine, off the message thread.
func (a *App) OnHotkey(id int) {
	switch id {
	case ToggleHotkeyID:
		a.ToggleOverlay()
	default:
		a.log.Debug().Int("id", id).Msg("Unmapped hotkey id")
	}
}

// ToggleOverlay flips overlay visibility.
func (a *App) ToggleOverlay() {
	a.mu.Lock()
	var err error
	if a.positioner.Visible() {
		err = a.positioner.Hide()
	} else {
		err = a.positioner.Show()
	}
	visible := a.positioner.Visible()
	a.mu.Unlock()

	if err != nil {
		a.log.Error().Err(err).Msg("Toggling overlay")
		return
	}
	a.notifyVisible(visible)
	a.log.Info().Bool("visible", visible).Msg("Overlay toggled")
}

// SetOverlayEnabled shows or hides the overlay explicitly (tray
// checkbox), as opposed to the hotkey toggle.
func (a *App) SetOverlayEnabled(on bool) {
	a.mu.Lock()
	var err error
	if on {
		err = a.positioner.Show()
	} else {
		err = a.positioner.Hide()
	}
	a.mu.Unlock()

	if err != nil {
		a.log.Error().Err(err).Msg("Setting overlay visibility")
		return
	}
	a.notifyVisible(on)
}

// notifyVisible runs outside the mutex; the updater may call back
// into accessors.
func (a *App) notifyVisible(visible bool) {
	if a.status != nil {
		a.status.SetOverlayVisible(visible)
	}
}

// OverlayVisible reports the last requested visibility.
func (a *App) OverlayVisible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positioner.Visible()
}

// SetClickThrough switches pointer transparency on the overlay.
func (a *App) SetClickThrough(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.positioner.SetClickThrough(on); err != nil {
		a.log.Error().Err(err).Msg("Setting click-through")
	}
}

// ClickThrough reports the current click-through state.
func (a *App) ClickThrough() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positioner.ClickThrough()
}

// Monitors returns the current topology snapshot.
func (a *App) Monitors() monitor.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.monitors
}

// SelectMonitor re-targets the overlay at the monitor with the given
// device name, clamping the saved offset into the new bounds.
func (a *App) SelectMonitor(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.monitors.FindByID(id)
	if !ok {
		return fmt.Errorf("monitor %q not in current topology", id)
	}
	a.target = m
	a.haveMon = true
	a.cfg.TargetMonitorName = m.ID

	if err := a.placeFromConfigLocked(); err != nil {
		return err
	}
	if err := a.cfg.Save(); err != nil {
		a.log.Error().Err(err).Msg("Saving config")
	}
	return nil
}

// RefreshMonitors re-enumerates the topology, e.g. after a display
// change notification. A vanished target falls back to the primary.
func (a *App) RefreshMonitors() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.refreshMonitorsLocked(); err != nil {
		return err
	}
	return a.placeFromConfigLocked()
}

// CopyMemo puts the memo text on the system clipboard.
func (a *App) CopyMemo() error {
	a.mu.Lock()
	text := a.cfg.Memo.Text
	a.mu.Unlock()
	return clipboard.WriteAll(text)
}

// Shutdown releases the hotkey registrations and persists state.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.hotkeys.Close(); err != nil {
		a.log.Error().Err(err).Msg("Closing hotkey registry")
	}
	if pl, ok := a.positioner.Placement(); ok {
		a.cfg.OverlayX = pl.Offset.X
		a.cfg.OverlayY = pl.Offset.Y
		a.cfg.TargetMonitorName = pl.Monitor.ID
	}
	return a.cfg.Save()
}

// refreshMonitorsLocked captures a fresh snapshot and re-resolves the
// target monitor. Stale handles from the previous snapshot are never
// reused.
func (a *App) refreshMonitorsLocked() error {
	snap, err := a.enumerate()
	if err != nil {
		a.monitors = snap
		a.haveMon = false
		return err
	}
	a.monitors = snap

	vb := monitor.VirtualBounds()
	a.log.Debug().Int("monitors", len(snap)).
		Int("virtual_x", vb.X).Int("virtual_y", vb.Y).
		Int("virtual_w", vb.W).Int("virtual_h", vb.H).
		Msg("Monitor topology refreshed")

	if m, ok := snap.FindByID(a.cfg.TargetMonitorName); ok {
		a.target = m
		a.haveMon = true
		return nil
	}
	if m, ok := snap.Primary(); ok {
		if a.cfg.TargetMonitorName != "" {
			a.log.Warn().Str("monitor", a.cfg.TargetMonitorName).Msg("Saved monitor gone, using primary")
		}
		a.target = m
		a.haveMon = true
		return nil
	}
	a.haveMon = false
	return fmt.Errorf("empty monitor snapshot")
}

// placeFromConfigLocked computes the overlay placement from persisted
// geometry and applies it. The saved offset is clamped into the
// target monitor, so geometry saved on a larger display stays visible
// on a smaller one.
func (a *App) placeFromConfigLocked() error {
	if !a.haveMon {
		return fmt.Errorf("no target monitor")
	}

	w, h, kind, img, err := a.contentLocked()
	if err != nil {
		return err
	}

	monSize := preview.Size{W: a.target.Rect.W, H: a.target.Rect.H}
	offset := preview.ClampOffset(
		preview.RealPoint{X: a.cfg.OverlayX, Y: a.cfg.OverlayY},
		preview.Size{W: w, H: h},
		monSize,
	)

	alpha := a.cfg.OverlayAlpha
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 100 {
		alpha = 100
	}

	if err := a.positioner.Place(overlay.Placement{
		Monitor: a.target,
		Offset:  overlay.Point{X: offset.X, Y: offset.Y},
		Size:    overlay.Size{W: w, H: h},
		Alpha:   uint8(alpha * 255 / 100),
		Kind:    kind,
	}); err != nil {
		return err
	}

	// The surface paints the image pre-scaled to the placement size;
	// memo mode has no image and clears any previous one.
	if kind == overlay.KindImage {
		return a.positioner.SetContent(imaging.Scale(img, w, h))
	}
	return a.positioner.SetContent(nil)
}

func (a *App) contentLocked() (int, int, overlay.ContentKind, image.Image, error) {
	if a.cfg.Mode == config.ModeMemo {
		w, hgt := a.cfg.Memo.Width, a.cfg.Memo.Height
		if w < 1 || hgt < 1 {
			w, hgt = 300, 200
		}
		return w, hgt, overlay.KindMemo, nil, nil
	}

	if a.cfg.LastImagePath == "" {
		return 0, 0, overlay.KindImage, nil, fmt.Errorf("no image selected")
	}
	img, err := imaging.Load(a.cfg.LastImagePath)
	if err != nil {
		return 0, 0, overlay.KindImage, nil, fmt.Errorf("%s: %w",
			a.catalog.Get("error_loading_image_failed", map[string]string{
				"filename": filepath.Base(a.cfg.LastImagePath),
			}), err)
	}
	w, hgt := imaging.SizeFor(img, a.cfg.OverlaySize)
	return w, hgt, overlay.KindImage, img, nil
}
