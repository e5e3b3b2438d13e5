package tray

import (
	"context"
	"fmt"
	"strconv"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"deskpin/internal/app"
	"deskpin/internal/config"
	"deskpin/internal/lang"
	"deskpin/internal/monitor"
)

type UI struct {
	app     *app.App
	cfg     *config.Config
	catalog *lang.Catalog
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mEnable       *systray.MenuItem
	mClickThrough *systray.MenuItem
	mMonitors     *systray.MenuItem
	mCopyMemo     *systray.MenuItem
}

func New(application *app.App, cfg *config.Config, catalog *lang.Catalog, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		app:     application,
		cfg:     cfg,
		catalog: catalog,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	systray.SetTitle("📌")
	systray.SetTooltip(u.catalog.Get("tray_tooltip", nil))

	// Build menu
	u.mEnable = systray.AddMenuItemCheckbox(
		u.catalog.Get("menu_enable_overlay", nil), "", u.app.OverlayVisible())
	u.mClickThrough = systray.AddMenuItemCheckbox(
		u.catalog.Get("menu_click_through", nil), "", u.app.ClickThrough())
	systray.AddSeparator()

	u.mMonitors = systray.AddMenuItem(u.catalog.Get("menu_monitor", nil), "")
	u.buildMonitorMenu()

	systray.AddSeparator()
	u.mCopyMemo = systray.AddMenuItem(u.catalog.Get("menu_copy_memo", nil), "")
	mAbout := systray.AddMenuItem(u.catalog.Get("menu_about", nil), "")
	mQuit := systray.AddMenuItem(u.catalog.Get("menu_quit", nil), "")

	// Event loop
	go u.handleEvents(mAbout, mQuit)
}

func (u *UI) handleEvents(mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mEnable.ClickedCh:
			u.toggleOverlay()
		case <-u.mClickThrough.ClickedCh:
			u.toggleClickThrough()
		case <-u.mCopyMemo.ClickedCh:
			if err := u.app.CopyMemo(); err != nil {
				u.log.Error().Err(err).Msg("Failed to copy memo")
			}
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) buildMonitorMenu() {
	monitors := u.app.Monitors()
	if len(monitors) == 0 {
		u.mMonitors.Disable()
		return
	}

	monitorItems := make(map[string]*systray.MenuItem)

	for i, mon := range monitors {
		item := u.mMonitors.AddSubMenuItem(u.monitorLabel(i, mon), "")
		if mon.ID == u.cfg.TargetMonitorName {
			item.Check()
		}
		monitorItems[mon.ID] = item

		go func(monID, label string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				if err := u.app.SelectMonitor(monID); err != nil {
					u.log.Error().Err(err).Str("monitor", monID).Msg("Failed to select monitor")
					continue
				}
				// Uncheck all other items
				for id, itm := range monitorItems {
					if id != monID {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.log.Info().Str("monitor", label).Msg("Changed target monitor")
			}
		}(mon.ID, u.monitorLabel(i, mon), item)
	}
}

func (u *UI) monitorLabel(index int, mon monitor.Monitor) string {
	key := "monitor_entry"
	if mon.Primary {
		key = "monitor_entry_primary"
	}
	return u.catalog.Get(key, map[string]string{
		"index":  strconv.Itoa(index + 1),
		"name":   mon.ID,
		"width":  strconv.Itoa(mon.Rect.W),
		"height": strconv.Itoa(mon.Rect.H),
	})
}

func (u *UI) toggleOverlay() {
	on := !u.app.OverlayVisible()
	// Checkbox state comes back through SetOverlayVisible.
	u.app.SetOverlayEnabled(on)
	u.log.Info().Bool("visible", on).Msg("Overlay visibility changed from tray")
}

func (u *UI) toggleClickThrough() {
	on := !u.app.ClickThrough()
	u.app.SetClickThrough(on)
	if on {
		u.mClickThrough.Check()
	} else {
		u.mClickThrough.Uncheck()
	}
	u.log.Info().Bool("click_through", on).Msg("Changed click-through")
}

// SetOverlayVisible mirrors hotkey toggles into the tray checkbox.
// Called by the app on any goroutine, possibly before onReady builds
// the menu.
func (u *UI) SetOverlayVisible(visible bool) {
	if u.mEnable == nil {
		return
	}
	if visible {
		u.mEnable.Check()
	} else {
		u.mEnable.Uncheck()
	}
}

func (u *UI) showAbout() {
	fmt.Printf("%s %s (%s)\n%s\n",
		u.catalog.Get("app_title", nil), u.version, u.commit,
		u.catalog.Get("tray_tooltip", nil))
}

func (u *UI) onExit() {
	// Cleanup
}
