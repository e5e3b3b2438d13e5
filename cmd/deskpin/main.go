package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"deskpin/internal/app"
	"deskpin/internal/config"
	"deskpin/internal/hotkey"
	"deskpin/internal/lang"
	"deskpin/internal/logging"
	"deskpin/internal/overlay"
	"deskpin/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	catalog, err := lang.Load(cfg.Language)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load language catalog")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize hotkey registry
	hotkeys := hotkey.New(log)

	// The positioner buffers placement and visibility until a native
	// surface attaches, so a failed surface keeps the app usable.
	positioner := overlay.NewPositioner(log)
	if surface, err := overlay.NewSurface(); err != nil {
		log.Warn().Err(err).Msg("Overlay surface unavailable")
	} else if err := positioner.Attach(surface); err != nil {
		log.Error().Err(err).Msg("Failed to attach overlay surface")
	}
	if !positioner.Attached() {
		log.Warn().Msg("Running detached: overlay state buffers until a surface attaches")
	}

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, catalog, log, Version, Commit) // App reference set below

	// Create app with tray as status updater
	application := app.New(app.Config{
		Hotkeys:       hotkeys,
		Positioner:    positioner,
		Config:        cfg,
		Catalog:       catalog,
		Logger:        log,
		StatusUpdater: trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	if err := application.Start(); err != nil {
		if errors.Is(err, hotkey.ErrAlreadyTaken) {
			log.Fatal().Err(err).Msg(catalog.Get("error_hotkey_taken",
				map[string]string{"accel": cfg.Hotkey}))
		}
		log.Fatal().Err(err).Msg("Failed to start")
	}

	log.Info().Str("version", Version).Msg("deskpin starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
