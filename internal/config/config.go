package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// Mode selects what the overlay shows.
const (
	ModeImage = "image"
	ModeMemo  = "memo"
)

type Config struct {
	Mode          string     `json:"mode"` // "image" or "memo"
	Hotkey        string     `json:"hotkey"`
	LastImagePath string     `json:"last_image_path"`
	Memo          MemoConfig `json:"memo"`

	// Overlay geometry: offset is relative to the target monitor's
	// top-left corner, size and alpha are percentages.
	OverlayX          int    `json:"overlay_x"`
	OverlayY          int    `json:"overlay_y"`
	OverlaySize       int    `json:"overlay_size"`
	OverlayAlpha      int    `json:"overlay_alpha"`
	TargetMonitorName string `json:"target_monitor_name"`

	Language string `json:"language"`
	Theme    string `json:"theme"`
	LogLevel string `json:"log_level"`
}

type MemoConfig struct {
	Text     string `json:"text"`
	FontSize int    `json:"font_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	// Default config
	cfg := &Config{
		Mode:   ModeImage,
		Hotkey: "Ctrl+Shift+O",
		Memo: MemoConfig{
			FontSize: 12,
			Width:    300,
			Height:   200,
		},
		OverlayX:     0,
		OverlayY:     0,
		OverlaySize:  100,
		OverlayAlpha: 100,
		Language:     "en",
		Theme:        "dark",
		LogLevel:     "info",
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "deskpin", "config.json")
}
