// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Daemon configuration: defaults, YAML file loading, validation.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const configName = "lumen.yaml"

// Config is the daemon configuration. Flags override file values; file
// values override defaults.
type Config struct {
	// Socket is the unix socket path protocol clients connect to.
	Socket string `yaml:"socket"`
	// FrameRateHz fixes the render tick frequency.
	FrameRateHz int `yaml:"frame_rate_hz"`
	// Backend selects the display device: "drm" or "sim".
	Backend string `yaml:"backend"`
	// Engine names the registered render engine to drive.
	Engine string `yaml:"engine"`
	// DRMNode pins a card node; empty probes /dev/dri/card*.
	DRMNode string `yaml:"drm_node"`
	// SwapchainDepth is the scanout buffer pool size.
	SwapchainDepth int `yaml:"swapchain_depth"`
	// ReservedKey is the evdev keycode that shuts the runtime down.
	ReservedKey uint16 `yaml:"reserved_key"`
	// StatePath locates the sqlite state database ("" disables it).
	StatePath string `yaml:"state_path"`
	// VerboseLogs enables debug-level logging.
	VerboseLogs bool `yaml:"verbose_logs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Socket:         "/run/lumen/lumen.sock",
		FrameRateHz:    144,
		Backend:        "drm",
		Engine:         "pattern",
		SwapchainDepth: 3,
		ReservedKey:    1, // KEY_ESC
		StatePath:      filepath.Join(stateDir(), "lumen.db"),
	}
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "lumen")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/lumen"
	}
	return filepath.Join(home, ".local", "state", "lumen")
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lumen", configName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/etc/lumen", configName)
	}
	return filepath.Join(home, ".config", "lumen", configName)
}

// Load reads the file over the defaults. A missing file is not an error;
// the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the runtime cannot operate with.
func (c Config) Validate() error {
	if c.FrameRateHz < 1 || c.FrameRateHz > 1000 {
		return fmt.Errorf("config: frame rate %d out of range 1..1000", c.FrameRateHz)
	}
	if c.Backend != "drm" && c.Backend != "sim" {
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.SwapchainDepth < 2 || c.SwapchainDepth > 8 {
		return fmt.Errorf("config: swapchain depth %d out of range 2..8", c.SwapchainDepth)
	}
	if c.Socket == "" {
		return fmt.Errorf("config: empty socket path")
	}
	return nil
}

// FrameInterval converts the configured rate to the tick interval.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRateHz)
}
