// Package config loads daemon settings from a TOML file with environment
// overrides. It stands in for the desktop settings store the indicator
// would otherwise read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Sonath21/spotify-controls/internal/mpris"
)

const (
	defaultBusName              = "org.mpris.MediaPlayer2.spotify"
	defaultMetadataAttempts     = 3
	defaultMetadataRetryDelayMS = 500
	defaultRenderDebounceMS     = 200
)

// Config holds all daemon settings.
type Config struct {
	Player   PlayerConfig   `toml:"player"`
	Metadata MetadataConfig `toml:"metadata"`
	Render   RenderConfig   `toml:"render"`
}

// PlayerConfig selects the watched player.
type PlayerConfig struct {
	// BusName is the well-known MPRIS name of the watched player.
	BusName string `toml:"bus_name"`
}

// MetadataConfig tunes the initial metadata fetch.
type MetadataConfig struct {
	// FetchAttempts bounds the initial metadata retry loop.
	FetchAttempts int `toml:"fetch_attempts"`
	// RetryDelayMS is the fixed backoff between attempts, in milliseconds.
	RetryDelayMS int `toml:"retry_delay_ms"`
}

// RenderConfig tunes the terminal renderer.
type RenderConfig struct {
	// DebounceMS is how long the renderer waits for updates to settle.
	DebounceMS int `toml:"debounce_ms"`
}

// Load reads configuration from path, or from the standard location when
// path is empty, then applies defaults and environment overrides
// (SPOTIFY_CONTROLS_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MetadataRetryDelay returns the configured backoff as a duration.
func (c *Config) MetadataRetryDelay() time.Duration {
	return time.Duration(c.Metadata.RetryDelayMS) * time.Millisecond
}

// RenderDebounce returns the configured render debounce as a duration.
func (c *Config) RenderDebounce() time.Duration {
	return time.Duration(c.Render.DebounceMS) * time.Millisecond
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	if err := mpris.ValidateBusName(c.Player.BusName); err != nil {
		return fmt.Errorf("player.bus_name: %w", err)
	}
	if c.Metadata.FetchAttempts < 1 {
		return fmt.Errorf("metadata.fetch_attempts must be at least 1, got %d", c.Metadata.FetchAttempts)
	}
	if c.Metadata.RetryDelayMS < 0 {
		return fmt.Errorf("metadata.retry_delay_ms must not be negative, got %d", c.Metadata.RetryDelayMS)
	}
	if c.Render.DebounceMS < 0 {
		return fmt.Errorf("render.debounce_ms must not be negative, got %d", c.Render.DebounceMS)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Player.BusName == "" {
		c.Player.BusName = defaultBusName
	}
	if c.Metadata.FetchAttempts == 0 {
		c.Metadata.FetchAttempts = defaultMetadataAttempts
	}
	if c.Metadata.RetryDelayMS == 0 {
		c.Metadata.RetryDelayMS = defaultMetadataRetryDelayMS
	}
	if c.Render.DebounceMS == 0 {
		c.Render.DebounceMS = defaultRenderDebounceMS
	}
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		xdgConfig = filepath.Join(home, ".config")
	}

	path := filepath.Join(xdgConfig, "spotify-controls", "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPOTIFY_CONTROLS_BUS_NAME"); v != "" {
		cfg.Player.BusName = v
	}
	if v := os.Getenv("SPOTIFY_CONTROLS_METADATA_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Metadata.FetchAttempts = n
		}
	}
	if v := os.Getenv("SPOTIFY_CONTROLS_RETRY_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Metadata.RetryDelayMS = n
		}
	}
	if v := os.Getenv("SPOTIFY_CONTROLS_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.DebounceMS = n
		}
	}
}
