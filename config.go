package paperstack

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds CLI and server settings. Values come from an optional TOML
// file, overridden by PAPERSTACK_* environment variables.
type Config struct {
	// LibraryRoot is where the sqlite index and imported PDFs live.
	LibraryRoot string `toml:"library_root"`

	Server ServerConfig `toml:"server"`
	Viewer ViewerConfig `toml:"viewer"`
}

// ServerConfig configures the annotation/document server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ViewerConfig configures viewer sessions.
type ViewerConfig struct {
	// RemoteURL is the annotation server a standalone viewer syncs against.
	RemoteURL string `toml:"remote_url"`

	// DefaultColor is the initial highlight color.
	DefaultColor string `toml:"default_color"`

	// FitPadding is subtracted from the viewport width on fit-width.
	FitPadding float64 `toml:"fit_padding"`

	// RasterCache is the number of rendered pages kept per session.
	RasterCache int `toml:"raster_cache"`
}

// DefaultConfig returns the built-in settings: library under ~/.paperstack,
// server on 127.0.0.1:5000.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LibraryRoot: filepath.Join(home, ".paperstack"),
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 5000,
		},
		Viewer: ViewerConfig{
			RemoteURL:    "http://127.0.0.1:5000",
			DefaultColor: DefaultColor,
			FitPadding:   DefaultFitPadding,
			RasterCache:  16,
		},
	}
}

// LoadConfig reads the TOML file at path on top of the defaults. An empty
// path means <LibraryRoot>/config.toml; a missing file is not an error.
// Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = filepath.Join(cfg.LibraryRoot, "config.toml")
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies PAPERSTACK_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PAPERSTACK_HOME"); v != "" {
		c.LibraryRoot = v
	}
	if v := os.Getenv("PAPERSTACK_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PAPERSTACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("PAPERSTACK_REMOTE_URL"); v != "" {
		c.Viewer.RemoteURL = v
	}
	if v := os.Getenv("PAPERSTACK_COLOR"); v != "" {
		c.Viewer.DefaultColor = v
	}
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if c.LibraryRoot == "" {
		return fmt.Errorf("config: library_root must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if !validHexColor(c.Viewer.DefaultColor) {
		return fmt.Errorf("config: default_color %q is not a hex color", c.Viewer.DefaultColor)
	}
	if c.Viewer.FitPadding < 0 {
		return fmt.Errorf("config: fit_padding must not be negative")
	}
	return nil
}

func validHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	for _, r := range hex {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
