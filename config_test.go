package paperstack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, DefaultColor, cfg.Viewer.DefaultColor)
	assert.Equal(t, DefaultFitPadding, cfg.Viewer.FitPadding)
	assert.NotEmpty(t, cfg.LibraryRoot)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
library_root = "/tmp/papers"

[server]
host = "0.0.0.0"
port = 8080

[viewer]
default_color = "#ff0000"
fit_padding = 48.0
raster_cache = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/papers", cfg.LibraryRoot)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "#ff0000", cfg.Viewer.DefaultColor)
	assert.Equal(t, 48.0, cfg.Viewer.FitPadding)
	assert.Equal(t, 8, cfg.Viewer.RasterCache)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAPERSTACK_HOME", "/srv/papers")
	t.Setenv("PAPERSTACK_PORT", "9999")
	t.Setenv("PAPERSTACK_COLOR", "#00ff00")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/papers", cfg.LibraryRoot)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "#00ff00", cfg.Viewer.DefaultColor)
}

func TestEnvOverrideBadPortIgnored(t *testing.T) {
	t.Setenv("PAPERSTACK_PORT", "not-a-port")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"empty root", func(c *Config) { c.LibraryRoot = "" }, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too big", func(c *Config) { c.Server.Port = 70000 }, false},
		{"bad color", func(c *Config) { c.Viewer.DefaultColor = "yellow" }, false},
		{"short hex", func(c *Config) { c.Viewer.DefaultColor = "#fb3" }, true},
		{"negative padding", func(c *Config) { c.Viewer.FitPadding = -1 }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(cfg)
			err := cfg.Validate()
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidHexColor(t *testing.T) {
	assert.True(t, validHexColor("#ffeb3b"))
	assert.True(t, validHexColor("#FB3"))
	assert.False(t, validHexColor("ffeb3b"))
	assert.False(t, validHexColor("#ffeb3"))
	assert.False(t, validHexColor("#zzzzzz"))
	assert.False(t, validHexColor(""))
}
