// Package config provides application configuration management for colorgorical.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wethinkt/go-colorgorical/internal/catalog"
	"github.com/wethinkt/go-colorgorical/internal/jnd"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

// HomeEnv overrides the configuration directory.
const HomeEnv = "COLORGORICAL_HOME"

// Config holds the colorgorical configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Palette   PaletteConfig   `toml:"palette"`
	Store     StoreConfig     `toml:"store"`
	Reference ReferenceConfig `toml:"reference"`
	LogFile   string          `toml:"log_file"` // Empty disables file logging
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	CORSOrigin string `toml:"cors_origin"` // Empty disables CORS headers
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CatalogConfig selects the color table.
type CatalogConfig struct {
	Path         string `toml:"path"`          // CSV table; empty generates the grid
	ExpectedSize int    `toml:"expected_size"` // Exact row count of a loaded table, 0 = any
}

// PaletteConfig holds request defaults.
type PaletteConfig struct {
	Weights     palette.Weights        `toml:"weights"`
	Lightness   palette.LightnessRange `toml:"lightness"`
	MarkSize    float64                `toml:"mark_size"`
	OnlyRGB     bool                   `toml:"only_rgb"`
	NumPalettes int                    `toml:"num_palettes"` // Runs per preferable palette
}

// Request returns a palette request for size colors using these defaults.
func (c PaletteConfig) Request(size int) palette.Request {
	req := palette.NewRequest(size)
	req.Weights = c.Weights
	req.Lightness = c.Lightness
	req.MarkSize = c.MarkSize
	req.OnlyRGB = c.OnlyRGB
	return req
}

// StoreConfig holds palette history settings.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // DuckDB file; empty uses <dir>/history.duckdb
}

// ReferenceConfig holds reference palette settings.
type ReferenceConfig struct {
	Path     string `toml:"path"`     // JSON override; empty uses the built-in sets
	Watch    bool   `toml:"watch"`    // Reload the override when it changes
	Debounce string `toml:"debounce"` // Debounce duration (e.g. "500ms")
}

// DebounceDuration returns the parsed debounce duration (default: 500ms).
func (c ReferenceConfig) DebounceDuration() time.Duration {
	if c.Debounce != "" {
		if d, err := time.ParseDuration(c.Debounce); err == nil && d > 0 {
			return d
		}
	}
	return 500 * time.Millisecond
}

// Dir returns the path to the .colorgorical directory.
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".colorgorical"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the default path, writing the defaults
// there on first use.
func Load() (Config, error) {
	configPath, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		_ = Save(cfg) // defaults are usable even if they cannot be persisted
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads the configuration from path. Keys missing from the file
// keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at request time.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if err := c.Palette.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Palette.Lightness.Validate(); err != nil {
		return err
	}
	if _, err := jnd.ForMarkSize(c.Palette.MarkSize); err != nil {
		return err
	}
	if c.Palette.NumPalettes <= 0 {
		return fmt.Errorf("num_palettes must be positive, got %d", c.Palette.NumPalettes)
	}
	if c.Catalog.ExpectedSize < 0 {
		return fmt.Errorf("catalog expected_size must not be negative")
	}
	return nil
}

// StorePath returns the history database path.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.duckdb"), nil
}

// Default returns a default configuration with all defaults set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:       "localhost",
			Port:       8888,
			CORSOrigin: "*",
		},
		Palette: PaletteConfig{
			Weights:     palette.DefaultWeights(),
			Lightness:   palette.DefaultLightness(),
			MarkSize:    jnd.DefaultMarkSize,
			OnlyRGB:     true,
			NumPalettes: 10,
		},
		Catalog: CatalogConfig{
			ExpectedSize: catalog.ExpectedSize,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Reference: ReferenceConfig{
			Watch:    true,
			Debounce: "500ms",
		},
	}
}

// Save saves the configuration to the default path.
func Save(config Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(configPath, config)
}

// SaveFile writes the configuration to path.
func SaveFile(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(config); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
