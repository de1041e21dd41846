// Package config loads application settings from a TOML file, layered over
// built-in defaults. Every field has a working default so the tool runs
// against a local Neo4j with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "flowmap.toml"

// Config is the root application configuration.
type Config struct {
	Neo4j  Neo4j       `toml:"neo4j"`
	Server Server      `toml:"server"`
	Cache  CacheConfig `toml:"cache"`
	Limits Limits      `toml:"limits"`
	Layout Layout      `toml:"layout"`
}

// Neo4j holds graph database connection settings.
type Neo4j struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Server holds HTTP API settings.
type Server struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	// Kind is one of "file", "redis", or "none".
	Kind string `toml:"kind"`

	// Dir is the cache directory for the file backend.
	Dir string `toml:"dir"`

	// Redis connection settings, used when Kind is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// TTL bounds how long cached results are served.
	TTL duration `toml:"ttl"`
}

// Limits bounds expensive computations.
type Limits struct {
	MaxPaths int     `toml:"max_paths"`
	Width    float64 `toml:"canvas_width"`
	Height   float64 `toml:"canvas_height"`
}

// Layout overrides the diagram spacing constants. Zero-valued fields keep
// the standard values.
type Layout struct {
	MarginX     float64 `toml:"margin_x"`
	MarginY     float64 `toml:"margin_y"`
	NodeWidth   float64 `toml:"node_width"`
	NodeHeight  float64 `toml:"node_height"`
	HSpacing    float64 `toml:"h_spacing"`
	VSpacing    float64 `toml:"v_spacing"`
	GridColumns int     `toml:"grid_columns"`
}

// duration wraps time.Duration with TOML text decoding ("15m", "1h").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Neo4j: Neo4j{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "password",
		},
		Server: Server{
			Addr: ":8080",
		},
		Cache: CacheConfig{
			Kind: "file",
			Dir:  defaultCacheDir(),
			TTL:  duration{15 * time.Minute},
		},
		Limits: Limits{
			MaxPaths: 1000,
			Width:    1200,
			Height:   800,
		},
	}
}

// Load reads the config file at path, layered over defaults.
// An empty path falls back to DefaultPath; a missing file at either
// location is not an error and yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Kind {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("cache.kind must be file, redis, or none, got %q", c.Cache.Kind)
	}
	if c.Limits.MaxPaths < 0 {
		return fmt.Errorf("limits.max_paths must be non-negative")
	}
	if c.Limits.Width < 0 || c.Limits.Height < 0 {
		return fmt.Errorf("canvas dimensions must be non-negative")
	}
	l := c.Layout
	if l.MarginX < 0 || l.MarginY < 0 || l.NodeWidth < 0 || l.NodeHeight < 0 ||
		l.HSpacing < 0 || l.VSpacing < 0 || l.GridColumns < 0 {
		return fmt.Errorf("layout spacing values must be non-negative")
	}
	return nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".flowmap-cache"
	}
	return filepath.Join(base, "flowmap")
}
