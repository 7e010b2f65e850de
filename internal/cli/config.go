package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the optional config file settings. Values act as defaults:
// environment variables override the file, command-line flags override both.
//
// The file lives at ~/.config/meshify/config.toml (or $XDG_CONFIG_HOME):
//
//	[generate]
//	nodes = 120
//	prob = 0.2
//
//	[cache]
//	dir = "/var/cache/meshify"
//	redis_url = "redis://localhost:6379/0"
//	disabled = false
//
//	[archive]
//	dir = "/var/lib/meshify/runs"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[serve]
//	addr = ":8080"
type Config struct {
	Generate GenerateConfig `toml:"generate"`
	Cache    CacheConfig    `toml:"cache"`
	Archive  ArchiveConfig  `toml:"archive"`
	Serve    ServeConfig    `toml:"serve"`
}

// GenerateConfig overrides the generator defaults.
type GenerateConfig struct {
	Nodes int     `toml:"nodes"`
	Prob  float64 `toml:"prob"`
}

// CacheConfig selects the artifact cache backend. An empty RedisURL means
// the file cache; Disabled turns caching off entirely.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Disabled bool   `toml:"disabled"`
}

// ArchiveConfig selects the run archive backend. An empty MongoURI means
// per-run JSON files under Dir.
type ArchiveConfig struct {
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
}

// ServeConfig overrides the artifact server defaults.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// configPath returns the config file location, honoring XDG_CONFIG_HOME.
func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, "config.toml"), nil
}

// loadConfig reads the config file and layers environment overrides on top.
// A missing file yields the zero config; a malformed file is an error so
// typos do not silently fall back to defaults.
func loadConfig() (Config, error) {
	var cfg Config
	path, err := configPath()
	if err != nil {
		cfg.applyEnv()
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values from the environment. Deployment settings
// (backend URLs, listen address) are the ones worth injecting per host.
func (c *Config) applyEnv() {
	if v := os.Getenv("MESHIFY_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("MESHIFY_REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("MESHIFY_MONGO_URI"); v != "" {
		c.Archive.MongoURI = v
	}
	if v := os.Getenv("MESHIFY_ADDR"); v != "" {
		c.Serve.Addr = v
	}
}
