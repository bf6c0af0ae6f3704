package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the optional TOML configuration loaded from
// ~/.config/sketchlift/config.toml (or --config). All fields have
// working defaults; a missing file is not an error.
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CanvasConfig holds fallback canvas dimensions for documents without a
// canvas block.
type CanvasConfig struct {
	Name   string  `toml:"name"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"` // "file" (default), "redis", "none"
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	MongoURI string `toml:"mongo_uri"` // empty disables the store
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields the zero config.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return &Config{}, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// configDir returns the config directory using XDG standard
// (~/.config/sketchlift/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
