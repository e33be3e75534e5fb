package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lwiedman/portgraph/pkg/cache"
	pgerrors "github.com/lwiedman/portgraph/pkg/errors"
	"github.com/lwiedman/portgraph/pkg/layout"
)

// Config holds user-level settings loaded from a TOML file. Every field
// has a usable default so a missing config file is not an error.
type Config struct {
	// Endpoint is the base URL of the device topology API.
	Endpoint string `toml:"endpoint"`

	// Device is the default device name shown in logs and diagrams.
	Device string `toml:"device"`

	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "null", "redis", "mongo".
	Backend string `toml:"backend"`

	// Redis connection settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// Mongo connection settings, used when Backend is "mongo".
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// LayoutConfig overrides the default node spacing.
type LayoutConfig struct {
	XSpacing float64 `toml:"x_spacing"`
	YSpacing float64 `toml:"y_spacing"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint: "http://localhost:8421",
		Device:   "device",
		Cache:    CacheConfig{Backend: "file"},
		Layout: LayoutConfig{
			XSpacing: layout.DefaultXSpacing,
			YSpacing: layout.DefaultYSpacing,
		},
	}
}

// LoadConfig reads the TOML config at path, or the default location if
// path is empty. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, pgerrors.Wrap(pgerrors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, pgerrors.Wrap(pgerrors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}

	if cfg.Layout.XSpacing <= 0 {
		cfg.Layout.XSpacing = layout.DefaultXSpacing
	}
	if cfg.Layout.YSpacing <= 0 {
		cfg.Layout.YSpacing = layout.DefaultYSpacing
	}

	return cfg, nil
}

// OpenCache instantiates the configured cache backend.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "", "file":
		dir, err := cacheDir()
		if err != nil {
			return nil, pgerrors.Wrap(pgerrors.ErrCodeInternal, err, "determine cache directory")
		}
		return cache.NewFileCache(dir)
	case "null":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
	case "mongo":
		return cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        c.Cache.MongoURI,
			Database:   c.Cache.MongoDatabase,
			Collection: c.Cache.MongoCollection,
		})
	default:
		return nil, pgerrors.New(pgerrors.ErrCodeInvalidInput, "unknown cache backend: %s", c.Cache.Backend)
	}
}

func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
