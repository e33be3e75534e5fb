package cli

import (
	"os"
	"path/filepath"
	"testing"

	pgerrors "github.com/lwiedman/portgraph/pkg/errors"
	"github.com/lwiedman/portgraph/pkg/layout"
)

func TestLoadConfigDefaults(t *testing.T) {
	// A missing default config file yields the built-in defaults.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Endpoint != "http://localhost:8421" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %s", cfg.Cache.Backend)
	}
	if cfg.Layout.XSpacing != layout.DefaultXSpacing || cfg.Layout.YSpacing != layout.DefaultYSpacing {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
endpoint = "http://camhost:9000"
device = "det1"

[cache]
backend = "redis"
redis_addr = "localhost:6379"

[layout]
x_spacing = 200
y_spacing = 80
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Endpoint != "http://camhost:9000" || cfg.Device != "det1" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache config = %+v", cfg.Cache)
	}
	if cfg.Layout.XSpacing != 200 || cfg.Layout.YSpacing != 80 {
		t.Errorf("layout config = %+v", cfg.Layout)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`device = "det2"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Device != "det2" {
		t.Errorf("Device = %s", cfg.Device)
	}
	// Unset sections fall back to defaults.
	if cfg.Endpoint != "http://localhost:8421" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
	if cfg.Layout.XSpacing != layout.DefaultXSpacing {
		t.Errorf("XSpacing = %v", cfg.Layout.XSpacing)
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("explicitly named missing config should error")
	}
	if got := pgerrors.GetCode(err); got != pgerrors.ErrCodeFileNotFound {
		t.Errorf("code = %s, want %s", got, pgerrors.ErrCodeFileNotFound)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("endpoint = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("invalid TOML should error")
	}
	if got := pgerrors.GetCode(err); got != pgerrors.ErrCodeInvalidFormat {
		t.Errorf("code = %s, want %s", got, pgerrors.ErrCodeInvalidFormat)
	}
}

func TestConfigOpenCacheUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "memcached"

	if _, err := cfg.OpenCache(t.Context()); err == nil {
		t.Error("unknown backend should error")
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("cacheDir = %s", dir)
	}
}
