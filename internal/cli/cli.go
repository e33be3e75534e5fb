// Package cli implements the portgraph command-line interface.
//
// This package provides commands for watching a device's port topology
// live, taking one-shot snapshots, diffing snapshot files, rendering
// snapshots to DOT/SVG, serving the topology over HTTP, and managing the
// local cache. The CLI is built using cobra and supports verbose logging
// via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - watch: Monitor a device and stream topology change events
//   - snapshot: Introspect once and write the topology as JSON
//   - diff: Compare two snapshot files
//   - render: Generate DOT or SVG from a snapshot file
//   - serve: Expose topology and events over HTTP
//   - cache: Manage the local snapshot/artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context to allow structured progress
// tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lwiedman/portgraph/pkg/buildinfo"
	"github.com/lwiedman/portgraph/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "portgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "portgraph",
		Short:        "Portgraph watches and draws detector port wiring",
		Long:         `Portgraph maintains a live model of a detector's port connectivity: it diffs successive device topologies into discrete change events and lays the port graph out deterministically for rendering.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/portgraph/config.toml)")

	root.AddCommand(c.watchCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// newCache builds the configured cache backend; --no-cache forces the
// null backend.
func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return c.Config.OpenCache(cmd.Context())
}

// cacheDir returns the cache directory using XDG standard (~/.cache/portgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
