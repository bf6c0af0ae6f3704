// Package cli implements the sketchlift command-line interface.
//
// This package provides commands for validating loosely structured design
// documents, rendering them to images and structural diagrams, serving the
// pipeline over HTTP, and managing the artifact cache. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - validate: Decode, repair, and validate a design document
//   - render: Render a design to PNG, JSON, DOT, or SVG
//   - tree: Export the node tree as a Graphviz diagram
//   - inspect: Browse the node tree interactively
//   - serve: Expose the pipeline over HTTP
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchlift/pkg/buildinfo"
	"github.com/matzehuels/sketchlift/pkg/cache"
	"github.com/matzehuels/sketchlift/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "sketchlift"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:          appName,
		Short:        "Sketchlift turns loose AI design output into rendered canvases",
		Long:         `Sketchlift validates loosely structured design documents produced by generative models, repairs common structural defects, and instantiates the result on a drawing canvas.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(log.DebugLevel)
			}
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/sketchlift/config.toml)")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config != nil && c.Config.Cache.Backend == "redis" {
		return cache.NewRedisCache(context.Background(), cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/sketchlift/).
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

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	return strings.Split(s, ",")
}

// readInput reads the document from a file path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
