// Package cli implements the flowmap command-line interface.
//
// This package provides commands for browsing stored workflow processes,
// computing layouts, running path and bottleneck analysis, exporting
// diagrams, and serving the HTTP API. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - processes: List stored processes
//   - show: Summarize one process with its statistics
//   - analyze: Run path, bottleneck, and branch analysis
//   - layout: Compute and save node positions
//   - export: Write a process as JSON, CSV, DOT, or SVG
//   - load: Import a process from a JSON document
//   - serve: Run the HTTP API
//   - browse: Interactively pick and inspect a process
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kdreher/flowmap/internal/config"
	"github.com/kdreher/flowmap/pkg/buildinfo"
	"github.com/kdreher/flowmap/pkg/cache"
	"github.com/kdreher/flowmap/pkg/layout"
	"github.com/kdreher/flowmap/pkg/pipeline"
	"github.com/kdreher/flowmap/pkg/store/neo4j"
)

// appName is the application name used for directories and display.
const appName = "flowmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Flowmap visualizes and analyzes workflow process graphs",
		Long:         `Flowmap loads workflow process graphs from Neo4j, computes layered layouts, finds execution paths and bottlenecks, and exports diagrams as JSON, CSV, DOT, or SVG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: flowmap.toml)")

	root.AddCommand(c.processesCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())

	return root
}

// Config loads the application config once and memoizes it.
func (c *CLI) Config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// openStore connects to the configured Neo4j instance.
func (c *CLI) openStore(ctx context.Context) (*neo4j.Store, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	store, err := neo4j.Open(ctx, neo4j.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Neo4j.URI, err)
	}
	return store, nil
}

// newRunner creates a pipeline runner backed by the store and the
// configured cache.
func (c *CLI) newRunner(ctx context.Context, store *neo4j.Store, noCache bool) *pipeline.Runner {
	runner := pipeline.NewRunner(store, c.newCache(ctx, noCache), c.Logger)
	if cfg, err := c.Config(); err == nil {
		runner.TTL = cfg.Cache.TTL.Duration
	}
	return runner
}

// newCache builds the configured cache backend. Any setup failure degrades
// to a null cache rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	cfg, err := c.Config()
	if err != nil {
		return cache.NewNullCache()
	}

	switch cfg.Cache.Kind {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "error", err)
			return cache.NewNullCache()
		}
		return rc
	case "none":
		return cache.NewNullCache()
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "error", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// pipelineOptions builds pipeline options from config limits and layout
// spacing overrides.
func (c *CLI) pipelineOptions(processID string) pipeline.Options {
	opts := pipeline.Options{ProcessID: processID, Logger: c.Logger}
	if cfg, err := c.Config(); err == nil {
		opts.Width = cfg.Limits.Width
		opts.Height = cfg.Limits.Height
		opts.MaxPaths = cfg.Limits.MaxPaths
		opts.Layout = layout.Config{
			MarginX:     cfg.Layout.MarginX,
			MarginY:     cfg.Layout.MarginY,
			NodeWidth:   cfg.Layout.NodeWidth,
			NodeHeight:  cfg.Layout.NodeHeight,
			HSpacing:    cfg.Layout.HSpacing,
			VSpacing:    cfg.Layout.VSpacing,
			GridColumns: cfg.Layout.GridColumns,
		}
	}
	return opts
}

// Execute runs the flowmap CLI and returns an error if any command fails.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	return root.ExecuteContext(ctx)
}
