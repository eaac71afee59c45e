// Package cli implements the exorcism command-line interface.
//
// The commands minimize ESOP covers, check covers for equivalence, print
// cover statistics, draw cube adjacency graphs, serve the HTTP API and
// manage the result cache. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - minimize: Minimize one or more covers, optionally verifying the result
//   - verify: Check two covers for equivalence
//   - stats: Print the size of a cover
//   - graph: Render the cube adjacency graph of a cover
//   - serve: Run the HTTP API
//   - cache: Manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is passed through context.Context to every command.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/exorcism/pkg/buildinfo"
	"github.com/matzehuels/exorcism/pkg/cache"
	"github.com/matzehuels/exorcism/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "exorcism"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level. Debug level also reports callers.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "exorcism minimizes exclusive-sum-of-products covers",
		Long:         `exorcism is a heuristic minimizer for multi-output ESOP covers. It rewrites pairs of cubes with ExorLink until the cube count stops improving.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/exorcism/config.toml)")

	// Register all subcommands
	root.AddCommand(c.minimizeCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. url overrides the
// configured cache URL when set.
func (c *CLI) newRunner(ctx context.Context, noCache bool, url string) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache, url)
	if err != nil {
		return nil, err
	}
	if reason, off := cache.Disabled(cc); off {
		loggerFromContext(ctx).Debug("result cache disabled", "reason", reason)
	}
	r := pipeline.NewRunner(cc, nil, loggerFromContext(ctx))
	r.TTL = c.config.Cache.TTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool, url string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache("--no-cache"), nil
	}
	if url == "" {
		url = c.config.Cache.URL
	}
	cc, err := cache.Open(ctx, url)
	if err != nil && url == "" {
		// No usable default directory; run without a cache.
		return cache.NewNullCache("default directory: " + err.Error()), nil
	}
	return cc, err
}
