package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/archive"
	"github.com/topomesh/meshify/pkg/buildinfo"
	"github.com/topomesh/meshify/pkg/cache"
	"github.com/topomesh/meshify/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "meshify"

	// minNodes is the smallest topology the CLI accepts. The packages
	// themselves allow down to 2 nodes.
	minNodes = 10
)

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
	cfg    Config
}

// New creates a new CLI instance with a default logger and the settings
// from the config file, if one exists.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)

	cfg, err := loadConfig()
	if err != nil {
		logger.Warn("Ignoring config file", "err", err)
	}

	return &CLI{Logger: logger, cfg: cfg}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "meshify",
		Short:        "Meshify makes mesh topologies fault tolerant",
		Long:         `Meshify generates and repairs mesh network topologies: it finds the cut vertices whose failure would split the network into islands, then adds redundant links until no single node is a point of failure.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.meshCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backend Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// newCache picks the artifact cache backend: null when disabled, Redis when
// configured and reachable, otherwise a file cache under the cache directory.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if url := c.cfg.Cache.RedisURL; url != "" {
		store, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			return store, nil
		}
		c.Logger.Warn("Redis cache unavailable, using file cache", "err", err)
	}
	dir := c.cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// newArchive picks the run archive backend: MongoDB when configured and
// reachable, otherwise per-run JSON files.
func (c *CLI) newArchive(ctx context.Context) (archive.Store, error) {
	if uri := c.cfg.Archive.MongoURI; uri != "" {
		store, err := archive.NewMongoStore(ctx, uri)
		if err == nil {
			return store, nil
		}
		c.Logger.Warn("Mongo archive unavailable, using file archive", "err", err)
	}
	return archive.NewFileStore(c.cfg.Archive.Dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/meshify/).
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

// resolveCacheDir prefers the configured cache directory over the default.
func (c *CLI) resolveCacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	return strings.Split(s, ",")
}
