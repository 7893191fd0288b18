// Package cli implements the moonlayout command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moonlayout/pkg/buildinfo"
	"github.com/matzehuels/moonlayout/pkg/cache"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
	"github.com/matzehuels/moonlayout/pkg/frame"
	"github.com/matzehuels/moonlayout/pkg/scene"
	"github.com/matzehuels/moonlayout/pkg/scenefile"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "moonlayout"

	// defaultSnapshotTTL is how long persisted snapshots are kept.
	defaultSnapshotTTL = 24 * time.Hour

	// storeTimeout bounds connecting to a remote snapshot store.
	storeTimeout = 10 * time.Second
)

// Snapshot store backends.
const (
	storeFile  = "file"
	storeNull  = "null"
	storeRedis = "redis"
	storeMongo = "mongo"
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

	store storeFlags
}

// storeFlags selects the snapshot store. They are persistent flags on the
// root command.
type storeFlags struct {
	backend   string
	redisAddr string
	mongoURI  string
	ttl       time.Duration
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
		Use:   appName,
		Short: "moonlayout runs flex layout over retained scene hierarchies",
		Long: `moonlayout loads a TOML scene, mirrors its layout nodes onto a flex solver,
stacks them back to front per camera and writes the solved geometry back into
scene transforms, frame by frame.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.store.backend, "store", storeFile, "snapshot store: file, null, redis or mongo")
	pf.StringVar(&c.store.redisAddr, "redis-addr", "localhost:6379", "redis address for --store redis")
	pf.StringVar(&c.store.mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongo URI for --store mongo")
	pf.DurationVar(&c.store.ttl, "snapshot-ttl", defaultSnapshotTTL, "how long stored snapshots are kept (0 keeps them)")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.stepCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Scene & Runner Factory
// =============================================================================

// loadScene reads a scene file and builds its world.
func loadScene(path string) (*scenefile.File, *scene.World, error) {
	f, err := scenefile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	w, err := f.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, w, nil
}

// sceneName derives a snapshot name from the file when the scene has none.
func sceneName(f *scenefile.File, path string) string {
	base := filepath.Base(path)
	return f.SceneName(base[:len(base)-len(filepath.Ext(base))])
}

// newRunner creates a frame runner for a loaded scene.
func (c *CLI) newRunner(f *scenefile.File, w *scene.World, path string, opts frame.Options) (*frame.Runner, error) {
	if opts.SceneName == "" {
		opts.SceneName = sceneName(f, path)
	}
	if opts.Logger == nil {
		opts.Logger = c.Logger
	}
	opts.Logger = sceneLogger(opts.Logger, opts.SceneName)
	return frame.NewRunner(w, opts)
}

// =============================================================================
// Snapshot Store
// =============================================================================

// openCache connects the backend selected by the store flags.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	switch c.store.backend {
	case storeNull:
		return cache.NewNullCache(), nil
	case storeFile, "":
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, snapshots will not be stored", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case storeRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: c.store.redisAddr})
	case storeMongo:
		return cache.NewMongoCache(ctx, cache.MongoOptions{URI: c.store.mongoURI})
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store %q (must be one of: file, null, redis, mongo)", c.store.backend)
}

// openStore wraps the selected cache in a snapshot store. The caller closes
// the returned cache.
func (c *CLI) openStore(ctx context.Context) (*extract.Store, cache.Cache, error) {
	ch, err := c.openCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	return extract.NewStore(ch, cache.NewDefaultKeyer(), c.store.ttl), ch, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/moonlayout/).
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
