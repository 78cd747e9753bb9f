// Package cli implements the hdlviz command-line interface.
//
// This package provides commands for turning HDL chip definitions into
// interactive block diagrams, serving them with live reload, inspecting the
// annotation of every connection and managing the local cache. The CLI is
// built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - visualize: Render a module to html, json, dot or svg files
//   - serve: Run the viewer server, optionally re-rendering on file changes
//   - inspect: Show how each connection of a module was classified
//   - chips: List the built-in chip library
//   - cache: Manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs every pipeline stage, cache lookup and HTTP request.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hdlviz/pkg/buildinfo"
	"github.com/matzehuels/hdlviz/pkg/cache"
	"github.com/matzehuels/hdlviz/pkg/notify"
	"github.com/matzehuels/hdlviz/pkg/pipeline"
	"github.com/matzehuels/hdlviz/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "hdlviz"

	// connectTimeout bounds connecting to Redis or MongoDB.
	connectTimeout = 10 * time.Second
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

	// configPath is set by --config; empty means search for hdlviz.toml.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// EnableDebugHooks logs every pipeline stage, cache lookup and request.
func (c *CLI) EnableDebugHooks() {
	registerDebugHooks(c.Logger)
}

// =============================================================================
// Backend Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped
// to the build version so a new release never reuses stale renderings.
func (c *CLI) newRunner(ctx context.Context, cfg *Config, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg *Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == backendNone {
		return cache.NewNullCache(), nil
	}
	cc, err := c.openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return cache.NewNullCache(), nil
	}
	return cache.WithTTL(cc, time.Duration(cfg.Cache.TTLHours)*time.Hour), nil
}

// clearableCache is a cache backend the cache command can empty.
type clearableCache interface {
	cache.Cache
	Clear(ctx context.Context) (int, error)
}

// openCache opens the configured persistent backend. It returns nil when no
// cache directory can be determined.
func (c *CLI) openCache(ctx context.Context, cfg *Config) (clearableCache, error) {
	if cfg.Cache.Backend == backendRedis {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.Prefix)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return rc, nil
	}
	dir, err := c.fileCacheDir(cfg)
	if err != nil {
		printWarning("Cache disabled: %v", err)
		c.Logger.Debug("cache dir unavailable", "error", err)
		return nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return fc, nil
}

// fileCacheDir is [cache].dir, or the user cache directory when unset.
func (c *CLI) fileCacheDir(cfg *Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

func (c *CLI) newNotifier(ctx context.Context, cfg *Config) (notify.Notifier, error) {
	if cfg.Notify.Backend != backendRedis {
		return notify.NewHub(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	n, err := notify.NewRedis(ctx, cfg.Notify.RedisAddr, cfg.Notify.Channel)
	if err != nil {
		return nil, fmt.Errorf("open notifier: %w", err)
	}
	return n, nil
}

func (c *CLI) newStore(ctx context.Context, cfg *Config) (snapshot.Store, error) {
	if cfg.Snapshot.Backend != backendMongo {
		return snapshot.NewFileStore(cfg.Output.Dir)
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	s, err := snapshot.NewMongoStore(ctx, snapshot.MongoConfig{
		URI:        cfg.Snapshot.MongoURI,
		Database:   cfg.Snapshot.Database,
		Collection: cfg.Snapshot.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return s, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/hdlviz/).
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
