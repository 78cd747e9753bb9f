package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hdlviz/pkg/notify"
	"github.com/matzehuels/hdlviz/pkg/pipeline"
	"github.com/matzehuels/hdlviz/pkg/server"
)

// configFile is the project configuration file name.
const configFile = "hdlviz.toml"

// Backend names accepted in the configuration.
const (
	backendFile   = "file"
	backendNone   = "none"
	backendRedis  = "redis"
	backendMemory = "memory"
	backendMongo  = "mongo"
)

// Defaults applied to unset configuration values.
const (
	defaultOutputDir = "public"
	defaultRedisAddr = "localhost:6379"
	defaultMongoURI  = "mongodb://localhost:27017"
	defaultPrefix    = "hdlviz:"
)

// Config is the contents of hdlviz.toml.
type Config struct {
	// Path is the file the configuration was read from; empty for defaults.
	Path string `toml:"-"`

	Server   ServerConfig   `toml:"server"`
	Output   OutputConfig   `toml:"output"`
	Cache    CacheConfig    `toml:"cache"`
	Notify   NotifyConfig   `toml:"notify"`
	Snapshot SnapshotConfig `toml:"snapshot"`
}

// ServerConfig configures the viewer server.
type ServerConfig struct {
	Addr   string `toml:"addr"`
	Assets string `toml:"assets"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
	Palette int      `toml:"palette"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
	TTLHours  int    `toml:"ttl_hours"`
}

// NotifyConfig selects the live-reload backend.
type NotifyConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
	Channel   string `toml:"channel"`
}

// SnapshotConfig selects where rendered pages are stored for the server.
type SnapshotConfig struct {
	Backend    string `toml:"backend"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// defaultConfig returns the configuration used without an hdlviz.toml.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// findConfig walks up from startDir looking for hdlviz.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig reads and checks a configuration file, then applies defaults.
func loadConfig(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	checks := []struct {
		section string
		value   string
		allowed []string
	}{
		{"cache", cfg.Cache.Backend, []string{backendFile, backendNone, backendRedis}},
		{"notify", cfg.Notify.Backend, []string{backendMemory, backendRedis}},
		{"snapshot", cfg.Snapshot.Backend, []string{backendFile, backendMongo}},
	}
	for _, c := range checks {
		if meta.IsDefined(c.section, "backend") && !slices.Contains(c.allowed, c.value) {
			return nil, fmt.Errorf("%s: [%s].backend must be one of %s, got %q",
				path, c.section, strings.Join(c.allowed, ", "), c.value)
		}
	}
	if meta.IsDefined("output", "formats") {
		if err := pipeline.ValidateFormats(cfg.Output.Formats); err != nil {
			return nil, fmt.Errorf("%s: [output].formats: %w", path, err)
		}
	}
	if meta.IsDefined("output", "palette") && cfg.Output.Palette < 1 {
		return nil, fmt.Errorf("%s: [output].palette must be positive", path)
	}

	cfg.Path = path
	cfg.applyDefaults()

	// Relative directories are taken from the configuration file's location.
	root := filepath.Dir(path)
	for _, dir := range []*string{&cfg.Output.Dir, &cfg.Server.Assets, &cfg.Cache.Dir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(root, *dir)
		}
	}
	return &cfg, nil
}

// applyDefaults fills zero values with the documented defaults.
func (cfg *Config) applyDefaults() {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = server.DefaultAddr
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = append([]string(nil), pipeline.DefaultFormats...)
	}
	if cfg.Output.Palette == 0 {
		cfg.Output.Palette = pipeline.DefaultPalette
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = backendFile
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = defaultRedisAddr
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = defaultPrefix
	}
	if cfg.Notify.Backend == "" {
		cfg.Notify.Backend = backendMemory
	}
	if cfg.Notify.RedisAddr == "" {
		cfg.Notify.RedisAddr = cfg.Cache.RedisAddr
	}
	if cfg.Notify.Channel == "" {
		cfg.Notify.Channel = notify.DefaultChannel
	}
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = backendFile
	}
	if cfg.Snapshot.MongoURI == "" {
		cfg.Snapshot.MongoURI = defaultMongoURI
	}
}

// loadConfig resolves the configuration for a command working in startDir.
// An explicit --config path must exist; otherwise a missing file means
// defaults.
func (c *CLI) loadConfig(startDir string) (*Config, error) {
	if c.configPath != "" {
		return loadConfig(c.configPath)
	}
	path, ok, err := findConfig(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return defaultConfig(), nil
	}
	c.Logger.Debug("using configuration", "path", path)
	return loadConfig(path)
}
