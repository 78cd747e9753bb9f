package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hdlviz/pkg/cache"
	"github.com/matzehuels/hdlviz/pkg/chips"
	"github.com/matzehuels/hdlviz/pkg/contract"
	"github.com/matzehuels/hdlviz/pkg/diagram"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/hdl"
	"github.com/matzehuels/hdlviz/pkg/observability"
	"github.com/matzehuels/hdlviz/pkg/render/nodelink"
	"github.com/matzehuels/hdlviz/pkg/render/page"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → annotate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	m, src, err := r.Parse(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Module = m
	result.Source = src
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.PartCount = len(m.Parts)

	r.Logger.Info("parsed module",
		"module", m.Name,
		"parts", len(m.Parts),
		"duration", result.Stats.ParseTime)

	// Stage 2: Annotate
	annotateStart := time.Now()
	g, a, err := r.Annotate(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	result.Graph = g
	result.Annotations = a
	result.Stats.AnnotateTime = time.Since(annotateStart)
	stats := g.Stats()
	result.Stats.NodeCount = stats.Nodes
	result.Stats.EdgeCount = stats.Edges
	result.Stats.WireCount = stats.Wires

	r.Logger.Info("annotated module",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"duration", result.Stats.AnnotateTime)

	// Stage 3: Validate
	if err := r.Validate(g, opts); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	result.GraphHash = cache.Hash(graphData)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, m.Name, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse reads the module named by opts. A JSON syntax tree in opts.AST takes
// precedence over parsing opts.Path.
func (r *Runner) Parse(ctx context.Context, opts Options) (*hdl.Module, []byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	path := opts.input()

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, path)
	start := time.Now()

	m, src, err := readModule(opts)
	parts := 0
	if m != nil {
		parts = len(m.Parts)
	}
	hooks.OnParseComplete(ctx, path, parts, time.Since(start), err)
	return m, src, err
}

func readModule(opts Options) (*hdl.Module, []byte, error) {
	path := opts.input()
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, hdlerrors.Wrap(hdlerrors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if opts.AST != "" {
		m, err := hdl.ReadModule(bytes.NewReader(src))
		return m, src, err
	}
	m, err := hdl.Parse(filepath.Base(path), src)
	return m, src, err
}

// Annotate runs every annotation stage over m and builds the graph.
func (r *Runner) Annotate(ctx context.Context, m *hdl.Module, opts Options) (*graph.Graph, *diagram.Annotations, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnAnnotateStart(ctx, m.Name, len(m.Parts))
	start := time.Now()

	g, a, err := diagram.Build(ctx, m, r.resolver(opts), diagram.Options{Palette: opts.Palette})
	nodes, edges := 0, 0
	if g != nil {
		nodes, edges = len(g.Children), len(g.Edges)
	}
	hooks.OnAnnotateComplete(ctx, m.Name, nodes, edges, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return g, a, nil
}

// Validate checks g against the output contract.
func (r *Runner) Validate(g *graph.Graph, opts Options) error {
	v, err := validator()
	if err != nil {
		return hdlerrors.Wrap(hdlerrors.ErrCodeInternal, err, "load graph contract")
	}
	validatorMu.Lock()
	defer validatorMu.Unlock()
	return v.Validate(g, opts.Palette)
}

// RenderWithCacheInfo generates artifacts with caching and returns whether
// every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, module string, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	// Titles carry the module name, so it is part of the key.
	keyHash := cache.Hash(append([]byte(module+"\n"), graphData...))

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(keyHash, opts.ArtifactKeyOpts(format))
		if !opts.NoCache {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := RenderFormat(ctx, format, module, g, opts)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data

		if !opts.NoCache {
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
				opts.Logger.Debug("cache write failed", "format", format, "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, module string, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, module, g, opts)
	return artifacts, err
}

// RenderFormat produces a single artifact without consulting a cache.
func RenderFormat(ctx context.Context, format, module string, g *graph.Graph, opts Options) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatHTML:
		data, err = page.Bytes(module, g, opts.PageOptions())
	case FormatJSON:
		data, err = graph.Marshal(g)
	case FormatDOT:
		data = []byte(nodelink.ToDOT(g, opts.DOTOptions(module)))
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(g, opts.DOTOptions(module)))
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// resolver looks in the chip directory first and the built-in table second.
func (r *Runner) resolver(opts Options) chips.Resolver {
	if opts.Resolver != nil {
		return opts.Resolver
	}
	c := r.Cache
	if opts.NoCache {
		c = cache.NewNullCache()
	}
	return chips.Chain{
		&chips.Dir{Root: opts.ChipDir, Cache: c, Keyer: r.Keyer, Logger: opts.Logger},
		chips.Builtin(),
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

var (
	validatorOnce sync.Once
	validatorVal  *contract.Validator
	validatorErr  error

	// A cue.Context is not safe for concurrent use.
	validatorMu sync.Mutex
)

// validator compiles the graph contract once per process.
func validator() (*contract.Validator, error) {
	validatorOnce.Do(func() {
		validatorVal, validatorErr = contract.New()
	})
	return validatorVal, validatorErr
}
