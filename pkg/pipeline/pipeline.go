// Package pipeline provides the visualization pipeline for hdlviz.
//
// This package implements the complete parse → annotate → render pipeline
// shared by the CLI commands and the viewer server, so both produce the same
// artifacts for the same module.
//
// # Architecture
//
// The pipeline runs in order and stops at the first failure:
//
//  1. Parse: read the .hdl file (or a pre-parsed JSON syntax tree)
//  2. Annotate: classify, orient, label and group every connection, then
//     build the graph, resolving sub-chip widths from sibling files first
//     and the built-in table second
//  3. Validate: check the graph against the output contract
//  4. Render: produce each requested format (html, json, dot, svg)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "projects/01/Mux.hdl",
//	    Formats: []string{"html", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page := result.Artifacts["html"]
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hdlviz/pkg/cache"
	"github.com/matzehuels/hdlviz/pkg/chips"
	"github.com/matzehuels/hdlviz/pkg/diagram"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/hdl"
	"github.com/matzehuels/hdlviz/pkg/render/nodelink"
	"github.com/matzehuels/hdlviz/pkg/render/page"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// DefaultPalette is the number of highlight colors edges cycle through.
const DefaultPalette = diagram.DefaultPalette

// Format constants for output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// DefaultFormats are rendered when no format is requested.
var DefaultFormats = []string{FormatHTML}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatHTML: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// FormatFiles maps each format to the file name it is written under.
var FormatFiles = map[string]string{
	FormatHTML: "index.html",
	FormatJSON: "graph.json",
	FormatDOT:  "graph.dot",
	FormatSVG:  "graph.svg",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Path    string `json:"path,omitempty"`     // .hdl file to visualize
	AST     string `json:"ast,omitempty"`      // pre-parsed JSON syntax tree, used instead of parsing Path
	ChipDir string `json:"chip_dir,omitempty"` // where sibling chip files live; defaults to the module's directory

	// Annotate options
	Palette int `json:"palette,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Colors    []string `json:"colors,omitempty"`     // edge colors for dot and svg
	Scripts   []string `json:"scripts,omitempty"`    // viewer script sources
	EventsURL string   `json:"events_url,omitempty"` // live-reload stream embedded in the page
	NoCache   bool     `json:"no_cache,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger    `json:"-"`
	Resolver chips.Resolver `json:"-"` // replaces the sibling-then-builtin chain

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Module is the parsed syntax tree.
	Module *hdl.Module

	// Source is the raw input (HDL text or JSON tree).
	Source []byte

	// Graph is the diagram handed to the layout engine.
	Graph *graph.Graph

	// Annotations are the per-connection stage outputs behind Graph.
	Annotations *diagram.Annotations

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether every artifact came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PartCount    int
	NodeCount    int
	EdgeCount    int
	WireCount    int
	ParseTime    time.Duration
	AnnotateTime time.Duration
	RenderTime   time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return hdlerrors.New(hdlerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: html, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	switch {
	case o.AST != "":
		if strings.ContainsRune(o.AST, '\x00') {
			return hdlerrors.New(hdlerrors.ErrCodeInvalidPath, "path contains invalid characters")
		}
	case o.Path == "":
		return hdlerrors.New(hdlerrors.ErrCodeInvalidInput, "path is required")
	default:
		if err := hdlerrors.ValidateModulePath(o.Path); err != nil {
			return err
		}
	}

	if o.ChipDir == "" {
		o.ChipDir = filepath.Dir(o.input())
	}
	if o.Palette <= 0 {
		o.Palette = DefaultPalette
	}
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if len(o.Colors) == 0 {
		o.Colors = nodelink.DefaultPalette
	}
	if o.Scripts == nil {
		o.Scripts = page.DefaultScripts
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// input is the file the module is read from.
func (o *Options) input() string {
	if o.AST != "" {
		return o.AST
	}
	return o.Path
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatDOT, FormatSVG:
		opts.Palette = o.Colors
	case FormatHTML:
		opts.Scripts = o.Scripts
		opts.EventsURL = o.EventsURL
	}
	return opts
}

// PageOptions returns the viewer page settings.
func (o *Options) PageOptions() page.Options {
	return page.Options{Scripts: o.Scripts, EventsURL: o.EventsURL}
}

// DOTOptions returns the Graphviz rendering settings for module.
func (o *Options) DOTOptions(module string) nodelink.Options {
	return nodelink.Options{Title: module + ".hdl", Palette: o.Colors}
}
