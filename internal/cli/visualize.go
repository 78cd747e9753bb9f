package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hdlviz/pkg/pipeline"
)

// visualizeCommand creates the visualize command for rendering a module.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		ast        string
		palette    int
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "visualize [file.hdl]",
		Short: "Render a chip as a block diagram",
		Long: `Render a chip as a block diagram.

The visualize command parses an HDL chip definition, resolves the width of
every sub-chip pin (from a sibling <Chip>.hdl file first, then the built-in
chip library) and writes the diagram to the output directory:

  html  index.html, an interactive page laid out in the browser
  json  graph.json, the diagram graph
  dot   graph.dot, Graphviz source
  svg   graph.svg, rendered with Graphviz

Without a file argument an interactive picker lists the .hdl files in the
current directory. Use --ast to render a syntax tree saved as JSON instead.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				AST:     ast,
				Palette: palette,
				NoCache: noCache,
			}
			if len(args) == 1 {
				opts.Path = args[0]
			}
			if opts.Path == "" && opts.AST == "" {
				if !isTerminal(os.Stdin) {
					return fmt.Errorf("no module given: pass a .hdl file or --ast")
				}
				path, err := pickModule(".")
				if err != nil {
					return err
				}
				if path == "" {
					return nil
				}
				opts.Path = path
			}
			if formatsStr != "" {
				opts.Formats = pipeline.ParseFormats(formatsStr)
				if err := pipeline.ValidateFormats(opts.Formats); err != nil {
					return err
				}
			}
			return c.runVisualize(cmd.Context(), opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default from "+configFile+", else ./public)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): html (default), json, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&ast, "ast", "", "render a JSON syntax tree instead of parsing a .hdl file")
	cmd.Flags().IntVar(&palette, "palette", 0, "number of edge highlight colors (default 5)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runVisualize renders the module and writes one file per format.
func (c *CLI) runVisualize(ctx context.Context, opts pipeline.Options, output string) error {
	input := opts.Path
	if input == "" {
		input = opts.AST
	}
	cfg, err := c.loadConfig(filepath.Dir(input))
	if err != nil {
		return err
	}
	if len(opts.Formats) == 0 {
		opts.Formats = cfg.Output.Formats
	}
	if opts.Palette == 0 {
		opts.Palette = cfg.Output.Palette
	}
	if output == "" {
		output = cfg.Output.Dir
	}

	runner, err := c.newRunner(ctx, cfg, opts.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("visualize: %w", err)
	}
	prog.done("Rendered " + result.Module.Name)

	spinner.Update(fmt.Sprintf("Writing %d file(s) to %s...", len(result.Artifacts), output))
	files, err := writeArtifacts(output, result.Artifacts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Diagram of %s", StyleHighlight.Render(result.Module.Name+".hdl"))
	printStats(result.Stats, result.CacheHit)
	for _, f := range files {
		printFile(f)
	}
	if _, ok := result.Artifacts[pipeline.FormatHTML]; ok {
		printNextStep("View with live reload", appName+" serve "+input+" --watch")
	}
	return nil
}

// writeArtifacts writes each artifact to its file in dir and returns the
// written paths in a stable order.
func writeArtifacts(dir string, artifacts map[string][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	var paths []string
	for _, format := range formats {
		name, ok := pipeline.FormatFiles[format]
		if !ok {
			return nil, fmt.Errorf("no file name for format %q", format)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
