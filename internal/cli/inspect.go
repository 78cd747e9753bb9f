package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hdlviz/pkg/diagram"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/hdl"
	"github.com/matzehuels/hdlviz/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		ast     bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.hdl>",
		Short: "Show how each connection of a module is drawn",
		Long: `Show how each connection of a module is drawn.

Every connection is listed with its pin direction, bit width, what the far
side is attached to, the side of the block the port sits on and the label
drawn next to it. With --ast the parsed syntax tree is printed as JSON
instead; it can be fed back to visualize with --ast.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], ast, noCache)
		},
	}

	cmd.Flags().BoolVar(&ast, "ast", false, "print the syntax tree as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, path string, ast, noCache bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := hdlerrors.ValidateModulePath(path); err != nil {
		return err
	}
	opts := pipeline.Options{Path: path, NoCache: noCache}

	cfg, err := c.loadConfig(filepath.Dir(path))
	if err != nil {
		return err
	}
	opts.Palette = cfg.Output.Palette

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	m, _, err := runner.Parse(ctx, opts)
	if err != nil {
		return err
	}
	if ast {
		return hdl.WriteModule(m, out)
	}

	_, a, err := runner.Annotate(ctx, m, opts)
	if err != nil {
		return err
	}
	writeInspection(out, m, a.Rows())
	return nil
}

// writeInspection prints the module header and one table row per connection.
func writeInspection(w io.Writer, m *hdl.Module, rows []diagram.Row) {
	fmt.Fprintln(w, StyleTitle.Render(m.Name)+StyleDim.Render(fmt.Sprintf("  %d parts · %d connections", len(m.Parts), len(rows))))

	t := newTable("Part", "Chip", "Pin", "Target", "Dir", "Size", "Attached", "Side", "Label")
	for _, r := range rows {
		dir := "out"
		if r.Class.Input {
			dir = "in"
		}
		t.Row(r.PartID, r.Chip, r.Pin, r.Target, dir,
			strconv.Itoa(r.Class.Size), r.Class.Attachment().String(), string(r.Side), r.Label)
	}
	fmt.Fprintln(w, t.Render())
}
