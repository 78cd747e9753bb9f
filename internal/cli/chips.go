package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hdlviz/pkg/chips"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
)

// chipsCommand creates the chips command listing the built-in chip library.
func (c *CLI) chipsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chips [name]",
		Short: "List the built-in chips and their pins",
		Long: `List the built-in chips and their pins.

Without an argument every chip of the standard library is listed with its pin
counts. With a chip name its pins and bit widths are shown. A .hdl file next
to the module being visualized takes precedence over these entries.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := chips.Builtin()
			if len(args) == 0 {
				writeChipList(cmd.OutOrStdout(), table)
				return nil
			}
			name := args[0]
			if err := hdlerrors.ValidateChipName(name); err != nil {
				return err
			}
			pw, ok := table[name]
			if !ok {
				return hdlerrors.New(hdlerrors.ErrCodeNotFound, "no built-in chip named %q", name)
			}
			writeChipPins(cmd.OutOrStdout(), name, pw)
			return nil
		},
	}
}

func writeChipList(w io.Writer, table chips.Table) {
	t := newTable("Chip", "Inputs", "Outputs")
	for _, name := range table.Names() {
		pw := table[name]
		t.Row(name, strconv.Itoa(len(pw.Inputs)), strconv.Itoa(len(pw.Outputs)))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d chips", len(table))))
}

func writeChipPins(w io.Writer, name string, pw chips.PortWidths) {
	fmt.Fprintln(w, StyleTitle.Render(name))
	t := newTable("Pin", "Dir", "Width")
	for _, pin := range sortedPins(pw.Inputs) {
		t.Row(pin, "in", strconv.Itoa(pw.Inputs[pin]))
	}
	for _, pin := range sortedPins(pw.Outputs) {
		t.Row(pin, "out", strconv.Itoa(pw.Outputs[pin]))
	}
	fmt.Fprintln(w, t.Render())
}

// sortedPins returns the pin names ordered case-insensitively.
func sortedPins(m map[string]int) []string {
	pins := make([]string, 0, len(m))
	for p := range m {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool {
		return strings.ToLower(pins[i]) < strings.ToLower(pins[j])
	})
	return pins
}
