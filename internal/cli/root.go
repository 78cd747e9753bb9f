package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/hdlviz/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "hdlviz draws HDL chips as interactive block diagrams",
		Long:         `hdlviz reads a nand2tetris-style HDL chip definition and renders its parts as a block diagram, with every wire drawn between the ports it connects. Diagrams can be written to files or served with live reload while you edit.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to "+configFile+" (default: search upward from the module)")

	// Register all subcommands
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.chipsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
