package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
		Long: `Manage the render cache.

The cache holds rendered artifacts and the port widths read from sibling chip
files. It lives in a directory (default ~/.cache/hdlviz) or in Redis, as
selected by [cache].backend in hdlviz.toml.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == backendNone {
				printInfo("Caching is disabled")
				return nil
			}

			cc, err := c.openCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if cc == nil {
				printInfo("Cache is empty")
				return nil
			}
			defer cc.Close()

			count, err := cc.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", count)
			if cfg.Cache.Backend == backendRedis {
				printDetail("Redis: %s (prefix %s)", cfg.Cache.RedisAddr, cfg.Cache.Prefix)
			} else if dir, err := c.fileCacheDir(cfg); err == nil {
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch cfg.Cache.Backend {
			case backendNone:
				fmt.Fprintln(out, "none")
			case backendRedis:
				fmt.Fprintf(out, "redis://%s/%s*\n", cfg.Cache.RedisAddr, cfg.Cache.Prefix)
			default:
				dir, err := c.fileCacheDir(cfg)
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(out, dir)
			}
			return nil
		},
	}
}
