package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/pipeline"
	"github.com/matzehuels/hdlviz/pkg/server"
)

// watchDebounce coalesces the burst of events an editor produces on save.
const watchDebounce = 150 * time.Millisecond

// serveCommand creates the serve command running the live viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		assets  string
		watch   bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file.hdl]",
		Short: "Serve diagrams with live reload",
		Long: `Serve diagrams with live reload.

The serve command starts the viewer server. When a file is given it is
rendered first; with --watch it is rendered again whenever a .hdl file in its
directory changes, and open viewers reload automatically.

Other tools can trigger a render with:

  curl -X POST localhost:3000/api/visualize -d '{"path": "Mux.hdl"}'

On shutdown viewers are told the session ended and the page is cleared.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
				if err := hdlerrors.ValidateModulePath(path); err != nil {
					return err
				}
			}
			if watch && path == "" {
				return fmt.Errorf("--watch needs a file to watch")
			}
			return c.runServe(cmd.Context(), serveParams{
				path:    path,
				addr:    addr,
				assets:  assets,
				watch:   watch,
				noCache: noCache,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+server.DefaultAddr+")")
	cmd.Flags().StringVar(&assets, "assets", "", "directory with elk.bundled.js, svg.min.js and hdelk.js")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when .hdl files change")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

type serveParams struct {
	path    string
	addr    string
	assets  string
	watch   bool
	noCache bool
}

func (c *CLI) runServe(ctx context.Context, p serveParams) error {
	startDir := "."
	if p.path != "" {
		startDir = filepath.Dir(p.path)
	}
	cfg, err := c.loadConfig(startDir)
	if err != nil {
		return err
	}
	if p.addr != "" {
		cfg.Server.Addr = p.addr
	}
	if p.assets != "" {
		cfg.Server.Assets = p.assets
	}

	runner, err := c.newRunner(ctx, cfg, p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	notifier, err := c.newNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	defer notifier.Close()

	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Assets:   cfg.Server.Assets,
		Runner:   runner,
		Options:  pipeline.Options{Palette: cfg.Output.Palette, NoCache: p.noCache},
		Store:    store,
		Notifier: notifier,
		Logger:   c.Logger,
	})

	printKeyValue("viewer", srv.URL())
	printKeyValue("snapshots", cfg.Snapshot.Backend)
	printKeyValue("reload", cfg.Notify.Backend)
	if p.watch {
		printKeyValue("watching", filepath.Dir(p.path))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	if p.path != "" {
		c.render(gctx, srv, p.path)
	} else {
		printNextStep("Render a module", "curl -X POST "+srv.URL()+"/api/visualize -d '{\"path\": \"Mux.hdl\"}'")
	}

	if p.watch {
		g.Go(func() error {
			return c.watch(gctx, p.path, func() { c.render(gctx, srv, p.path) })
		})
	}

	// Serve withdraws the page and ends viewer sessions before it returns.
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

// render re-renders path on the server. Failures are reported and the
// previous page stays up.
func (c *CLI) render(ctx context.Context, srv *server.Server, path string) {
	prog := newProgress(c.Logger)
	res, err := srv.Visualize(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			printError("%s: %s", filepath.Base(path), hdlerrors.UserMessage(err))
			c.Logger.Debug("render failed", "path", path, "error", err)
		}
		return
	}
	prog.done("Rendered " + res.Module.Name)

	if srv.Viewers(ctx) == 0 {
		printInfo("Open %s", StyleLink.Render(srv.URL()))
	} else {
		printSuccess("Refreshed %d viewer(s)", srv.Viewers(ctx))
	}
}

// watch calls onChange after any .hdl file in path's directory is written,
// created or renamed, until ctx is done.
func (c *CLI) watch(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	c.Logger.Info("watching for changes", "dir", dir)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isModuleChange(ev) {
				continue
			}
			c.Logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "error", err)
		}
	}
}

// isModuleChange reports whether ev touches the content of a .hdl file.
func isModuleChange(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".hdl") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
