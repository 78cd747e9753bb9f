// Package server serves the live module viewer over HTTP.
//
// # Routes
//
//	GET  /                the latest rendered page
//	GET  /graph.json      the latest diagram graph
//	GET  /events          live-reload stream (Server-Sent Events)
//	GET  /static/*        viewer scripts (elk, svg.js, hdelk)
//	GET  /healthz         liveness and build version
//	POST /api/visualize   render {"path": "..."} and notify viewers
//
// Rendering goes through a [pipeline.Runner]; pages are kept in a
// [snapshot.Store] and reload notifications travel through a
// [notify.Notifier], so the server holds no rendering state of its own.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/hdlviz/pkg/notify"
	"github.com/matzehuels/hdlviz/pkg/observability"
	"github.com/matzehuels/hdlviz/pkg/pipeline"
	"github.com/matzehuels/hdlviz/pkg/render/page"
	"github.com/matzehuels/hdlviz/pkg/snapshot"
)

// DefaultAddr is where the viewer listens by default.
const DefaultAddr = "localhost:3000"

// keepAlive is the interval between SSE comment lines on an idle stream.
var keepAlive = 15 * time.Second

// Config configures a Server.
type Config struct {
	Addr     string
	Assets   string // directory served under /static; empty disables it
	Runner   *pipeline.Runner
	Options  pipeline.Options // template for every render; Path is set per request
	Store    snapshot.Store
	Notifier notify.Notifier
	Logger   *log.Logger
}

// Server is the viewer HTTP server.
type Server struct {
	cfg    Config
	router chi.Router
	logger *log.Logger
}

// New builds a server. Missing collaborators fall back to in-memory ones.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = snapshot.NewMemoryStore()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewHub()
	}
	if cfg.Options.EventsURL == "" {
		cfg.Options.EventsURL = page.DefaultEventsURL
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// URL is the address viewers open.
func (s *Server) URL() string { return "http://" + s.cfg.Addr }

// Notifier returns the notifier events are published on.
func (s *Server) Notifier() notify.Notifier { return s.cfg.Notifier }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/graph.json", s.handleGraph)
	r.Get("/events", s.handleEvents)
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/visualize", s.handleVisualize)
	if s.cfg.Assets != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.Assets)))
		r.Get("/static/*", fs.ServeHTTP)
	}
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. On shutdown viewers
// receive an end event while their streams are still open, then the page
// is withdrawn and the listener closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Requests outlive ctx so open event streams can deliver the end event.
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("viewer listening", "url", "http://"+ln.Addr().String())
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Deactivate(shutdownCtx); err != nil {
		s.logger.Warn("viewers not notified of shutdown", "err", err)
	}
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		cancelBase()
		srv.Close()
	}
	if serr := <-errCh; serr != nil && !errors.Is(serr, http.ErrServerClosed) {
		return serr
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Visualize renders the module at path, stores the page and tells
// connected viewers to reload.
func (s *Server) Visualize(ctx context.Context, path string) (*pipeline.Result, error) {
	opts := s.cfg.Options
	opts.Path = path
	opts.AST = ""
	opts.ChipDir = ""
	opts.Formats = []string{pipeline.FormatHTML, pipeline.FormatJSON}

	res, err := s.cfg.Runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}

	snap := snapshot.New(res.Module.Name, res.Source, res.Artifacts[pipeline.FormatHTML], res.Graph)
	if err := s.cfg.Store.Put(ctx, snap); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	if err := s.Publish(ctx, notify.EventRefresh, res.Module.Name); err != nil {
		s.logger.Warn("refresh not delivered", "error", err)
	}
	return res, nil
}

// Publish sends a live-reload event to every viewer.
func (s *Server) Publish(ctx context.Context, t notify.EventType, module string) error {
	n, _ := s.cfg.Notifier.Subscribers(ctx)
	observability.Server().OnEvent(ctx, string(t), n)
	s.logger.Debug("publish event", "event", t, "subscribers", n)
	return s.cfg.Notifier.Publish(ctx, notify.NewEvent(t, module))
}

// Viewers reports how many viewers are connected.
func (s *Server) Viewers(ctx context.Context) int {
	n, err := s.cfg.Notifier.Subscribers(ctx)
	if err != nil {
		return 0
	}
	return n
}

// Deactivate ends every viewer session and withdraws the page.
func (s *Server) Deactivate(ctx context.Context) error {
	errPub := s.Publish(ctx, notify.EventEnd, "")
	errClear := s.cfg.Store.Clear(ctx)
	return errors.Join(errPub, errClear)
}
