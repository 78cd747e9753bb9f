package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hdlviz/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Rendered Mux (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Debug Hooks
// =============================================================================

// debugHooks writes every observability event to a logger at debug level.
type debugHooks struct {
	logger *log.Logger
}

func registerDebugHooks(l *log.Logger) {
	h := &debugHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetServerHooks(h)
}

func (h *debugHooks) OnParseStart(_ context.Context, path string) {
	h.logger.Debug("parse start", "path", path)
}

func (h *debugHooks) OnParseComplete(_ context.Context, path string, parts int, d time.Duration, err error) {
	h.logger.Debug("parse done", "path", path, "parts", parts, "duration", d, "error", err)
}

func (h *debugHooks) OnAnnotateStart(_ context.Context, module string, parts int) {
	h.logger.Debug("annotate start", "module", module, "parts", parts)
}

func (h *debugHooks) OnAnnotateComplete(_ context.Context, module string, nodes, edges int, d time.Duration, err error) {
	h.logger.Debug("annotate done", "module", module, "nodes", nodes, "edges", edges, "duration", d, "error", err)
}

func (h *debugHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *debugHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render done", "formats", formats, "duration", d, "error", err)
}

func (h *debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *debugHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request start", "method", method, "path", path)
}

func (h *debugHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("request done", "method", method, "path", path, "status", status, "duration", d)
}

func (h *debugHooks) OnEvent(_ context.Context, event string, subscribers int) {
	h.logger.Debug("event", "type", event, "subscribers", subscribers)
}

// Ensure debugHooks implements all hook interfaces.
var (
	_ observability.PipelineHooks = (*debugHooks)(nil)
	_ observability.CacheHooks    = (*debugHooks)(nil)
	_ observability.ServerHooks   = (*debugHooks)(nil)
)
