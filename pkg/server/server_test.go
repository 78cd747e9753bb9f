package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/notify"
)

const orHDL = `CHIP Or {
    IN a, b;
    OUT out;
    PARTS:
    Not(in=a, out=na);
    Not(in=b, out=nb);
    Nand(a=na, b=nb, out=out);
}
`

func writeModule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Or.hdl")
	if err := os.WriteFile(path, []byte(orHDL), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestPageBeforeRender(t *testing.T) {
	s := New(Config{})
	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET / status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No diagram yet") {
		t.Errorf("GET / body = %q", rec.Body.String())
	}
	if rec := get(t, s.Handler(), "/graph.json"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /graph.json status = %d, want 404", rec.Code)
	}
}

func TestVisualizeAndServe(t *testing.T) {
	s := New(Config{})
	body, _ := json.Marshal(visualizeRequest{Path: writeModule(t)})

	rec := post(t, s.Handler(), "/api/visualize", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/visualize status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp visualizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Module != "Or" || resp.Nodes != 3 || resp.Edges != 2 {
		t.Errorf("response = %+v, want Or with 3 nodes and 2 edges", resp)
	}

	page := get(t, s.Handler(), "/")
	if page.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", page.Code)
	}
	if ct := page.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{"<title>Or.hdl</title>", "/events"} {
		if !strings.Contains(page.Body.String(), want) {
			t.Errorf("page missing %q", want)
		}
	}

	gr := get(t, s.Handler(), "/graph.json")
	if gr.Code != http.StatusOK {
		t.Fatalf("GET /graph.json status = %d", gr.Code)
	}
	g, err := graph.Read(gr.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Children) != 3 {
		t.Errorf("graph has %d children, want 3", len(g.Children))
	}
}

func TestVisualizeErrors(t *testing.T) {
	s := New(Config{})
	dir := t.TempDir()
	bad := filepath.Join(dir, "Bad.hdl")
	if err := os.WriteFile(bad, []byte("CHIP Bad { PARTS: Foo(a=b); }"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   hdlerrors.Code
	}{
		{"malformed body", "{", http.StatusBadRequest, hdlerrors.ErrCodeInvalidInput},
		{"not hdl", `{"path": "notes.txt"}`, http.StatusBadRequest, hdlerrors.ErrCodeInvalidInput},
		{"missing file", `{"path": "` + filepath.ToSlash(filepath.Join(dir, "Nope.hdl")) + `"}`, http.StatusNotFound, hdlerrors.ErrCodeFileNotFound},
		{"unresolved chip", `{"path": "` + filepath.ToSlash(bad) + `"}`, http.StatusUnprocessableEntity, hdlerrors.ErrCodeUnresolvedWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s.Handler(), "/api/visualize", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec := get(t, New(Config{}).Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestStaticAssets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hdelk.js"), []byte("var hdelk = {};"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(Config{Assets: dir})

	rec := get(t, s.Handler(), "/static/hdelk.js")
	if rec.Code != http.StatusOK || rec.Body.String() != "var hdelk = {};" {
		t.Errorf("GET /static/hdelk.js = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, New(Config{}).Handler(), "/static/hdelk.js"); rec.Code != http.StatusNotFound {
		t.Errorf("static route without assets = %d, want 404", rec.Code)
	}
}

// readEvent returns the next "event:" name on the stream.
func readEvent(t *testing.T, sc *bufio.Scanner) string {
	t.Helper()
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			return name
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return ""
}

func TestEventsStream(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	if !sc.Scan() || sc.Text() != ": connected" {
		t.Fatalf("first line = %q", sc.Text())
	}
	if n := s.Viewers(ctx); n != 1 {
		t.Errorf("Viewers() = %d, want 1", n)
	}

	if err := s.Publish(ctx, notify.EventRefresh, "Or"); err != nil {
		t.Fatal(err)
	}
	if got := readEvent(t, sc); got != "refresh" {
		t.Errorf("event = %q, want refresh", got)
	}

	if err := s.Deactivate(ctx); err != nil {
		t.Fatal(err)
	}
	if got := readEvent(t, sc); got != "end" {
		t.Errorf("event = %q, want end", got)
	}

	// The server closes the stream after end.
	rest, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(rest), "event:") {
		t.Errorf("unexpected data after end: %q", rest)
	}
}

func TestDeactivateClearsPage(t *testing.T) {
	s := New(Config{})
	ctx := context.Background()
	if _, err := s.Visualize(ctx, writeModule(t)); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, s.Handler(), "/"); rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	if err := s.Deactivate(ctx); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, s.Handler(), "/"); rec.Code != http.StatusNotFound {
		t.Errorf("GET / after Deactivate = %d, want 404", rec.Code)
	}
}

func TestServeShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeEndsViewerSessionsOnShutdown(t *testing.T) {
	s := New(Config{})
	if _, err := s.Visualize(context.Background(), writeModule(t)); err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	serveCtx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan error, 1)
	go func() { done <- s.Serve(serveCtx, ln) }()

	clientCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(clientCtx, http.MethodGet, "http://"+ln.Addr().String()+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	if !sc.Scan() || sc.Text() != ": connected" {
		t.Fatalf("first line = %q", sc.Text())
	}

	stop()
	if got := readEvent(t, sc); got != "end" {
		t.Errorf("event = %q, want end", got)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if rec := get(t, s.Handler(), "/"); rec.Code != http.StatusNotFound {
		t.Errorf("GET / after shutdown = %d, want 404", rec.Code)
	}
}
