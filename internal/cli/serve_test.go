package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestIsModuleChange(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: "Mux.hdl", Op: fsnotify.Write}, true},
		{"create upper ext", fsnotify.Event{Name: "Mux.HDL", Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: "Mux.hdl", Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: "Mux.hdl", Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: "Mux.hdl", Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: "Mux.hdl.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isModuleChange(tt.ev); got != tt.want {
				t.Errorf("isModuleChange(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestWatchDebounces(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "And.hdl", andHDL)
	c := testCLI(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- c.watch(ctx, path, func() { calls.Add(1) })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(andHDL), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(3 * watchDebounce)

	if got := calls.Load(); got != 1 {
		t.Errorf("onChange called %d times, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch() error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("watch did not stop after cancel")
	}
}

func TestServeWatchNeedsFile(t *testing.T) {
	if _, err := execute(t, testCLI(t, t.TempDir()), "serve", "--watch"); err == nil {
		t.Error("expected error for --watch without a file")
	}
}

func TestRunServeRendersAndDeactivates(t *testing.T) {
	dir := t.TempDir()
	c := testCLI(t, dir)
	path := writeFile(t, dir, "And.hdl", andHDL)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.runServe(ctx, serveParams{path: path, addr: "127.0.0.1:0", noCache: true})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("runServe() = %v, want deadline exceeded", err)
	}

	// Shutdown withdraws the page but leaves the graph from the last render.
	page, err := os.ReadFile(filepath.Join(dir, "public", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 0 {
		t.Errorf("index.html has %d bytes after shutdown, want 0", len(page))
	}
	if _, err := os.Stat(filepath.Join(dir, "public", "graph.json")); err != nil {
		t.Errorf("graph.json missing: %v", err)
	}
}
