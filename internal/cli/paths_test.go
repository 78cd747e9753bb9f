package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	c := New(io.Discard, LogInfo)

	cfg := defaultConfig()
	if got, want := mustFileCacheDir(t, c, cfg), filepath.Join("/tmp/xdg", appName); got != want {
		t.Errorf("unset [cache].dir = %q, want %q", got, want)
	}
	cfg.Cache.Dir = "/srv/hdlviz-cache"
	if got := mustFileCacheDir(t, c, cfg); got != "/srv/hdlviz-cache" {
		t.Errorf("configured [cache].dir = %q", got)
	}
}

func mustFileCacheDir(t *testing.T, c *CLI, cfg *Config) string {
	t.Helper()
	dir, err := c.fileCacheDir(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return dir
}
