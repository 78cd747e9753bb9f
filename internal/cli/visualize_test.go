package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/hdlviz/pkg/pipeline"
)

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := writeArtifacts(dir, map[string][]byte{
		pipeline.FormatJSON: []byte(`{}`),
		pipeline.FormatHTML: []byte(`<html></html>`),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "index.html"), filepath.Join(dir, "graph.json")}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	data, err := os.ReadFile(filepath.Join(dir, "graph.json"))
	if err != nil || string(data) != `{}` {
		t.Errorf("graph.json = %q, %v", data, err)
	}
}

func TestWriteArtifactsUnknownFormat(t *testing.T) {
	if _, err := writeArtifacts(t.TempDir(), map[string][]byte{"png": nil}); err == nil {
		t.Error("expected error for format without a file name")
	}
}

func TestRunVisualize(t *testing.T) {
	dir := t.TempDir()
	c := testCLI(t, dir)
	path := writeFile(t, dir, "And.hdl", andHDL)

	opts := pipeline.Options{Path: path, Formats: []string{pipeline.FormatHTML, pipeline.FormatJSON, pipeline.FormatDOT}}
	if err := c.runVisualize(context.Background(), opts, ""); err != nil {
		t.Fatalf("runVisualize() error: %v", err)
	}

	out := filepath.Join(dir, "public")
	page, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "<title>And.hdl</title>") {
		t.Error("page title missing")
	}
	for _, name := range []string{"graph.json", "graph.dot"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestVisualizeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	c := testCLI(t, dir)
	path := writeFile(t, dir, "And.hdl", andHDL)

	if _, err := execute(t, c, "visualize", path, "-f", "png"); err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("bad format error = %v", err)
	}
	if _, err := execute(t, c, "visualize", filepath.Join(dir, "Missing.hdl")); err == nil {
		t.Error("expected error for missing module")
	}
}
