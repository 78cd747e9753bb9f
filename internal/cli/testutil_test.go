package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

const andHDL = `CHIP And {
    IN a, b;
    OUT out;

    PARTS:
    Nand(a=a, b=b, out=x);
    Not(in=x, out=out);
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testCLI returns a quiet CLI whose configuration keeps the cache and
// output inside dir.
func testCLI(t *testing.T, dir string) *CLI {
	t.Helper()
	cfg := writeFile(t, dir, configFile, `
[output]
dir = "public"

[cache]
dir = "cache"
`)
	c := New(io.Discard, LogInfo)
	c.configPath = cfg
	return c
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
