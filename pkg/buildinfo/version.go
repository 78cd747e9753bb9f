// Package buildinfo carries the release stamped into an hdlviz binary.
//
// The version is reported by "hdlviz --version" and the viewer's /healthz
// route, and it scopes cache keys so a new release re-renders modules
// instead of reusing widths and diagrams from an older one. Release builds
// set it with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/hdlviz/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/hdlviz/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/hdlviz/pkg/buildinfo.Date=$(date -u +%Y-%m-%d)" ./cmd/hdlviz
package buildinfo

import "fmt"

// Stamped by the linker. Local builds report "dev".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template is the cobra version template for the root command.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}
