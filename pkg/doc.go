// Package pkg provides the core libraries for hdlviz, the HDL block-diagram
// visualizer.
//
// # Overview
//
// hdlviz reads a chip definition written in the nand2tetris hardware
// description language and draws it as a block diagram: one box per part,
// ports on the side of the box that suits their role, and one edge per wire
// segment between the ports it joins. The pkg directory is organized into
// these areas:
//
//  1. [hdl] - Lexing, parsing and JSON serialization of chip definitions
//  2. [chips] - Port widths of sub-chip types (sibling files, built-in table)
//  3. [diagram] - The annotation stages and the graph builder
//  4. [graph] - The diagram graph handed to the layout engine
//  5. [render] - Viewer page and Graphviz output
//  6. [pipeline] - Orchestration (parse → annotate → validate → render)
//  7. [server] - The live-reload viewer
//
// # Architecture
//
// The typical data flow through hdlviz:
//
//	Mux.hdl
//	   ↓
//	[hdl] package (syntax tree: definitions + parts)
//	   ↓
//	[chips] package (widths of every sub-chip pin)
//	   ↓
//	[diagram] package (classify → orient → label → group wires → build)
//	   ↓
//	[contract] package (check the graph against the output contract)
//	   ↓
//	[render/page] or [render/nodelink] (HTML, JSON, DOT, SVG)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "projects/02/ALU.hdl",
//	    Formats: []string{"html", "json"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("index.html", result.Artifacts["html"], 0o644)
//
// # Infrastructure
//
// [cache] - Content-addressed caching of rendered artifacts and sibling chip
// widths, backed by files, Redis or nothing.
//
// [snapshot] - The latest rendered page, kept in memory, in the output
// directory or in MongoDB.
//
// [notify] - Live-reload events fanned out to viewers, in process or over
// Redis pub/sub.
//
// [observability] - Hooks around pipeline stages, cache lookups and HTTP
// requests.
//
// [errors] - Error codes shared by the CLI and the server.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [hdl]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/hdl
// [chips]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/chips
// [diagram]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/diagram
// [graph]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/cache
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/snapshot
// [notify]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/notify
// [observability]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/errors
//
// [contract]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/contract
// [render/page]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/render/page
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/hdlviz/pkg/render/nodelink
package pkg
