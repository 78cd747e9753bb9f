// Package nodelink renders module diagrams with Graphviz.
//
// # Overview
//
// Each part becomes a record-shaped box: control ports in a row along the
// top, data inputs down the left, outputs down the right and status flags
// along the bottom, mirroring the sides the annotation pipeline assigned.
// Edges run port to port and are colored by their highlight index, so every
// branch of one fanned-out wire shares a color.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
