package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/hdlviz/pkg/graph"
)

// DefaultPalette colors edges by highlight index.
var DefaultPalette = []string{"#6666cc", "#cc6666", "#55aa55", "#cc9933", "#9966cc"}

// Options configures diagram generation.
type Options struct {
	// Title labels the whole diagram; empty for none.
	Title string

	// Palette maps highlight indices to edge colors, wrapping around.
	// DefaultPalette if empty.
	Palette []string
}

// ToDOT converts a diagram graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g *graph.Graph, opts Options) string {
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.6, penwidth=1.5];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n  fontsize=20;\n", opts.Title)
	}
	buf.WriteString("\n")

	ports := make(map[string]string)
	for i := range g.Children {
		n := &g.Children[i]
		fmt.Fprintf(&buf, "  %q [label=\"%s\"];\n", n.ID, recordLabel(n, ports))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		src, ok1 := ports[e.Source()]
		dst, ok2 := ports[e.Target()]
		if !ok1 || !ok2 {
			continue
		}
		color := palette[e.Highlight%len(palette)]
		fmt.Fprintf(&buf, "  %s -> %s [color=%q];\n", src, dst, color)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// recordLabel lays out a node as nested record fields and registers the DOT
// port reference of every port label in ports, keyed by endpoint.
func recordLabel(n *graph.Node, ports map[string]string) string {
	field := func(side graph.Side) string {
		labels := n.Ports(side)
		if len(labels) == 0 {
			return ""
		}
		cells := make([]string, len(labels))
		for i, l := range labels {
			name := string(side) + strconv.Itoa(i)
			cells[i] = "<" + name + "> " + escapeRecord(l)
			ports[graph.Endpoint(n.ID, l)] = fmt.Sprintf("%q:%s", n.ID, name)
		}
		return "{" + strings.Join(cells, "|") + "}"
	}

	north, south := field(graph.North), field(graph.South)
	west, east := field(graph.West), field(graph.East)

	middle := []string{}
	if west != "" {
		middle = append(middle, west)
	}
	middle = append(middle, escapeRecord(n.Label))
	if east != "" {
		middle = append(middle, east)
	}

	rows := []string{}
	if north != "" {
		rows = append(rows, north)
	}
	rows = append(rows, "{"+strings.Join(middle, "|")+"}")
	if south != "" {
		rows = append(rows, south)
	}
	return strings.Join(rows, "|")
}

var recordSpecial = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
)

func escapeRecord(s string) string {
	return recordSpecial.Replace(s)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
