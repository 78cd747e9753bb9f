package diagram

import (
	"context"

	"github.com/matzehuels/hdlviz/pkg/chips"
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/hdl"
)

// DefaultPalette is the number of distinct edge highlight colors.
const DefaultPalette = 5

// Highlighter hands out edge highlight indices, cycling over a palette.
type Highlighter struct {
	palette int
	next    int
}

// NewHighlighter returns a highlighter over palette colors. A non-positive
// palette uses [DefaultPalette].
func NewHighlighter(palette int) *Highlighter {
	if palette <= 0 {
		palette = DefaultPalette
	}
	return &Highlighter{palette: palette}
}

// Next returns the next highlight index.
func (h *Highlighter) Next() int {
	v := h.next % h.palette
	h.next++
	return v
}

// Annotations holds the side tables of every stage for one module.
type Annotations struct {
	Module  *hdl.Module
	Classes [][]PinClass
	Sides   [][]graph.Side
	Labels  [][]Label
	Wires   Wires
}

// BuildGraph emits one node per part and one edge per (producer, consumer)
// pair of each internal wire. Each output connection attached to an internal
// wire takes the next highlight from hl, whether or not anything consumes it.
func BuildGraph(a *Annotations, hl *Highlighter) *graph.Graph {
	m := a.Module
	g := &graph.Graph{
		Color:    graph.Background,
		Children: make([]graph.Node, 0, len(m.Parts)),
		Edges:    []graph.Edge{},
	}

	for i, part := range m.Parts {
		node := graph.NewNode(PartID(i), part.Name)
		for j := range part.Connections {
			node.AddPort(a.Sides[i][j], a.Labels[i][j].Text)
		}
		g.Children = append(g.Children, node)
	}

	for i, part := range m.Parts {
		id := PartID(i)
		for j, c := range part.Connections {
			cls := a.Classes[i][j]
			if cls.Input || !cls.IsWire() {
				continue
			}
			highlight := hl.Next()
			src := graph.Endpoint(id, a.Labels[i][j].Text)
			for _, dst := range a.Wires[c.To.Pin] {
				g.Edges = append(g.Edges, graph.Edge{Route: [2]string{src, dst}, Highlight: highlight})
			}
		}
	}
	return g
}

// Options configures [Build].
type Options struct {
	// Palette is the number of highlight colors edges cycle through.
	Palette int
}

// Build runs every stage over m and returns the graph along with the
// intermediate annotations.
func Build(ctx context.Context, m *hdl.Module, r chips.Resolver, opts Options) (*graph.Graph, *Annotations, error) {
	classes, err := Classify(ctx, m, r)
	if err != nil {
		return nil, nil, err
	}
	labels := FormatLabels(m, classes)
	a := &Annotations{
		Module:  m,
		Classes: classes,
		Sides:   AssignDirections(m, classes),
		Labels:  labels,
		Wires:   GroupWires(m, classes, labels),
	}
	return BuildGraph(a, NewHighlighter(opts.Palette)), a, nil
}

// Row is one annotated connection, flattened for tabular display.
type Row struct {
	PartID string
	Chip   string
	Pin    string
	Target string
	Class  PinClass
	Side   graph.Side
	Label  string
}

// Rows flattens the annotations in declaration order.
func (a *Annotations) Rows() []Row {
	var rows []Row
	for i, part := range a.Module.Parts {
		for j, c := range part.Connections {
			rows = append(rows, Row{
				PartID: PartID(i),
				Chip:   part.Name,
				Pin:    c.From.String(),
				Target: c.To.String(),
				Class:  a.Classes[i][j],
				Side:   a.Sides[i][j],
				Label:  a.Labels[i][j].Text,
			})
		}
	}
	return rows
}
