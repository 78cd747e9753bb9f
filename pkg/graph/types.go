package graph

import (
	"fmt"
	"slices"
	"strings"
)

// Background is the diagram background color written into viewer payloads.
const Background = "#fff"

// Side is the edge of a node box a port renders on.
type Side string

// Port sides. Inputs enter on West (data) or North (control), outputs leave
// on East (data) or South (status flags).
const (
	North Side = "n"
	South Side = "s"
	East  Side = "e"
	West  Side = "w"
)

// Sides lists every side in rendering order.
var Sides = []Side{North, South, East, West}

// String returns the full side name.
func (s Side) String() string {
	switch s {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return string(s)
}

// Graph is the canonical serialization format for module diagrams.
type Graph struct {
	Color    string `json:"color,omitempty" bson:"color,omitempty"`
	Children []Node `json:"children" bson:"children"`
	Edges    []Edge `json:"edges" bson:"edges"`
}

// Node is one sub-chip instance with its port labels grouped by side. Port
// lists hold no duplicates and keep first-occurrence order.
type Node struct {
	ID         string   `json:"id" bson:"id"`
	Label      string   `json:"label" bson:"label"`
	NorthPorts []string `json:"northPorts" bson:"north_ports"`
	SouthPorts []string `json:"southPorts" bson:"south_ports"`
	EastPorts  []string `json:"eastPorts" bson:"east_ports"`
	WestPorts  []string `json:"westPorts" bson:"west_ports"`
}

// NewNode returns a node with empty (non-nil) port lists.
func NewNode(id, label string) Node {
	return Node{
		ID:         id,
		Label:      label,
		NorthPorts: []string{},
		SouthPorts: []string{},
		EastPorts:  []string{},
		WestPorts:  []string{},
	}
}

// Ports returns the port labels on one side.
func (n *Node) Ports(side Side) []string {
	if p := n.side(side); p != nil {
		return *p
	}
	return nil
}

// AddPort appends label to a side unless it is already there. It reports
// whether the label was added.
func (n *Node) AddPort(side Side, label string) bool {
	p := n.side(side)
	if p == nil || slices.Contains(*p, label) {
		return false
	}
	*p = append(*p, label)
	return true
}

// HasPort reports whether label appears on any side.
func (n *Node) HasPort(label string) bool {
	for _, s := range Sides {
		if slices.Contains(n.Ports(s), label) {
			return true
		}
	}
	return false
}

// PortCount returns the number of ports over all sides.
func (n *Node) PortCount() int {
	return len(n.NorthPorts) + len(n.SouthPorts) + len(n.EastPorts) + len(n.WestPorts)
}

func (n *Node) side(s Side) *[]string {
	switch s {
	case North:
		return &n.NorthPorts
	case South:
		return &n.SouthPorts
	case East:
		return &n.EastPorts
	case West:
		return &n.WestPorts
	}
	return nil
}

// Edge is one wire segment from a producing port to a consuming port.
// Edges fanning out of the same producer share a highlight index.
type Edge struct {
	Route     [2]string `json:"route" bson:"route"`
	Highlight int       `json:"highlight" bson:"highlight"`
}

// Source returns the producing endpoint.
func (e Edge) Source() string { return e.Route[0] }

// Target returns the consuming endpoint.
func (e Edge) Target() string { return e.Route[1] }

// Endpoint formats a "<node id>.<port label>" endpoint.
func Endpoint(nodeID, port string) string {
	return nodeID + "." + port
}

// ParseEndpoint splits an endpoint at its first dot. Node IDs never contain
// dots; port labels may.
func ParseEndpoint(s string) (nodeID, port string, err error) {
	id, port, ok := strings.Cut(s, ".")
	if !ok || id == "" || port == "" {
		return "", "", fmt.Errorf("malformed endpoint %q", s)
	}
	return id, port, nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Children {
		if g.Children[i].ID == id {
			return &g.Children[i]
		}
	}
	return nil
}

// Stats summarizes a graph.
type Stats struct {
	Nodes int `json:"nodes"`
	Ports int `json:"ports"`
	Edges int `json:"edges"`
	Wires int `json:"wires"` // distinct producing endpoints
}

// Stats counts nodes, ports, edges and distinct wires.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.Children), Edges: len(g.Edges)}
	for i := range g.Children {
		s.Ports += g.Children[i].PortCount()
	}
	seen := make(map[string]bool)
	for _, e := range g.Edges {
		if !seen[e.Source()] {
			seen[e.Source()] = true
			s.Wires++
		}
	}
	return s
}
