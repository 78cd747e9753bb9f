package graph

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func sampleGraph() *Graph {
	a := NewNode("1", "Nand")
	a.AddPort(West, "a → a")
	a.AddPort(West, "b → b")
	a.AddPort(East, "out")

	b := NewNode("2", "Not")
	b.AddPort(West, "in")
	b.AddPort(East, "out → out")

	return &Graph{
		Color:    Background,
		Children: []Node{a, b},
		Edges:    []Edge{{Route: [2]string{"1.out", "2.in"}, Highlight: 0}},
	}
}

func TestAddPortDeduplicates(t *testing.T) {
	n := NewNode("1", "Mux")
	if !n.AddPort(North, "sel") {
		t.Error("first AddPort should add")
	}
	if n.AddPort(North, "sel") {
		t.Error("duplicate AddPort should not add")
	}
	n.AddPort(West, "a")
	n.AddPort(West, "b")
	n.AddPort(West, "a")

	if got := strings.Join(n.WestPorts, ","); got != "a,b" {
		t.Errorf("WestPorts = %s, want a,b", got)
	}
	if n.PortCount() != 3 {
		t.Errorf("PortCount() = %d, want 3", n.PortCount())
	}
	if !n.HasPort("sel") || n.HasPort("out") {
		t.Error("HasPort mismatch")
	}
	if n.AddPort(Side("x"), "q") {
		t.Error("unknown side should be rejected")
	}
}

func TestMarshalShape(t *testing.T) {
	data, err := Marshal(sampleGraph())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"color":"#fff"`,
		`"northPorts":[]`,
		`"westPorts":["a → a","b → b"]`,
		`"route":["1.out","2.in"]`,
		`"highlight":0`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Marshal() missing %s in %s", want, s)
		}
	}
	if strings.HasSuffix(s, "\n") {
		t.Error("Marshal() should not end with a newline")
	}

	again, _ := Marshal(sampleGraph())
	if !bytes.Equal(data, again) {
		t.Error("Marshal() should be deterministic")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(sampleGraph(), path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	g, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(g.Children) != 2 || len(g.Edges) != 1 {
		t.Fatalf("decoded graph = %+v", g)
	}
	if n := g.Node("2"); n == nil || n.Label != "Not" || n.EastPorts[0] != "out → out" {
		t.Errorf("Node(2) = %+v", n)
	}
	if g.Node("9") != nil {
		t.Error("Node(9) should be nil")
	}
}

func TestReadInvalid(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"children": 3}`)); err == nil {
		t.Error("Unmarshal() should reject a malformed graph")
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		id      string
		port    string
		wantErr bool
	}{
		{"1.out", "1", "out", false},
		{"12.selec...", "12", "selec...", false},
		{"3.a[7:0]", "3", "a[7:0]", false},
		{"nodot", "", "", true},
		{".out", "", "", true},
		{"1.", "", "", true},
	}
	for _, tt := range tests {
		id, port, err := ParseEndpoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEndpoint(%q) error = %v", tt.in, err)
			continue
		}
		if id != tt.id || port != tt.port {
			t.Errorf("ParseEndpoint(%q) = %q, %q", tt.in, id, port)
		}
	}
}

func TestStats(t *testing.T) {
	g := sampleGraph()
	g.Edges = append(g.Edges, Edge{Route: [2]string{"1.out", "2.x"}})
	s := g.Stats()
	if s.Nodes != 2 || s.Ports != 5 || s.Edges != 2 || s.Wires != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}
