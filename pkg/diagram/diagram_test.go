package diagram

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/hdlviz/pkg/chips"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/hdl"
)

func mustParse(t *testing.T, src string) *hdl.Module {
	t.Helper()
	m, err := hdl.Parse("test.hdl", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return m
}

func mustBuild(t *testing.T, src string) (*graph.Graph, *Annotations) {
	t.Helper()
	g, a, err := Build(context.Background(), mustParse(t, src), chips.Builtin(), Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return g, a
}

func TestBuildAnd(t *testing.T) {
	g, a := mustBuild(t, `CHIP And {
    IN a, b;
    OUT out;
    PARTS:
    Nand(a=a, b=b, out=out);
}`)

	if len(g.Children) != 1 {
		t.Fatalf("Children = %d, want 1", len(g.Children))
	}
	n := g.Children[0]
	if n.ID != "1" || n.Label != "Nand" {
		t.Errorf("node = %s/%s, want 1/Nand", n.ID, n.Label)
	}
	if got := strings.Join(n.WestPorts, "|"); got != "a → a|b → b" {
		t.Errorf("WestPorts = %q", got)
	}
	if got := strings.Join(n.EastPorts, "|"); got != "out → out" {
		t.Errorf("EastPorts = %q", got)
	}
	if len(n.NorthPorts) != 0 || len(n.SouthPorts) != 0 {
		t.Errorf("unexpected north/south ports: %v %v", n.NorthPorts, n.SouthPorts)
	}
	if len(g.Edges) != 0 {
		t.Errorf("Edges = %v, want none", g.Edges)
	}
	if g.Color != graph.Background {
		t.Errorf("Color = %q", g.Color)
	}

	for j, cls := range a.Classes[0] {
		if !cls.ModulePin || cls.Const || cls.Size != 1 {
			t.Errorf("connection %d class = %+v, want module pin of size 1", j, cls)
		}
	}
}

func TestBuildFanOut(t *testing.T) {
	g, _ := mustBuild(t, `CHIP Fan {
    IN x;
    OUT o1, o2, o3;
    PARTS:
    Not(in=x, out=w);
    And(a=w, b=x, out=o1);
    Or(a=w, b=x, out=o2);
    Xor(a=w, b=x, out=o3);
}`)

	if len(g.Edges) != 3 {
		t.Fatalf("Edges = %d, want 3: %v", len(g.Edges), g.Edges)
	}
	wantDst := []string{"2.a", "3.a", "4.a"}
	for i, e := range g.Edges {
		if e.Source() != "1.out" {
			t.Errorf("edge %d source = %q, want 1.out", i, e.Source())
		}
		if e.Target() != wantDst[i] {
			t.Errorf("edge %d target = %q, want %q", i, e.Target(), wantDst[i])
		}
		if e.Highlight != g.Edges[0].Highlight {
			t.Errorf("edge %d highlight = %d, want shared %d", i, e.Highlight, g.Edges[0].Highlight)
		}
	}
}

func TestHighlightCycles(t *testing.T) {
	g, _ := mustBuild(t, `CHIP Chain {
    IN x;
    OUT y;
    PARTS:
    Not(in=x, out=w1);
    Not(in=w1, out=w2);
    Not(in=w2, out=w3);
    Not(in=w3, out=unused);
    Not(in=w3, out=w4);
    Not(in=w4, out=w5);
    Not(in=w5, out=w6);
    Not(in=w6, out=y);
}`)

	// Producers in order: w1..w3 (0..2), unused (3, no edges), w4 (4), w5 (0), w6 (1).
	want := map[string]int{
		"1.out": 0,
		"2.out": 1,
		"3.out": 2,
		"5.out": 4,
		"6.out": 0,
		"7.out": 1,
	}
	for _, e := range g.Edges {
		if h, ok := want[e.Source()]; !ok || h != e.Highlight {
			t.Errorf("edge %v highlight = %d, want %d", e.Route, e.Highlight, h)
		}
	}
	if len(g.Edges) != 7 {
		t.Errorf("Edges = %d, want 7", len(g.Edges))
	}
}

func TestHighlighterPalette(t *testing.T) {
	h := NewHighlighter(2)
	got := []int{h.Next(), h.Next(), h.Next()}
	if got[0] != 0 || got[1] != 1 || got[2] != 0 {
		t.Errorf("Next() sequence = %v", got)
	}
	if d := NewHighlighter(0); d.palette != DefaultPalette {
		t.Errorf("default palette = %d", d.palette)
	}
}

func TestClassifySizes(t *testing.T) {
	m := mustParse(t, `CHIP Sizes {
    IN x[16];
    OUT y[16];
    PARTS:
    Not16(in=x, out=y);
    Or8Way(in=x[0..7], out=p);
    Not(in=x[3], out=q);
    And16(a[0..8]=x[0..8], b=x, out=r);
}`)
	classes, err := Classify(context.Background(), m, chips.Builtin())
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}

	tests := []struct {
		part, conn int
		size       int
		input      bool
	}{
		{0, 0, 16, true},
		{0, 1, 16, false},
		{1, 0, 8, true},
		{1, 1, 1, false},
		{2, 0, 1, true},
		{3, 0, 8, true},
		{3, 1, 16, true},
	}
	for _, tt := range tests {
		cls := classes[tt.part][tt.conn]
		if cls.Size != tt.size || cls.Input != tt.input {
			t.Errorf("classes[%d][%d] = %+v, want size %d input %v", tt.part, tt.conn, cls, tt.size, tt.input)
		}
	}
}

func TestClassifyRangeWidth(t *testing.T) {
	m := &hdl.Module{
		Name: "R",
		Parts: []hdl.Part{{
			Name: "Wide",
			Connections: []hdl.Connection{
				{From: hdl.PinRef{Pin: "in", Bits: hdl.Range(8, 0)}, To: hdl.PinTarget("w", nil)},
				{From: hdl.PinRef{Pin: "in", Bits: hdl.Index(3)}, To: hdl.PinTarget("v", nil)},
			},
		}},
	}
	r := chips.Table{"Wide": {Inputs: map[string]int{"in": 16}, Outputs: map[string]int{}}}

	classes, err := Classify(context.Background(), m, r)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if classes[0][0].Size != 8 {
		t.Errorf("range {8,0} size = %d, want 8", classes[0][0].Size)
	}
	if classes[0][1].Size != 1 {
		t.Errorf("index [3] size = %d, want 1", classes[0][1].Size)
	}
}

func TestClassifyAttachmentExclusive(t *testing.T) {
	m := mustParse(t, `CHIP Mixed {
    IN a, b, s;
    OUT out;
    PARTS:
    Mux(a=a, b=true, sel=s, out=w);
    Not(in=w, out=out);
    And(a=false, b=w, out=x);
}`)
	classes, err := Classify(context.Background(), m, chips.Builtin())
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}

	want := [][]Attachment{
		{AttachModulePin, AttachConst, AttachModulePin, AttachWire},
		{AttachWire, AttachModulePin},
		{AttachConst, AttachWire, AttachWire},
	}
	for i, row := range classes {
		for j, cls := range row {
			kinds := 0
			for _, b := range []bool{cls.Const, cls.ModulePin, cls.IsWire()} {
				if b {
					kinds++
				}
			}
			if kinds != 1 {
				t.Errorf("classes[%d][%d] = %+v has %d attachment kinds", i, j, cls, kinds)
			}
			if cls.Attachment() != want[i][j] {
				t.Errorf("classes[%d][%d] attachment = %s, want %s", i, j, cls.Attachment(), want[i][j])
			}
		}
	}
}

func TestClassifyOutputToInputPinIsWire(t *testing.T) {
	// An output driving a name that is one of the module's IN pins is not a
	// module-pin attachment.
	m := mustParse(t, `CHIP Loop { IN a; OUT out; PARTS: Not(in=a, out=a); }`)
	classes, err := Classify(context.Background(), m, chips.Builtin())
	if err != nil {
		t.Fatal(err)
	}
	if !classes[0][1].IsWire() {
		t.Errorf("out=a class = %+v, want wire", classes[0][1])
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code hdlerrors.Code
		msg  string
	}{
		{
			name: "unknown chip",
			src:  `CHIP X { IN a; OUT b; PARTS: Frob(in=a, out=b); }`,
			code: hdlerrors.ErrCodeUnresolvedWidth,
			msg:  "Frob.hdl file not present in current directory",
		},
		{
			name: "unknown pin",
			src:  `CHIP X { IN a; OUT b; PARTS: Not(inn=a, out=b); }`,
			code: hdlerrors.ErrCodeUnresolvedWidth,
			msg:  "chip Not has no pin inn",
		},
		{
			name: "output to constant",
			src:  `CHIP X { IN a; PARTS: Not(in=a, out=true); }`,
			code: hdlerrors.ErrCodeInvalidConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, a, err := Build(context.Background(), mustParse(t, tt.src), chips.Builtin(), Options{})
			if err == nil {
				t.Fatal("Build() should fail")
			}
			if g != nil || a != nil {
				t.Error("Build() should not return a partial result")
			}
			if !hdlerrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", hdlerrors.GetCode(err), tt.code, err)
			}
			if tt.msg != "" && hdlerrors.UserMessage(err) != tt.msg {
				t.Errorf("message = %q, want %q", hdlerrors.UserMessage(err), tt.msg)
			}
		})
	}
}

func TestClassifyMalformedBits(t *testing.T) {
	m := &hdl.Module{
		Name: "Bad",
		Parts: []hdl.Part{{
			Name: "Not",
			Connections: []hdl.Connection{
				{From: hdl.PinRef{Pin: "in", Bits: hdl.Range(2, 5)}, To: hdl.PinTarget("x", nil)},
			},
		}},
	}
	_, err := Classify(context.Background(), m, chips.Builtin())
	if !hdlerrors.Is(err, hdlerrors.ErrCodeInvalidWidthSpec) {
		t.Errorf("error = %v, want INVALID_WIDTH_SPEC", err)
	}
}

type countingResolver struct {
	chips.Table
	calls map[string]int
}

func (c *countingResolver) Resolve(ctx context.Context, chip string) (chips.PortWidths, error) {
	c.calls[chip]++
	return c.Table.Resolve(ctx, chip)
}

func TestClassifyResolvesEachChipOnce(t *testing.T) {
	r := &countingResolver{Table: chips.Builtin(), calls: map[string]int{}}
	m := mustParse(t, `CHIP X { IN a; OUT b; PARTS: Not(in=a, out=w); Not(in=w, out=v); Not(in=v, out=b); }`)
	if _, err := Classify(context.Background(), m, r); err != nil {
		t.Fatal(err)
	}
	if r.calls["Not"] != 1 {
		t.Errorf("Not resolved %d times, want 1", r.calls["Not"])
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		pin   string
		chip  string
		input bool
		want  graph.Side
	}{
		{"sel", "Mux", true, graph.North},
		{"sel", "Mux4Way16", true, graph.North},
		{"load", "Register", true, graph.North},
		{"zx", "ALU", true, graph.North},
		{"no", "ALU", true, graph.North},
		{"zx", "Other", true, graph.West},
		{"x", "ALU", true, graph.West},
		{"a", "And", true, graph.West},
		{"zr", "ALU", false, graph.South},
		{"ng", "ALU", false, graph.South},
		{"zr", "Other", false, graph.East},
		{"out", "ALU", false, graph.East},
		{"sel", "Mux", false, graph.East},
	}
	for _, tt := range tests {
		got := Direction(tt.pin, tt.chip, tt.input)
		if got != tt.want {
			t.Errorf("Direction(%q, %q, %v) = %s, want %s", tt.pin, tt.chip, tt.input, got, tt.want)
		}
		if again := Direction(tt.pin, tt.chip, tt.input); again != got {
			t.Errorf("Direction(%q, %q, %v) not stable", tt.pin, tt.chip, tt.input)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a", "a"},
		{"carry", "carry"},
		{"selectorX", "selec..."},
		{"address", "addre..."},
		{"größeren", "größe..."},
	}
	for _, tt := range tests {
		got := Truncate(tt.in)
		if got != tt.want {
			t.Errorf("Truncate(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if len([]rune(tt.in)) <= MaxNameLen && Truncate(got) != got {
			t.Errorf("Truncate(%q) not idempotent", tt.in)
		}
	}
}

func TestFormatLabel(t *testing.T) {
	tru, fls := true, false
	tests := []struct {
		name string
		conn hdl.Connection
		cls  PinClass
		want string
	}{
		{
			name: "wire",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "in"}, To: hdl.PinTarget("w", nil)},
			cls:  PinClass{Input: true, Size: 1},
			want: "in",
		},
		{
			name: "near bits",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "a", Bits: hdl.Range(7, 0)}, To: hdl.PinTarget("lo", nil)},
			cls:  PinClass{Input: true, Size: 7},
			want: "a[7:0]",
		},
		{
			name: "const input",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "b"}, To: hdl.Target{Const: &tru}},
			cls:  PinClass{Input: true, Size: 1, Const: true},
			want: "true → b",
		},
		{
			name: "false input",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "selectorX"}, To: hdl.Target{Const: &fls}},
			cls:  PinClass{Input: true, Size: 1, Const: true},
			want: "false → selec...",
		},
		{
			name: "module input with bits",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "in"}, To: hdl.PinTarget("instruction", hdl.Index(15))},
			cls:  PinClass{Input: true, Size: 1, ModulePin: true},
			want: "instr...[15] → in",
		},
		{
			name: "module output",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "out", Bits: hdl.Index(0)}, To: hdl.PinTarget("result", hdl.Range(3, 0))},
			cls:  PinClass{Size: 1, ModulePin: true},
			want: "out[0] → resul...[3:0]",
		},
		{
			name: "wire bits are not shown",
			conn: hdl.Connection{From: hdl.PinRef{Pin: "out"}, To: hdl.PinTarget("w", hdl.Index(2))},
			cls:  PinClass{Size: 1},
			want: "out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatLabel(tt.conn, tt.cls)
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestGroupWiresByFullName(t *testing.T) {
	g, a := mustBuild(t, `CHIP Adder {
    IN x, y;
    OUT s1, s2;
    PARTS:
    Not(in=x, out=carry1);
    Not(in=y, out=carry2);
    Not(in=carry1, out=s1);
    Not(in=carry2, out=s2);
}`)

	if got := a.Wires["carry1"]; len(got) != 1 || got[0] != "3.in" {
		t.Errorf("Wires[carry1] = %v", got)
	}
	if got := a.Wires["carry2"]; len(got) != 1 || got[0] != "4.in" {
		t.Errorf("Wires[carry2] = %v", got)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("Edges = %v, want 2", g.Edges)
	}
	if g.Edges[0].Route != [2]string{"1.out", "3.in"} || g.Edges[1].Route != [2]string{"2.out", "4.in"} {
		t.Errorf("Edges = %v", g.Edges)
	}
}

func TestBuildDeduplicatesSides(t *testing.T) {
	g, _ := mustBuild(t, `CHIP Dup {
    IN a, s;
    OUT o;
    PARTS:
    DMux(in=a, sel=s, a=w, a=w, b=v);
    Or(a=w, b=v, out=o);
}`)
	n := g.Children[0]
	if got := strings.Join(n.EastPorts, "|"); got != "a|b" {
		t.Errorf("EastPorts = %q, want a|b", got)
	}
	if got := strings.Join(n.NorthPorts, "|"); got != "s → sel" {
		t.Errorf("NorthPorts = %q", got)
	}
	// Both w producers still emit their edge.
	count := 0
	for _, e := range g.Edges {
		if e.Target() == "2.a" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("edges into 2.a = %d, want 2", count)
	}
}

func TestBuildALU(t *testing.T) {
	g, _ := mustBuild(t, `CHIP Flags {
    IN x[16], y[16];
    OUT zero, neg;
    PARTS:
    ALU(x=x, y=y, zx=false, nx=false, zy=false, ny=false, f=true, no=false, out=o, zr=zero, ng=neg);
}`)
	n := g.Children[0]
	if len(n.NorthPorts) != 6 || n.NorthPorts[0] != "false → zx" || n.NorthPorts[4] != "true → f" {
		t.Errorf("NorthPorts = %v", n.NorthPorts)
	}
	if got := strings.Join(n.SouthPorts, "|"); got != "zr → zero|ng → neg" {
		t.Errorf("SouthPorts = %q", got)
	}
	if got := strings.Join(n.EastPorts, "|"); got != "out" {
		t.Errorf("EastPorts = %q", got)
	}
}

func TestRows(t *testing.T) {
	_, a := mustBuild(t, `CHIP And { IN a, b; OUT out; PARTS: Nand(a=a, b=b, out=w); Not(in=w, out=out); }`)
	rows := a.Rows()
	if len(rows) != 5 {
		t.Fatalf("Rows() = %d, want 5", len(rows))
	}
	r := rows[2]
	if r.PartID != "1" || r.Chip != "Nand" || r.Pin != "out" || r.Target != "w" || r.Side != graph.East || r.Class.Input {
		t.Errorf("rows[2] = %+v", r)
	}
	if rows[4].Label != "out → out" {
		t.Errorf("rows[4].Label = %q", rows[4].Label)
	}
}
