package hdl

import (
	"fmt"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
)

// DefKind is the keyword introducing a chip-level declaration.
type DefKind string

// Declaration kinds.
const (
	KindIn      DefKind = "IN"
	KindOut     DefKind = "OUT"
	KindBuiltin DefKind = "BUILTIN"
	KindClocked DefKind = "CLOCKED"
)

// Module is one parsed HDL file.
type Module struct {
	Name        string       `json:"name"`
	Definitions []Definition `json:"definitions"`
	Parts       []Part       `json:"parts"`
}

// Definition is an IN, OUT, BUILTIN or CLOCKED statement.
type Definition struct {
	Kind DefKind   `json:"type"`
	Pins []PinDecl `json:"pins"`
}

// PinDecl declares one of the chip's own pins. Bits is the bus width, 1 for
// a single wire.
type PinDecl struct {
	Name string `json:"name"`
	Bits int    `json:"bits"`
}

// Part is one sub-chip instance: the referenced chip type and its pin
// assignments in declaration order.
type Part struct {
	Name        string       `json:"name"`
	Connections []Connection `json:"connections"`
}

// Connection assigns the part's own pin (From) to a wire, a module pin or a
// constant (To).
type Connection struct {
	From PinRef `json:"from"`
	To   Target `json:"to"`
}

// PinRef names a pin with an optional bit selection.
type PinRef struct {
	Pin  string `json:"pin"`
	Bits *Bits  `json:"bits"`
}

// String renders the reference the way it is written in HDL source.
func (p PinRef) String() string {
	return p.Pin + p.Bits.HDL()
}

// Target is the far side of a connection: either a pin reference or a
// literal boolean constant.
type Target struct {
	PinRef
	Const *bool
}

// IsConst reports whether the target is the literal true or false.
func (t Target) IsConst() bool { return t.Const != nil }

// ConstTarget returns a target bound to a literal constant.
func ConstTarget(v bool) Target { return Target{Const: &v} }

// PinTarget returns a target referring to a pin or wire.
func PinTarget(pin string, bits *Bits) Target {
	return Target{PinRef: PinRef{Pin: pin, Bits: bits}}
}

// String renders the target the way it is written in HDL source.
func (t Target) String() string {
	if t.Const != nil {
		return fmt.Sprint(*t.Const)
	}
	return t.PinRef.String()
}

// BitsKind discriminates the shapes of a bit selection.
type BitsKind uint8

// Bit selection shapes.
const (
	BitsIndex BitsKind = iota + 1
	BitsRange
)

// Bits is a bit selection on a pin reference. A nil *Bits means the whole
// pin.
type Bits struct {
	Kind  BitsKind
	Index int
	From  int
	To    int
}

// Index selects a single bit.
func Index(i int) *Bits { return &Bits{Kind: BitsIndex, Index: i} }

// Range selects bits From down to To.
func Range(from, to int) *Bits { return &Bits{Kind: BitsRange, From: from, To: to} }

// Width returns the number of wires the selection covers. A range counts
// From minus To. Any other shape, including a range with From not above To,
// is an INVALID_WIDTH_SPEC error.
func (b *Bits) Width() (int, error) {
	if b == nil {
		return 0, hdlerrors.New(hdlerrors.ErrCodeInvalidWidthSpec, "no bit selection")
	}
	switch b.Kind {
	case BitsIndex:
		if b.Index < 0 {
			return 0, hdlerrors.New(hdlerrors.ErrCodeInvalidWidthSpec, "negative bit index %d", b.Index)
		}
		return 1, nil
	case BitsRange:
		if b.To < 0 || b.From <= b.To {
			return 0, hdlerrors.New(hdlerrors.ErrCodeInvalidWidthSpec, "malformed bit range %d..%d", b.From, b.To)
		}
		return b.From - b.To, nil
	default:
		return 0, hdlerrors.New(hdlerrors.ErrCodeInvalidWidthSpec, "unknown bit selection kind %d", b.Kind)
	}
}

// Suffix renders the selection as a label suffix: "[from:to]" for a range,
// "[i]" for an index and "" for no selection.
func (b *Bits) Suffix() string {
	if b == nil {
		return ""
	}
	switch b.Kind {
	case BitsIndex:
		return fmt.Sprintf("[%d]", b.Index)
	case BitsRange:
		return fmt.Sprintf("[%d:%d]", b.From, b.To)
	}
	return ""
}

// HDL renders the selection in source syntax.
func (b *Bits) HDL() string {
	if b == nil {
		return ""
	}
	switch b.Kind {
	case BitsIndex:
		return fmt.Sprintf("[%d]", b.Index)
	case BitsRange:
		return fmt.Sprintf("[%d..%d]", b.To, b.From)
	}
	return ""
}

// Pins returns the names of every pin declared with the given kind, in
// declaration order.
func (m *Module) Pins(kind DefKind) []string {
	var names []string
	for _, d := range m.Definitions {
		if d.Kind != kind {
			continue
		}
		for _, p := range d.Pins {
			names = append(names, p.Name)
		}
	}
	return names
}

// PinSet returns the declared pin names of the given kind as a set.
func (m *Module) PinSet(kind DefKind) map[string]bool {
	set := make(map[string]bool)
	for _, name := range m.Pins(kind) {
		set[name] = true
	}
	return set
}

// Widths maps each pin declared with the given kind to its bus width.
func (m *Module) Widths(kind DefKind) map[string]int {
	widths := make(map[string]int)
	for _, d := range m.Definitions {
		if d.Kind != kind {
			continue
		}
		for _, p := range d.Pins {
			widths[p.Name] = p.Bits
		}
	}
	return widths
}
