package diagram

import (
	"context"
	"errors"

	"github.com/matzehuels/hdlviz/pkg/chips"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/hdl"
)

// Attachment is what the far side of a connection is bound to.
type Attachment int

// Attachment kinds. Every classified connection has exactly one.
const (
	AttachWire Attachment = iota
	AttachConst
	AttachModulePin
)

func (a Attachment) String() string {
	switch a {
	case AttachConst:
		return "const"
	case AttachModulePin:
		return "module"
	}
	return "wire"
}

// PinClass is the classification of one connection.
type PinClass struct {
	Input     bool // near-side pin is one of the sub-chip's inputs
	Size      int  // bit width, always positive
	Const     bool // far side is true or false
	ModulePin bool // far side is one of the module's own IN/OUT pins
}

// Attachment returns the attachment kind of the far side.
func (c PinClass) Attachment() Attachment {
	switch {
	case c.Const:
		return AttachConst
	case c.ModulePin:
		return AttachModulePin
	}
	return AttachWire
}

// IsWire reports whether the far side is an internal wire.
func (c PinClass) IsWire() bool {
	return c.Attachment() == AttachWire
}

// Classify resolves the pin class of every connection in m. Each sub-chip
// type is resolved once through r.
func Classify(ctx context.Context, m *hdl.Module, r chips.Resolver) ([][]PinClass, error) {
	inPins := m.PinSet(hdl.KindIn)
	outPins := m.PinSet(hdl.KindOut)
	resolved := make(map[string]chips.PortWidths)

	classes := make([][]PinClass, len(m.Parts))
	for i, part := range m.Parts {
		pw, ok := resolved[part.Name]
		if !ok {
			var err error
			if pw, err = resolveChip(ctx, r, part.Name); err != nil {
				return nil, err
			}
			resolved[part.Name] = pw
		}

		row := make([]PinClass, len(part.Connections))
		for j, c := range part.Connections {
			cls, err := classifyConnection(part.Name, c, pw, inPins, outPins)
			if err != nil {
				return nil, err
			}
			row[j] = cls
		}
		classes[i] = row
	}
	return classes, nil
}

func resolveChip(ctx context.Context, r chips.Resolver, chip string) (chips.PortWidths, error) {
	pw, err := r.Resolve(ctx, chip)
	if errors.Is(err, chips.ErrNotFound) {
		return pw, hdlerrors.Wrap(hdlerrors.ErrCodeUnresolvedWidth, err,
			"%s.hdl file not present in current directory", chip)
	}
	return pw, err
}

func classifyConnection(chip string, c hdl.Connection, pw chips.PortWidths, inPins, outPins map[string]bool) (PinClass, error) {
	cls := PinClass{Input: pw.IsInput(c.From.Pin)}

	if c.From.Bits != nil {
		size, err := c.From.Bits.Width()
		if err != nil {
			return PinClass{}, hdlerrors.Wrap(hdlerrors.ErrCodeInvalidWidthSpec, err, "%s.%s", chip, c.From.Pin)
		}
		cls.Size = size
	} else {
		size, ok := pw.Width(c.From.Pin, cls.Input)
		if !ok || size < 1 {
			return PinClass{}, hdlerrors.New(hdlerrors.ErrCodeUnresolvedWidth,
				"chip %s has no pin %s", chip, c.From.Pin)
		}
		cls.Size = size
	}

	switch {
	case c.To.IsConst():
		if !cls.Input {
			return PinClass{}, hdlerrors.New(hdlerrors.ErrCodeInvalidConnection,
				"output pin %s.%s cannot drive the constant %s", chip, c.From.Pin, c.To)
		}
		cls.Const = true
	case cls.Input:
		cls.ModulePin = inPins[c.To.Pin]
	default:
		cls.ModulePin = outPins[c.To.Pin]
	}
	return cls, nil
}
