// Package chips resolves the port widths of sub-chip types.
//
// A part in an HDL module names its chip type but not the widths of that
// chip's pins. Widths come from one of two sources: a definition file named
// after the type next to the module being visualized ([Dir]), or the
// built-in table of the standard chip library ([Builtin]). [Chain] combines
// them so that a sibling file shadows the built-in entry of the same name.
//
// Every source implements [Resolver]; callers that need a fake can pass a
// [Table] literal.
package chips

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned by a [Resolver] that has no entry for a chip type.
var ErrNotFound = errors.New("chip not found")

// PortWidths maps the input and output pins of one chip type to their bus
// widths.
type PortWidths struct {
	Inputs  map[string]int `json:"inputs" msgpack:"inputs"`
	Outputs map[string]int `json:"outputs" msgpack:"outputs"`
}

// IsInput reports whether pin is one of the chip's inputs.
func (p PortWidths) IsInput(pin string) bool {
	_, ok := p.Inputs[pin]
	return ok
}

// Width returns the width of pin from the input or output table.
func (p PortWidths) Width(pin string, input bool) (int, bool) {
	table := p.Outputs
	if input {
		table = p.Inputs
	}
	w, ok := table[pin]
	return w, ok
}

// Resolver looks up the port widths of a chip type. An unknown type is
// reported with an error wrapping [ErrNotFound]; any other error (a sibling
// file that fails to parse, say) aborts resolution.
type Resolver interface {
	Resolve(ctx context.Context, chip string) (PortWidths, error)
}

// Table is an in-memory [Resolver].
type Table map[string]PortWidths

// Resolve returns the entry for chip.
func (t Table) Resolve(ctx context.Context, chip string) (PortWidths, error) {
	if pw, ok := t[chip]; ok {
		return pw, nil
	}
	return PortWidths{}, fmt.Errorf("%w: %s", ErrNotFound, chip)
}

// Names returns the chip types in the table, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain tries each resolver in order and returns the first hit.
type Chain []Resolver

// Resolve returns the first successful resolution. A resolver error other
// than [ErrNotFound] stops the chain.
func (c Chain) Resolve(ctx context.Context, chip string) (PortWidths, error) {
	for _, r := range c {
		pw, err := r.Resolve(ctx, chip)
		if err == nil {
			return pw, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return PortWidths{}, err
		}
	}
	return PortWidths{}, fmt.Errorf("%w: %s", ErrNotFound, chip)
}

// Ensure the resolvers implement Resolver.
var (
	_ Resolver = Table(nil)
	_ Resolver = Chain(nil)
	_ Resolver = (*Dir)(nil)
)
