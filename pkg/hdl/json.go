package hdl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
)

// =============================================================================
// Module Serialization API
// =============================================================================

// ReadModuleFile decodes a JSON syntax tree from a file.
func ReadModuleFile(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadModule(f)
}

// ReadModule decodes a JSON syntax tree and checks that every connection
// names a pin and a target.
func ReadModule(r io.Reader) (*Module, error) {
	var m Module
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, hdlerrors.Wrap(hdlerrors.ErrCodeParse, err, "decode syntax tree")
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteModule encodes the syntax tree as indented JSON.
func WriteModule(m *Module, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalModule encodes the syntax tree to JSON bytes.
func MarshalModule(m *Module) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteModule(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Module) validate() error {
	if m.Name == "" {
		return hdlerrors.New(hdlerrors.ErrCodeParse, "syntax tree has no chip name")
	}
	for i, part := range m.Parts {
		if part.Name == "" {
			return hdlerrors.New(hdlerrors.ErrCodeParse, "part %d has no chip name", i+1)
		}
		for j, c := range part.Connections {
			if c.From.Pin == "" {
				return hdlerrors.New(hdlerrors.ErrCodeParse, "%s connection %d has no pin", part.Name, j+1)
			}
			if !c.To.IsConst() && c.To.Pin == "" {
				return hdlerrors.New(hdlerrors.ErrCodeParse, "%s.%s is not connected", part.Name, c.From.Pin)
			}
		}
	}
	return nil
}

// =============================================================================
// Bits and Target codecs
// =============================================================================

type bitsRangeJSON struct {
	From flexInt `json:"from"`
	To   flexInt `json:"to"`
}

// MarshalJSON encodes an index as a bare number and a range as {from,to}.
func (b Bits) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BitsIndex:
		return json.Marshal(b.Index)
	case BitsRange:
		return json.Marshal(bitsRangeJSON{From: flexInt(b.From), To: flexInt(b.To)})
	}
	return nil, fmt.Errorf("unknown bit selection kind %d", b.Kind)
}

// UnmarshalJSON accepts a number, a numeric string, or a {from,to} object.
func (b *Bits) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var r bitsRangeJSON
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*b = Bits{Kind: BitsRange, From: int(r.From), To: int(r.To)}
		return nil
	}
	var i flexInt
	if err := json.Unmarshal(data, &i); err != nil {
		return err
	}
	*b = Bits{Kind: BitsIndex, Index: int(i)}
	return nil
}

// flexInt decodes either a JSON number or a string holding one.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bit index must be a number: %s", data)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("bit index must be a number: %q", s)
	}
	*f = flexInt(n)
	return nil
}

type targetJSON struct {
	Pin   string `json:"pin,omitempty"`
	Bits  *Bits  `json:"bits,omitempty"`
	Const *bool  `json:"const,omitempty"`
}

// MarshalJSON encodes a constant as {"const": v} and a pin as {"pin", "bits"}.
func (t Target) MarshalJSON() ([]byte, error) {
	if t.Const != nil {
		return json.Marshal(targetJSON{Const: t.Const})
	}
	return json.Marshal(t.PinRef)
}

// UnmarshalJSON decodes either target shape.
func (t *Target) UnmarshalJSON(data []byte) error {
	var raw targetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Const != nil {
		*t = Target{Const: raw.Const}
		return nil
	}
	*t = Target{PinRef: PinRef{Pin: raw.Pin, Bits: raw.Bits}}
	return nil
}
