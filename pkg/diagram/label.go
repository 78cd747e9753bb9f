package diagram

import (
	"strconv"

	"github.com/matzehuels/hdlviz/pkg/hdl"
)

// Label truncation.
const (
	MaxNameLen = 5
	Ellipsis   = "..."
)

// Arrow separates a port from what it is attached to.
const Arrow = " → "

// Truncate shortens a name longer than [MaxNameLen] runes to its first
// MaxNameLen runes followed by [Ellipsis].
func Truncate(name string) string {
	r := []rune(name)
	if len(r) <= MaxNameLen {
		return name
	}
	return string(r[:MaxNameLen]) + Ellipsis
}

// Label is the formatted text of one connection.
type Label struct {
	Near string // truncated pin name with its bit suffix
	Far  string // truncated far-side name (suffixed for module pins) or the constant
	Text string // Near decorated with its attachment; the port label
}

// FormatLabel formats one connection. Names are truncated before any suffix
// or decoration is added.
func FormatLabel(c hdl.Connection, cls PinClass) Label {
	l := Label{Near: Truncate(c.From.Pin) + c.From.Bits.Suffix()}

	switch {
	case cls.Const:
		l.Far = strconv.FormatBool(*c.To.Const)
	case cls.ModulePin:
		l.Far = Truncate(c.To.Pin) + c.To.Bits.Suffix()
	default:
		l.Far = Truncate(c.To.Pin)
	}

	switch {
	case cls.Const, cls.ModulePin && cls.Input:
		l.Text = l.Far + Arrow + l.Near
	case cls.ModulePin:
		l.Text = l.Near + Arrow + l.Far
	default:
		l.Text = l.Near
	}
	return l
}

// FormatLabels formats every connection in m.
func FormatLabels(m *hdl.Module, classes [][]PinClass) [][]Label {
	labels := make([][]Label, len(m.Parts))
	for i, part := range m.Parts {
		row := make([]Label, len(part.Connections))
		for j, c := range part.Connections {
			row[j] = FormatLabel(c, classes[i][j])
		}
		labels[i] = row
	}
	return labels
}
