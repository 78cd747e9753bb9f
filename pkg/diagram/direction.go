package diagram

import (
	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/hdl"
)

// aluChip is the one chip type with control inputs and flag outputs of its
// own.
const aluChip = "ALU"

var (
	controlPins    = map[string]bool{"sel": true, "load": true}
	aluControlPins = map[string]bool{"zx": true, "nx": true, "zy": true, "ny": true, "f": true, "no": true}
	aluFlagPins    = map[string]bool{"zr": true, "ng": true}
)

// Direction returns the side a pin renders on. Control inputs enter from the
// north and other inputs from the west; the ALU's status flags leave to the
// south and other outputs to the east. Bit width plays no part.
func Direction(pin, chip string, input bool) graph.Side {
	if input {
		if controlPins[pin] || (chip == aluChip && aluControlPins[pin]) {
			return graph.North
		}
		return graph.West
	}
	if chip == aluChip && aluFlagPins[pin] {
		return graph.South
	}
	return graph.East
}

// AssignDirections returns the side of every connection in m.
func AssignDirections(m *hdl.Module, classes [][]PinClass) [][]graph.Side {
	sides := make([][]graph.Side, len(m.Parts))
	for i, part := range m.Parts {
		row := make([]graph.Side, len(part.Connections))
		for j, c := range part.Connections {
			row[j] = Direction(c.From.Pin, part.Name, classes[i][j].Input)
		}
		sides[i] = row
	}
	return sides
}
