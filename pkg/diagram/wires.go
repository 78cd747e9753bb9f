package diagram

import (
	"strconv"

	"github.com/matzehuels/hdlviz/pkg/graph"
	"github.com/matzehuels/hdlviz/pkg/hdl"
)

// PartID returns the node ID of the i-th part (0-based): "1", "2", ...
func PartID(i int) string {
	return strconv.Itoa(i + 1)
}

// Wires maps an internal wire name to the endpoints consuming it, in
// declaration order. Wires are keyed by their full name, so two wires that
// share a truncated display name stay distinct.
type Wires map[string][]string

// GroupWires collects the consuming endpoint of every input connection
// attached to an internal wire.
func GroupWires(m *hdl.Module, classes [][]PinClass, labels [][]Label) Wires {
	wires := make(Wires)
	for i, part := range m.Parts {
		id := PartID(i)
		for j, c := range part.Connections {
			cls := classes[i][j]
			if !cls.Input || !cls.IsWire() {
				continue
			}
			wires[c.To.Pin] = append(wires[c.To.Pin], graph.Endpoint(id, labels[i][j].Text))
		}
	}
	return wires
}
