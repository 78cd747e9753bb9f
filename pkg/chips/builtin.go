package chips

import (
	_ "embed"
	"encoding/json"
	"sync"
)

//go:embed builtin.json
var builtinJSON []byte

var (
	builtinOnce  sync.Once
	builtinTable Table
)

// Builtin returns the table of the standard chip library: the elementary
// gates, their 16-bit and multi-way variants, the adders and ALU, the
// sequential chips, memory and the CPU. The returned table is shared and
// must not be modified.
func Builtin() Table {
	builtinOnce.Do(func() {
		if err := json.Unmarshal(builtinJSON, &builtinTable); err != nil {
			panic("chips: invalid embedded builtin.json: " + err.Error())
		}
	})
	return builtinTable
}
