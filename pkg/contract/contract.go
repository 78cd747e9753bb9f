// Package contract checks a diagram graph against the shape the viewer's
// layout library consumes before the graph leaves the pipeline.
//
// The structural part of the contract (field names, types, ID and endpoint
// syntax) is a CUE schema embedded in the binary. The referential part
// (sequential IDs, unique ports per side, edges that name existing ports)
// is checked in Go. A graph failing either is a CONTRACT_VIOLATION: it
// means a bug in the pipeline, not bad user input.
package contract

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/graph"
)

//go:embed schema.cue
var schemaCUE []byte

// Validator validates graphs against the embedded schema.
type Validator struct {
	ctx   *cue.Context
	graph cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Graph"))
	if def.Err() != nil {
		return nil, fmt.Errorf("looking up #Graph definition: %w", def.Err())
	}

	return &Validator{ctx: ctx, graph: def}, nil
}

// Validate checks g and returns a CONTRACT_VIOLATION describing the first
// problems found, or nil. A positive palette also bounds edge highlights.
func (v *Validator) Validate(g *graph.Graph, palette int) error {
	problems := v.Problems(g, palette)
	if len(problems) == 0 {
		return nil
	}
	const maxShown = 5
	shown := problems
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	msg := strings.Join(shown, "; ")
	if extra := len(problems) - len(shown); extra > 0 {
		msg += fmt.Sprintf(" (and %d more)", extra)
	}
	return hdlerrors.New(hdlerrors.ErrCodeContractViolation, "%s", msg)
}

// Problems lists every schema and referential violation in g.
func (v *Validator) Problems(g *graph.Graph, palette int) []string {
	data, err := json.Marshal(g)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}
	problems := v.ValidateJSON(data)
	if len(problems) > 0 {
		return problems
	}
	return referential(g, palette)
}

// ValidateJSON checks encoded graph JSON against the schema only.
func (v *Validator) ValidateJSON(data []byte) []string {
	value := v.ctx.CompileBytes(data)
	if value.Err() != nil {
		return []string{fmt.Sprintf("compile error: %v", value.Err())}
	}

	err := v.graph.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var errs []string
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

func referential(g *graph.Graph, palette int) []string {
	var problems []string

	for i := range g.Children {
		n := &g.Children[i]
		if want := strconv.Itoa(i + 1); n.ID != want {
			problems = append(problems, fmt.Sprintf("children[%d]: id %q, want %q", i, n.ID, want))
		}
		for _, side := range graph.Sides {
			seen := make(map[string]bool)
			for _, p := range n.Ports(side) {
				if seen[p] {
					problems = append(problems, fmt.Sprintf("node %s: duplicate %s port %q", n.ID, side, p))
				}
				seen[p] = true
			}
		}
	}

	for i, e := range g.Edges {
		for _, end := range e.Route {
			id, port, err := graph.ParseEndpoint(end)
			if err != nil {
				problems = append(problems, fmt.Sprintf("edges[%d]: %v", i, err))
				continue
			}
			if n := g.Node(id); n == nil || !n.HasPort(port) {
				problems = append(problems, fmt.Sprintf("edges[%d]: endpoint %q names no port", i, end))
			}
		}
		if palette > 0 && e.Highlight >= palette {
			problems = append(problems, fmt.Sprintf("edges[%d]: highlight %d outside palette of %d", i, e.Highlight, palette))
		}
	}
	return problems
}
