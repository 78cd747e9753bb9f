// Package diagram turns a parsed HDL module into a renderable port-and-wire
// [graph.Graph].
//
// The work is split into five stages that run strictly in order. Each stage
// is a function of the module and the side tables produced before it; none
// of them modifies the module or an earlier table. Side tables are indexed
// [part][connection] in declaration order.
//
//  1. [Classify] resolves, for every connection, whether the sub-chip's pin
//     is an input, its bit width, and what the far side attaches to: a
//     constant, one of the module's own pins, or an internal wire. Widths
//     not given by a bit selection come from a [chips.Resolver].
//  2. [AssignDirections] picks the side of the box each pin renders on.
//  3. [FormatLabels] builds the display label of each pin.
//  4. [GroupWires] maps each internal wire to the ports consuming it.
//  5. [BuildGraph] emits one node per part and one edge per
//     producer/consumer pair of an internal wire.
//
// [Build] runs all five.
//
// # Widths
//
// A bit range counts From minus To, so in[0..7] (stored as From 7, To 0) has
// size 7. A single index has size 1. A whole pin takes the width declared by
// the sub-chip type.
//
// # Errors
//
// Every failure aborts the whole module; no partial graph is returned.
//   - UNRESOLVED_WIDTH: a sub-chip type is unknown, or has no such pin
//   - INVALID_WIDTH_SPEC: a bit selection is malformed
//   - INVALID_CONNECTION: an output pin is tied to a constant
//   - PARSE_ERROR: a sibling definition file is not valid HDL
package diagram
