// Package hdl parses nand2tetris-style hardware description files into a
// syntax tree.
//
// A file declares one chip: its own input and output pins and the list of
// sub-chip instances (parts) wired together by name:
//
//	CHIP And {
//	    IN a, b;
//	    OUT out;
//
//	    PARTS:
//	    Nand(a=a, b=b, out=nandOut);
//	    Not(in=nandOut, out=out);
//	}
//
// Pins may carry a bit selection. Declarations use a width (a[16]);
// connections use a single index (a[3]) or an inclusive range (a[0..7]).
// A range is stored most-significant bit first, so a[0..7] becomes
// Bits{From: 7, To: 0}; a degenerate range a[3..3] is stored as the index 3.
//
// The tree also has a JSON form matching the one produced by the hdl-parser
// npm package, so trees parsed elsewhere can be loaded with [ReadModule].
package hdl
