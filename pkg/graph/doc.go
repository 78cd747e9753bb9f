// Package graph provides the serialization types for module diagrams.
//
// A [Graph] is what the annotation pipeline hands to a layout engine: one
// [Node] per sub-chip instance, carrying its port labels grouped by the side
// of the box they render on, and one [Edge] per internal wire segment
// between two ports. The JSON form is the input format of the HDElk layout
// library used by the HTML viewer:
//
//	{
//	  "color": "#fff",
//	  "children": [
//	    {"id": "1", "label": "Nand", "northPorts": [], "southPorts": [],
//	     "eastPorts": ["out"], "westPorts": ["a → a", "b → b"]}
//	  ],
//	  "edges": [{"route": ["1.out", "2.in"], "highlight": 0}]
//	}
//
// Edge endpoints are "<node id>.<port label>" strings; [ParseEndpoint]
// splits them.
//
// # Common operations
//
//	data, _ := graph.Marshal(g)          // Graph → canonical JSON
//	graph.WriteFile(g, "graph.json")     // Graph → file (indented)
//	g, _ := graph.ReadFile("graph.json") // file → Graph
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
