// Package render groups the output formats of a module diagram.
//
// # Viewer Page
//
// The [page] subpackage writes the self-contained HTML page opened in the
// browser. It embeds the diagram graph as JSON, loads the browser-side
// layout scripts and, when served, subscribes to the live-reload stream.
//
//	html, err := page.Bytes("Mux", g, page.Options{})
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the same graph with Graphviz, for
// documents and terminals without a browser.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Title: "Mux.hdl"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [page]: github.com/matzehuels/hdlviz/pkg/render/page
// [nodelink]: github.com/matzehuels/hdlviz/pkg/render/nodelink
package render
