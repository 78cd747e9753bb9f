// Package page renders the HTML viewer for a module diagram.
//
// The page embeds the graph as JSON and hands it to the HDElk layout
// library in the browser, which computes positions and draws the SVG. When
// an events URL is set the page also subscribes to the server's live-reload
// stream: it reloads on "refresh" and disconnects on "end".
package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/matzehuels/hdlviz/pkg/graph"
)

//go:embed page.html.tmpl
var pageTmpl string

var tmpl = template.Must(template.New("page").Parse(pageTmpl))

// DefaultScripts are the layout library sources, loaded in order.
var DefaultScripts = []string{
	"/static/elk.bundled.js",
	"/static/svg.min.js",
	"/static/hdelk.js",
}

// DefaultEventsURL is the server's live-reload stream.
const DefaultEventsURL = "/events"

// DefaultDiagramID is the id of the element the diagram is drawn into.
const DefaultDiagramID = "diagram_id"

// Options configures page rendering.
type Options struct {
	Scripts   []string // script sources; DefaultScripts if nil
	EventsURL string   // live-reload stream; empty disables reloading
	DiagramID string   // DefaultDiagramID if empty
}

type pageData struct {
	Title     string
	Scripts   []string
	DiagramID string
	EventsURL string
	Graph     *graph.Graph
}

// Render writes the viewer page for module to w.
func Render(w io.Writer, module string, g *graph.Graph, opts Options) error {
	if g == nil {
		return fmt.Errorf("render page: nil graph")
	}
	data := pageData{
		Title:     module + ".hdl",
		Scripts:   opts.Scripts,
		DiagramID: opts.DiagramID,
		EventsURL: opts.EventsURL,
		Graph:     g,
	}
	if data.Scripts == nil {
		data.Scripts = DefaultScripts
	}
	if data.DiagramID == "" {
		data.DiagramID = DefaultDiagramID
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Bytes renders the viewer page to memory.
func Bytes(module string, g *graph.Graph, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, module, g, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
