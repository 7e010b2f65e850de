package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/topomesh/meshify/pkg/bicon"
	"github.com/topomesh/meshify/pkg/topo"
)

// RedundantColor is the stroke used for planner-added links.
const RedundantColor = "#00AA00"

// Options configures DOT generation.
type Options struct {
	// Detailed adds an external degree label to every node. When false,
	// nodes carry only their id.
	Detailed bool
}

// Marshal converts a topology to Graphviz DOT source. The analysis is
// optional: when present its cut vertices are highlighted, when nil only
// the gateway styling applies.
//
// Output is deterministic: nodes ascend by id and edges follow the
// store's normalized order, each emitted once with the lower endpoint
// first.
func Marshal(g *topo.Graph, a *bicon.Analysis, opts Options) []byte {
	var buf bytes.Buffer
	buf.WriteString("graph mesh {\n")
	buf.WriteString("  layout=sfdp;\n")
	buf.WriteString("  K=0.5;\n")
	buf.WriteString("  overlap=prism;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=circle, width=0.3, fixedsize=true, fontsize=8];\n")
	buf.WriteString("\n")

	for v := 0; v < g.Nodes(); v++ {
		if attrs := nodeAttrs(g, a, v, opts); len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %d [%s];\n", v, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %d;\n", v)
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if e.Redundant {
			fmt.Fprintf(&buf, "  %d -- %d [color=%q, penwidth=2.0];\n", e.U, e.V, RedundantColor)
		} else {
			fmt.Fprintf(&buf, "  %d -- %d;\n", e.U, e.V)
		}
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}

func nodeAttrs(g *topo.Graph, a *bicon.Analysis, v topo.NodeID, opts Options) []string {
	var attrs []string
	switch {
	case v == 0:
		// Gateway styling wins over cut styling for node 0.
		attrs = append(attrs, "style=filled", "fillcolor=lightblue", "color=blue")
	case a != nil && a.IsCutVertex(v):
		attrs = append(attrs, "style=filled", "fillcolor=pink", "color=red")
	}
	if opts.Detailed {
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", fmt.Sprintf("d%d", g.DegreeOf(v))))
	}
	return attrs
}

// RenderSVG rasterizes DOT source to SVG.
func RenderSVG(ctx context.Context, dotSrc []byte) ([]byte, error) {
	return render(ctx, dotSrc, graphviz.SVG)
}

// RenderPNG rasterizes DOT source to PNG.
func RenderPNG(ctx context.Context, dotSrc []byte) ([]byte, error) {
	return render(ctx, dotSrc, graphviz.PNG)
}

func render(ctx context.Context, dotSrc []byte, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes(dotSrc)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
