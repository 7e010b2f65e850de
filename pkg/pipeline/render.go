package pipeline

import (
	"context"
	"fmt"

	"github.com/topomesh/meshify/pkg/bicon"
	"github.com/topomesh/meshify/pkg/render/dot"
	"github.com/topomesh/meshify/pkg/topo"
)

// Render generates output artifacts in the requested formats.
//
// Every format derives from the same DOT source: "dot" returns it as is,
// "svg" and "png" run it through the in-process Graphviz engine, and
// "json" returns the canonical topology document instead. A nil analysis
// drops cut-vertex styling.
func Render(ctx context.Context, g *topo.Graph, a *bicon.Analysis, opts Options) (map[string][]byte, error) {
	dotSrc := dot.Marshal(g, a, dot.Options{Detailed: opts.Detailed})

	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = dotSrc
		case FormatSVG:
			data, err = dot.RenderSVG(ctx, dotSrc)
		case FormatPNG:
			data, err = dot.RenderPNG(ctx, dotSrc)
		case FormatJSON:
			data, err = topo.Marshal(g.ToDocument("", nil))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
