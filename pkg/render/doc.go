// Package render provides visualization rendering for mesh topologies.
//
// # Overview
//
// This package namespaces the renderers that turn an analyzed topology
// into visual output. Today that is a single format family:
//
//   - DOT serialization and Graphviz rasterization (in [dot] subpackage)
//
// # DOT Rendering
//
// The [dot] subpackage serializes a topology to Graphviz DOT source with
// the analysis styled in: cut vertices are highlighted, redundant links
// are drawn in green. The same source feeds the SVG and PNG rasterizers,
// which run go-graphviz in process, so rendering needs no external
// binaries.
//
//	src := dot.Marshal(g, a, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//	png, err := dot.RenderPNG(ctx, src)
//
// [dot]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/render/dot
package render
