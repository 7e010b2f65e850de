// Package dot renders mesh topologies as Graphviz DOT source and raster
// images.
//
// # Overview
//
// [Marshal] produces an undirected DOT graph laid out with sfdp, styled to
// surface the resilience analysis at a glance: the gateway (node 0) is
// blue, cut vertices are red, and planner-added redundant links are drawn
// green and thick. [RenderSVG] and [RenderPNG] rasterize the DOT source
// in process.
//
// # Usage
//
//	src := dot.Marshal(g, analysis, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// The DOT source is also valid input for external Graphviz tooling
// (sfdp, neato), which is useful for very large meshes.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], an in-process Graphviz
// build with no external binary requirement.
package dot
