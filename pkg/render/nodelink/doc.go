// Package nodelink draws a scene's evaluation graph as a node-link diagram.
//
// # Overview
//
// Every value the scene evaluates is a node: channels, custom properties,
// frame poses and frame world transforms. Edges point from a value to the
// values computed from it, so the diagram shows exactly why a Place follows
// its ProxyPlace and what its scale depends on.
//
// # Usage
//
// Convert the graph to DOT, then render to SVG:
//
//	g, err := s.Graph()
//	dot := nodelink.ToDOT(g, nodelink.Options{Armature: "MegaMini"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Options
//
//   - Armature: draw one armature only
//   - Detailed: add evaluation rows and formula names to labels
//   - AllChannels: also draw channels no driver writes or reads
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
