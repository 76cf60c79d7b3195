// Package render converts rendered graph views between output formats.
//
// The [nodelink] subpackage draws a scene's evaluation graph as a Graphviz
// diagram and produces SVG in-process. [ToPDF] and [ToPNG] turn that SVG into
// other formats with the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
package render
