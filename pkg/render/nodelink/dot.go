package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/megamini/pkg/dag"
	"github.com/matzehuels/megamini/pkg/render"
	"github.com/matzehuels/megamini/pkg/scene"
)

// Options configures diagram generation.
type Options struct {
	// Armature limits the diagram to one armature. Empty draws every node.
	Armature string
	// Detailed adds the evaluation row and formula to node labels.
	Detailed bool
	// AllChannels also draws channels that are neither driven nor read by a
	// driver.
	AllChannels bool
}

// ToDOT converts a scene evaluation graph to Graphviz DOT. Nodes of one
// frame are grouped in a cluster; properties stay outside the clusters.
//
// Driven channels are filled and, with Detailed, labelled with their formula.
func ToDOT(g *dag.DAG, opts Options) string {
	keep := make(map[string]bool)
	clusters := make(map[string][]*dag.Node)
	var loose []*dag.Node
	for _, n := range g.Nodes() {
		if !visible(g, n, opts) {
			continue
		}
		keep[n.ID] = true
		if f, ok := n.Meta[scene.MetaFrame].(string); ok && n.Kind != dag.NodeKindProperty {
			clusters[f] = append(clusters[f], n)
			continue
		}
		loose = append(loose, n)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for i, frame := range slices.Sorted(maps.Keys(clusters)) {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", frame)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range clusters[frame] {
			writeNode(&buf, "    ", n, opts.Detailed)
		}
		buf.WriteString("  }\n")
	}
	for _, n := range loose {
		writeNode(&buf, "  ", n, opts.Detailed)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if keep[e.From] && keep[e.To] {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func visible(g *dag.DAG, n *dag.Node, opts Options) bool {
	if opts.Armature != "" && n.Meta[scene.MetaArmature] != opts.Armature {
		return false
	}
	if n.Kind != dag.NodeKindChannel || opts.AllChannels {
		return true
	}
	// Every channel feeds its own pose; anything more means a driver reads it.
	_, driven := n.Meta[scene.MetaFormula]
	return driven || g.OutDegree(n.ID) > 1
}

func writeNode(buf *bytes.Buffer, indent string, n *dag.Node, detailed bool) {
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(fmtAttrs(n, fmtLabel(n, detailed)), ", "))
}

func fmtLabel(n *dag.Node, detailed bool) string {
	label, ok := n.Meta[scene.MetaLabel].(string)
	if !ok {
		label = n.ID
	}
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("row: %d", n.Row)}
	if f, ok := n.Meta[scene.MetaFormula]; ok {
		parts = append(parts, fmt.Sprintf("formula: %v", f))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case dag.NodeKindProperty:
		attrs = append(attrs, "shape=note", "fillcolor=lightyellow")
	case dag.NodeKindPose:
		attrs = append(attrs, "fillcolor=lightblue")
	case dag.NodeKindWorld:
		attrs = append(attrs, "shape=box3d", "style=filled", "fillcolor=lightgrey")
	case dag.NodeKindChannel:
		if _, driven := n.Meta[scene.MetaFormula]; driven {
			attrs = append(attrs, "shape=ellipse", "fillcolor=palegreen")
		} else {
			attrs = append(attrs, "shape=ellipse", "style=\"filled,dashed\"")
		}
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox with
// matching width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
