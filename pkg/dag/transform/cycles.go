package transform

import "github.com/matzehuels/megamini/pkg/dag"

// BackEdges returns the edges that close a cycle, found by a depth-first
// search from the sources and then from any node not yet reached. The graph is
// not modified. An empty result means the graph is acyclic.
//
// The scene uses this to explain why a driver could not be bound: the first
// back edge names the input that would end up depending on its own output.
func BackEdges(g *dag.DAG) [][2]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	return backEdges
}
