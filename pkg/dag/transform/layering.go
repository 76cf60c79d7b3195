package transform

import (
	"slices"

	"github.com/matzehuels/megamini/pkg/dag"
)

// AssignLayers assigns nodes to evaluation rows based on their depth in the
// graph.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed at one plus the maximum row of any of its
// inputs, ensuring that:
//   - Source nodes (no inputs) are at row 0
//   - All inputs are strictly above the values computed from them
//
// Existing row assignments in the DAG are overwritten.
//
// # Cycles
//
// Nodes on a cycle never reach zero in-degree. AssignLayers detects this and
// returns [dag.ErrGraphHasCycle] without touching the row assignments. Use
// [BackEdges] to find out which edges are responsible.
//
// # Performance
//
// Time complexity is O(V + E), where V is nodes and E is edges.
func AssignLayers(g *dag.DAG) error {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		visited++

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if visited != len(nodes) {
		return dag.ErrGraphHasCycle
	}

	g.SetRows(rows)
	return g.ValidateLayers()
}

// Order returns a deterministic topological order of the graph: rows from top
// to bottom, nodes within a row sorted by ID. It assigns layers first and
// returns [dag.ErrGraphHasCycle] when no order exists.
//
// Nodes in the same row never depend on each other, so any evaluator may
// process a row in any order; sorting only keeps the output reproducible.
func Order(g *dag.DAG) ([]string, error) {
	if err := AssignLayers(g); err != nil {
		return nil, err
	}
	order := make([]string, 0, g.NodeCount())
	for _, row := range g.RowIDs() {
		ids := dag.NodeIDs(g.NodesInRow(row))
		slices.Sort(ids)
		order = append(order, ids...)
	}
	return order, nil
}
