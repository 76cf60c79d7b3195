// Package transform provides graph passes that turn a rig's dependency graph
// into an evaluation schedule.
//
// # Layer Assignment
//
// [AssignLayers] computes the row (layer) of each node from its depth below
// the source nodes, using a topological traversal so that inputs always sit
// in rows above the values computed from them. [Order] flattens the rows into
// a deterministic evaluation order.
//
// For a rig this yields the ordering the formulas require:
//
//	ProxyField -> ProxyObserver -> ProxyPlaceFocus[i] -> Place[i].scale -> Place[i].location
//
// # Cycle Diagnosis
//
// [BackEdges] lists the edges that close a cycle without modifying the graph.
// A rig never contains a legitimate cycle, so any back edge is reported to the
// caller as an error rather than silently removed.
//
// # Usage
//
//	order, err := transform.Order(g)
//	if err != nil {
//	    return fmt.Errorf("cycle via %v: %w", transform.BackEdges(g), err)
//	}
//	for _, id := range order {
//	    evaluate(id)
//	}
package transform
