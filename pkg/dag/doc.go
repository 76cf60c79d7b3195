// Package dag provides the directed acyclic graph that orders rig evaluation.
//
// # Overview
//
// A MegaMini rig is a small dataflow program: the Place frames are computed
// from the proxy frames through a handful of formulas, and the ProxyObserver
// itself follows the Observer through a constraint. The scene describes every
// value that takes part as a [Node] and every "is computed from" relation as
// an [Edge]. Evaluating the graph in topological order guarantees that no
// formula ever reads a stale input.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode] and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "ProxyObserver/pose", Kind: dag.NodeKindPose})
//	g.AddNode(dag.Node{ID: "Place/scale.x", Kind: dag.NodeKindChannel})
//	g.AddEdge(dag.Edge{From: "ProxyObserver/pose", To: "Place/scale.x"})
//
// Use [DAG.Validate] to reject cycles before evaluating, then assign rows with
// the transform subpackage so that each row only depends on rows above it.
//
// # Node Kinds
//
//   - [NodeKindChannel]: one scalar channel of a frame (location.x, scale.z, ...)
//   - [NodeKindProperty]: a custom property such as the rig scale
//   - [NodeKindPose]: a frame's local transform after constraints
//   - [NodeKindWorld]: a frame's world transform
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph.
//
// # Related Packages
//
// The [transform] subpackage assigns evaluation layers and reports the edges
// that close a cycle.
//
// [transform]: github.com/matzehuels/megamini/pkg/dag/transform
package dag
