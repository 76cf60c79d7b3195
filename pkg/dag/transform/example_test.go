package transform_test

import (
	"fmt"

	"github.com/matzehuels/megamini/pkg/dag"
	"github.com/matzehuels/megamini/pkg/dag/transform"
)

func ExampleOrder() {
	// The Place scale reads the ProxyObserver and the focus; the location
	// reads the scale. Evaluation must resolve them top-down.
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "ProxyObserver"})
	_ = g.AddNode(dag.Node{ID: "ProxyPlaceFocus"})
	_ = g.AddNode(dag.Node{ID: "Place.scale"})
	_ = g.AddNode(dag.Node{ID: "Place.location"})
	_ = g.AddEdge(dag.Edge{From: "ProxyObserver", To: "Place.scale"})
	_ = g.AddEdge(dag.Edge{From: "ProxyPlaceFocus", To: "Place.scale"})
	_ = g.AddEdge(dag.Edge{From: "Place.scale", To: "Place.location"})

	order, _ := transform.Order(g)
	fmt.Println(order)
	// Output:
	// [ProxyObserver ProxyPlaceFocus Place.scale Place.location]
}

func ExampleBackEdges() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddNode(dag.Node{ID: "b"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "a"})

	fmt.Println(len(transform.BackEdges(g)))
	// Output:
	// 1
}
