package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) again = %v, want %v", err, ErrDuplicateNodeID)
	}
	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestEnsureNode(t *testing.T) {
	g := New(nil)
	first, err := g.EnsureNode(Node{ID: "a", Kind: NodeKindPose})
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.EnsureNode(Node{ID: "a", Kind: NodeKindWorld})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("EnsureNode should return the existing node")
	}
	if second.Kind != NodeKindPose {
		t.Errorf("Kind = %v, want pose", second.Kind)
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	if err := g.AddEdge(Edge{From: "x", To: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("unknown source = %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("unknown target = %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "b"}); err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1 (duplicate edges are ignored)", g.EdgeCount())
	}
}

func TestValidate(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "b", To: "c"})
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	_ = g.AddEdge(Edge{From: "c", To: "a"})
	if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() = %v, want %v", err, ErrGraphHasCycle)
	}
}

func TestValidateLayers(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a", Row: 0})
	_ = g.AddNode(Node{ID: "b", Row: 0})
	_ = g.AddEdge(Edge{From: "a", To: "b"})

	if err := g.ValidateLayers(); !errors.Is(err, ErrRowOrder) {
		t.Errorf("ValidateLayers() = %v, want %v", err, ErrRowOrder)
	}

	g.SetRows(map[string]int{"b": 2})
	if err := g.ValidateLayers(); err != nil {
		t.Errorf("ValidateLayers() = %v, want nil", err)
	}
	if got := g.RowIDs(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("RowIDs() = %v, want [0 2]", got)
	}
}

func TestSources(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"c", "a", "b"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "c"})
	_ = g.AddEdge(Edge{From: "b", To: "c"})

	if got := NodeIDs(g.Sources()); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Sources() = %v", got)
	}
}

func TestNodeKindString(t *testing.T) {
	tests := map[NodeKind]string{
		NodeKindChannel:  "channel",
		NodeKindProperty: "property",
		NodeKindPose:     "pose",
		NodeKindWorld:    "world",
		NodeKind(99):     "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
