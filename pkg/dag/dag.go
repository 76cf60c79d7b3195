package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrRowOrder is returned by [DAG.ValidateLayers] when an edge does not
	// point to a strictly deeper row. Evaluation layers must place every
	// input above the values computed from it.
	ErrRowOrder = errors.New("edges must point to a deeper row")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// A cycle means a value depends on itself and has no evaluation order.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// The scene uses it to record which frame, channel or driver a node stands
// for. Metadata maps are never nil after a node is added.
type Metadata map[string]any

// NodeKind distinguishes the values a node represents in the evaluation graph.
type NodeKind int

const (
	// NodeKindChannel is a single animatable value: one axis of a frame's
	// location, rotation or scale, or a constraint influence. Driven
	// channels are computed from their driver's inputs.
	NodeKindChannel NodeKind = iota
	// NodeKindProperty is a custom property (rig parameter or per-frame
	// multiplier). Properties are never driven, so they are always sources.
	NodeKindProperty
	// NodeKindPose is a frame's evaluated local transform: its channels with
	// constraints applied.
	NodeKindPose
	// NodeKindWorld is a frame's world transform: the parent's world
	// transform composed with the frame's rest offset and pose.
	NodeKindWorld
)

// String returns a short lowercase label for the kind.
func (k NodeKind) String() string {
	switch k {
	case NodeKindChannel:
		return "channel"
	case NodeKindProperty:
		return "property"
	case NodeKindPose:
		return "pose"
	case NodeKindWorld:
		return "world"
	}
	return "unknown"
}

// Node represents a value in the evaluation graph with an assigned row (layer).
// Rows are computed by [transform.AssignLayers]; row 0 holds values that depend
// on nothing else.
//
// The zero value is not usable - ID must be set before adding to a DAG.
//
// [transform.AssignLayers]: github.com/matzehuels/megamini/pkg/dag/transform
type Node struct {
	ID   string   // Unique identifier
	Row  int      // Evaluation layer (0 = sources)
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
	Kind NodeKind // What the node stands for
}

// Edge represents a dependency: the value at To is computed from the value at From.
type Edge struct {
	From string   // Input node ID
	To   string   // Dependent node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// DAG is a directed acyclic graph of evaluation dependencies.
// Nodes are organized into rows (layers) so that every edge points to a
// deeper row once layering has been applied.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> dependent IDs
	incoming map[string][]string // nodeID -> input IDs
	rows     map[int][]*Node     // row -> nodes in that row
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph and indexes it by its Row.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists. The node's Meta field is
// automatically initialized to an empty map if nil.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// EnsureNode adds the node if no node with its ID exists yet and returns
// the stored node either way. It is a convenience for graph builders that
// reach the same input from several dependents.
func (d *DAG) EnsureNode(n Node) (*Node, error) {
	if existing, ok := d.nodes[n.ID]; ok {
		return existing, nil
	}
	if err := d.AddNode(n); err != nil {
		return nil, err
	}
	return d.nodes[n.ID], nil
}

// SetRows updates the row assignments for nodes and rebuilds the row index.
// Nodes not present in the rows map retain their current row assignment.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		n := d.nodes[id]
		if newRow, ok := rows[n.ID]; ok {
			n.Row = newRow
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist. Adding an edge that
// already exists is a no-op, so builders may declare a dependency twice.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(d.outgoing[e.From], e.To) {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Nodes returns all nodes in the graph sorted by ID.
// The returned slice contains pointers to the actual node structs, so
// modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in the graph in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs of nodes computed from this node.
// The returned slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns all nodes assigned to the given row.
// Returns nil if the row is empty.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowIDs returns all row indices in sorted ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// Sources returns nodes with no incoming edges, sorted by ID.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.Nodes() {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Validate checks graph integrity and returns nil if valid.
// It verifies that every edge connects existing nodes and that the graph is
// acyclic. Returns ErrInvalidEdgeEndpoint or ErrGraphHasCycle.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
	}
	return d.detectCycles()
}

// ValidateLayers checks that every edge points to a strictly deeper row.
// It holds after a successful layer assignment on an acyclic graph.
func (d *DAG) ValidateLayers() error {
	for _, e := range d.edges {
		src, okS := d.nodes[e.From]
		dst, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if dst.Row <= src.Row {
			return ErrRowOrder
		}
	}
	return nil
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for id := range d.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// NodeIDs extracts the ID from each node in a slice.
// Returns a new slice containing the IDs in the same order as the input.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
