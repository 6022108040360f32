package graph

import (
	"fmt"

	"github.com/ritzau/bellman-viz/pkg/model"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Graph holds the nodes and edges of a directed weighted graph in declaration order.
// A gonum weighted directed graph mirrors the topology and serves as the adjacency index.
type Graph struct {
	nodes   []*model.Node
	edges   []*model.Edge
	byID    map[string]int        // node id -> index into nodes
	byKey   map[model.EdgeKey]int // (from, to) -> index into edges
	ids     map[string]int64      // node id -> gonum id
	names   map[int64]string      // gonum id -> node id
	weights *simple.WeightedDirectedGraph
	nextID  int64
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		nodes:   make([]*model.Node, 0),
		edges:   make([]*model.Edge, 0),
		byID:    make(map[string]int),
		byKey:   make(map[model.EdgeKey]int),
		ids:     make(map[string]int64),
		names:   make(map[int64]string),
		weights: simple.NewWeightedDirectedGraph(0, 0),
	}
}

// AddNode appends a node. Its id must not be in use.
func (g *Graph) AddNode(node *model.Node) error {
	if node == nil || node.ID == "" {
		return ErrEmptyNodeID
	}
	if _, exists := g.byID[node.ID]; exists {
		return fmt.Errorf("add node %s: %w", node.ID, ErrDuplicateNode)
	}

	g.byID[node.ID] = len(g.nodes)
	g.nodes = append(g.nodes, node)

	g.ids[node.ID] = g.nextID
	g.names[g.nextID] = node.ID
	g.weights.AddNode(simple.Node(g.nextID))
	g.nextID++

	return nil
}

// AddEdge appends a directed edge from -> to.
// Both endpoints must exist, the edge must not be a self-loop and must not duplicate (from, to).
func (g *Graph) AddEdge(from, to string, weight int) (*model.Edge, error) {
	if from == to {
		return nil, fmt.Errorf("add edge %s->%s: %w", from, to, ErrSelfLoop)
	}
	fromID, ok := g.ids[from]
	if !ok {
		return nil, fmt.Errorf("add edge %s->%s: from %s: %w", from, to, from, ErrNodeNotFound)
	}
	toID, ok := g.ids[to]
	if !ok {
		return nil, fmt.Errorf("add edge %s->%s: to %s: %w", from, to, to, ErrNodeNotFound)
	}
	if g.weights.HasEdgeFromTo(fromID, toID) {
		return nil, fmt.Errorf("add edge %s->%s: %w", from, to, ErrDuplicateEdge)
	}

	edge := &model.Edge{From: from, To: to, Weight: weight}
	g.byKey[edge.Key()] = len(g.edges)
	g.edges = append(g.edges, edge)

	g.weights.SetWeightedEdge(simple.WeightedEdge{
		F: simple.Node(fromID),
		T: simple.Node(toID),
		W: float64(weight),
	})

	return edge, nil
}

// HasEdge reports whether an edge from -> to exists
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.byKey[model.EdgeKey{From: from, To: to}]
	return ok
}

// FindNode returns the node with the given id.
// Callers rendering the graph must tolerate ErrNodeNotFound.
func (g *Graph) FindNode(id string) (*model.Node, error) {
	idx, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNodeNotFound)
	}
	return g.nodes[idx], nil
}

// FindEdge returns the edge from -> to. There is at most one by construction.
func (g *Graph) FindEdge(from, to string) (*model.Edge, error) {
	idx, ok := g.byKey[model.EdgeKey{From: from, To: to}]
	if !ok {
		return nil, fmt.Errorf("edge %s->%s: %w", from, to, ErrEdgeNotFound)
	}
	return g.edges[idx], nil
}

// MoveNode updates a node position. Topology is unchanged.
func (g *Graph) MoveNode(id string, pos model.Position) error {
	node, err := g.FindNode(id)
	if err != nil {
		return err
	}
	node.Position = pos
	return nil
}

// Nodes returns the nodes in declaration order
func (g *Graph) Nodes() []*model.Node {
	return g.nodes
}

// Edges returns the edges in declaration order
func (g *Graph) Edges() []*model.Edge {
	return g.edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// NodeIDs returns the node ids in declaration order
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Topology returns the (from, to, weight) triples in declaration order
func (g *Graph) Topology() []model.WeightedEdge {
	topo := make([]model.WeightedEdge, len(g.edges))
	for i, e := range g.edges {
		topo[i] = model.WeightedEdge{From: e.From, To: e.To, Weight: e.Weight}
	}
	return topo
}

// Directed returns the underlying gonum graph
func (g *Graph) Directed() *simple.WeightedDirectedGraph {
	return g.weights
}

// NodeID returns the gonum id for a node id
func (g *Graph) NodeID(id string) (int64, bool) {
	gid, ok := g.ids[id]
	return gid, ok
}

// NodeByID returns the node id for a gonum id
func (g *Graph) NodeByID(gid int64) (string, bool) {
	id, ok := g.names[gid]
	return id, ok
}

// ReachableFrom returns the ids of all nodes reachable from id, including id itself,
// in breadth-first order.
func (g *Graph) ReachableFrom(id string) ([]string, error) {
	gid, ok := g.ids[id]
	if !ok {
		return nil, fmt.Errorf("reachable from %q: %w", id, ErrNodeNotFound)
	}

	var reached []string
	bf := traverse.BreadthFirst{
		Visit: func(n gonumgraph.Node) {
			reached = append(reached, g.names[n.ID()])
		},
	}
	bf.Walk(g.weights, simple.Node(gid), nil)

	return reached, nil
}

// Clone returns a deep copy of the graph, display state included
func (g *Graph) Clone() *Graph {
	c := New()
	for _, n := range g.nodes {
		cp := *n
		_ = c.AddNode(&cp)
	}
	for i, e := range g.edges {
		_, _ = c.AddEdge(e.From, e.To, e.Weight)
		*c.edges[i] = *e
	}
	return c
}
