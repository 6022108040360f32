package graph

import (
	"errors"
	"testing"

	"github.com/ritzau/bellman-viz/pkg/model"
)

func newTriangle(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"A", "B", "C"} {
		if err := g.AddNode(model.NewNode(id, model.Position{})); err != nil {
			t.Fatalf("AddNode(%s) error = %v", id, err)
		}
	}
	for _, e := range []model.WeightedEdge{
		{From: "A", To: "B", Weight: 1},
		{From: "B", To: "C", Weight: 2},
		{From: "A", To: "C", Weight: 10},
	} {
		if _, err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			t.Fatalf("AddEdge(%s->%s) error = %v", e.From, e.To, err)
		}
	}
	return g
}

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}

	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("New graph should be empty, got %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestAddNode(t *testing.T) {
	g := New()

	if err := g.AddNode(model.NewNode("A", model.Position{X: 10, Y: 20})); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	node, err := g.FindNode("A")
	if err != nil {
		t.Fatalf("FindNode() error = %v", err)
	}
	if node.Position.X != 10 || node.Position.Y != 20 {
		t.Errorf("Expected position (10,20), got %+v", node.Position)
	}
	if !node.Distance.IsInf() {
		t.Errorf("New node should start at +inf, got %s", node.Distance)
	}

	if err := g.AddNode(model.NewNode("A", model.Position{})); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("Expected ErrDuplicateNode, got %v", err)
	}
	if err := g.AddNode(nil); !errors.Is(err, ErrEmptyNodeID) {
		t.Errorf("Expected ErrEmptyNodeID, got %v", err)
	}
}

func TestAddEdge(t *testing.T) {
	g := newTriangle(t)

	if g.EdgeCount() != 3 {
		t.Fatalf("Expected 3 edges, got %d", g.EdgeCount())
	}

	edges := g.Edges()
	if edges[0].From != "A" || edges[0].To != "B" || edges[2].Weight != 10 {
		t.Errorf("Edges not kept in declaration order: %+v", g.Topology())
	}

	tests := []struct {
		name     string
		from, to string
		want     error
	}{
		{"self loop", "A", "A", ErrSelfLoop},
		{"duplicate", "A", "B", ErrDuplicateEdge},
		{"missing from", "X", "B", ErrNodeNotFound},
		{"missing to", "A", "X", ErrNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.AddEdge(tt.from, tt.to, 1); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge(%s->%s) error = %v, want %v", tt.from, tt.to, err, tt.want)
			}
		})
	}

	// Reverse direction is a distinct edge
	if _, err := g.AddEdge("B", "A", -3); err != nil {
		t.Errorf("Reverse edge should be allowed, got %v", err)
	}
}

func TestFindNodeNotFound(t *testing.T) {
	g := newTriangle(t)

	if _, err := g.FindNode("Z"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
}

func TestFindEdge(t *testing.T) {
	g := newTriangle(t)

	edge, err := g.FindEdge("B", "C")
	if err != nil {
		t.Fatalf("FindEdge() error = %v", err)
	}
	if edge.Weight != 2 {
		t.Errorf("Expected weight 2, got %d", edge.Weight)
	}

	if _, err := g.FindEdge("C", "B"); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("Expected ErrEdgeNotFound, got %v", err)
	}
}

func TestMoveNode(t *testing.T) {
	g := newTriangle(t)
	before := g.Topology()

	if err := g.MoveNode("B", model.Position{X: 300, Y: 150}); err != nil {
		t.Fatalf("MoveNode() error = %v", err)
	}
	node, _ := g.FindNode("B")
	if node.Position.X != 300 || node.Position.Y != 150 {
		t.Errorf("Position not updated: %+v", node.Position)
	}

	after := g.Topology()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("Topology changed at %d: %v != %v", i, before[i], after[i])
		}
	}

	if err := g.MoveNode("Q", model.Position{}); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
}

func TestReachableFrom(t *testing.T) {
	g := newTriangle(t)
	_ = g.AddNode(model.NewNode("D", model.Position{}))

	reached, err := g.ReachableFrom("B")
	if err != nil {
		t.Fatalf("ReachableFrom() error = %v", err)
	}

	got := make(map[string]bool)
	for _, id := range reached {
		got[id] = true
	}
	if len(reached) != 2 || !got["B"] || !got["C"] {
		t.Errorf("Expected B and C reachable from B, got %v", reached)
	}

	if _, err := g.ReachableFrom("Z"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
}

func TestGonumIndex(t *testing.T) {
	g := newTriangle(t)

	a, _ := g.NodeID("A")
	c, _ := g.NodeID("C")
	if !g.Directed().HasEdgeFromTo(a, c) {
		t.Error("Expected gonum index to contain A->C")
	}
	if g.Directed().HasEdgeFromTo(c, a) {
		t.Error("Gonum index should not contain C->A")
	}

	name, ok := g.NodeByID(c)
	if !ok || name != "C" {
		t.Errorf("NodeByID(%d) = %q, %v", c, name, ok)
	}

	w, ok := g.Directed().Weight(a, c)
	if !ok || w != 10 {
		t.Errorf("Expected weight 10 on A->C, got %v (%v)", w, ok)
	}
}

func TestClone(t *testing.T) {
	g := newTriangle(t)
	edge, _ := g.FindEdge("A", "B")
	edge.IsInPath = true

	c := g.Clone()
	cEdge, err := c.FindEdge("A", "B")
	if err != nil {
		t.Fatalf("Clone lost edge: %v", err)
	}
	if !cEdge.IsInPath {
		t.Error("Clone should copy display flags")
	}

	cEdge.IsInPath = false
	if !edge.IsInPath {
		t.Error("Clone should not share edges with the original")
	}

	node, _ := c.FindNode("A")
	node.Position.X = 99
	orig, _ := g.FindNode("A")
	if orig.Position.X == 99 {
		t.Error("Clone should not share nodes with the original")
	}
}
