package cycles

import (
	"gonum.org/v1/gonum/graph"
)

// TarjanSCC finds the strongly connected components of a directed graph
type TarjanSCC struct {
	graph   graph.Directed
	order   []int64
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

// NewTarjanSCC creates a finder that visits roots in the given order.
// A nil order visits the graph's nodes in gonum iteration order.
func NewTarjanSCC(g graph.Directed, order []int64) *TarjanSCC {
	if order == nil {
		nodes := g.Nodes()
		for nodes.Next() {
			order = append(order, nodes.Node().ID())
		}
	}
	return &TarjanSCC{
		graph:   g,
		order:   order,
		stack:   make([]int64, 0),
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
		sccs:    make([][]int64, 0),
	}
}

// FindSCCs returns every component with more than one node
func (t *TarjanSCC) FindSCCs() [][]int64 {
	for _, id := range t.order {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

func (t *TarjanSCC) strongConnect(nodeID int64) {
	t.indices[nodeID] = t.index
	t.lowLink[nodeID] = t.index
	t.index++

	t.stack = append(t.stack, nodeID)
	t.onStack[nodeID] = true

	successors := t.graph.From(nodeID)
	for successors.Next() {
		successorID := successors.Node().ID()

		if _, visited := t.indices[successorID]; !visited {
			t.strongConnect(successorID)
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.lowLink[successorID])
		} else if t.onStack[successorID] {
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.indices[successorID])
		}
	}

	// Root of a component: pop it off the stack
	if t.lowLink[nodeID] == t.indices[nodeID] {
		scc := make([]int64, 0)
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == nodeID {
				break
			}
		}
		// Self-loops are rejected by the graph, so single nodes are never cyclic
		if len(scc) > 1 {
			t.sccs = append(t.sccs, scc)
		}
	}
}
