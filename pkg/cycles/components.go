package cycles

import (
	"slices"
	"strings"

	"github.com/ritzau/bellman-viz/pkg/graph"
)

// Component is a set of nodes that all reach each other. Any cycle in the graph,
// negative or not, lies inside one component.
type Component struct {
	Nodes []string `json:"nodes"`
	// Weight is the total weight of the component's internal edges
	Weight int `json:"weight"`
	// HasNegativeEdge is true when at least one internal edge is negative
	HasNegativeEdge bool `json:"hasNegativeEdge"`
}

// FindComponents returns the cyclic components of g. Node ids in each component
// are sorted, and components are ordered by their smallest id.
func FindComponents(g *graph.Graph) []Component {
	order := make([]int64, 0, g.NodeCount())
	for _, id := range g.NodeIDs() {
		if gid, ok := g.NodeID(id); ok {
			order = append(order, gid)
		}
	}

	sccs := NewTarjanSCC(g.Directed(), order).FindSCCs()

	components := make([]Component, 0, len(sccs))
	for _, scc := range sccs {
		members := make(map[string]bool, len(scc))
		nodes := make([]string, 0, len(scc))
		for _, gid := range scc {
			if id, ok := g.NodeByID(gid); ok {
				nodes = append(nodes, id)
				members[id] = true
			}
		}
		slices.Sort(nodes)

		c := Component{Nodes: nodes}
		for _, e := range g.Edges() {
			if members[e.From] && members[e.To] {
				c.Weight += e.Weight
				if e.Weight < 0 {
					c.HasNegativeEdge = true
				}
			}
		}
		components = append(components, c)
	}

	slices.SortFunc(components, func(a, b Component) int {
		return strings.Compare(a.Nodes[0], b.Nodes[0])
	})

	return components
}
