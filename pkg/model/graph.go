package model

// Node represents a vertex of the weighted graph together with the display state
// the visualizer renders for it.
type Node struct {
	ID           string   `json:"id"`
	Position     Position `json:"position"`
	Distance     Distance `json:"distance"`
	Predecessor  string   `json:"predecessor,omitempty"` // Empty when there is no predecessor
	IsSource     bool     `json:"isSource"`
	IsTarget     bool     `json:"isTarget"`
	IsProcessing bool     `json:"isProcessing"`
}

// NewNode creates an unreached node at the given position
func NewNode(id string, pos Position) *Node {
	return &Node{
		ID:       id,
		Position: pos,
		Distance: Infinity,
	}
}

// ResetDisplay returns the algorithm-owned display fields to their defaults
func (n *Node) ResetDisplay() {
	n.Distance = Infinity
	n.Predecessor = ""
	n.IsProcessing = false
}

// Edge represents a directed, weighted connection between two nodes.
type Edge struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Weight       int    `json:"weight"`
	IsProcessing bool   `json:"isProcessing"`
	IsInPath     bool   `json:"isInPath"`
}

// ResetDisplay clears the processing and path flags
func (e *Edge) ResetDisplay() {
	e.IsProcessing = false
	e.IsInPath = false
}

// Key identifies the edge by its endpoints
func (e *Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// EdgeKey is the (from, to) pair that must be unique within a graph
type EdgeKey struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WeightedEdge is the topology-only view of an edge
type WeightedEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}
