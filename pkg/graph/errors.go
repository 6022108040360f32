package graph

import "errors"

// Sentinel errors returned by Graph operations.
var (
	// ErrNodeNotFound indicates that no node has the requested id.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrEdgeNotFound indicates that no edge joins the requested endpoints.
	ErrEdgeNotFound = errors.New("graph: edge not found")

	// ErrEmptyNodeID indicates a nil node or a node without an id.
	ErrEmptyNodeID = errors.New("graph: node id is empty")

	// ErrDuplicateNode indicates that a node id is already in use.
	ErrDuplicateNode = errors.New("graph: duplicate node id")

	// ErrDuplicateEdge indicates that an edge with the same (from, to) already exists.
	ErrDuplicateEdge = errors.New("graph: duplicate edge")

	// ErrSelfLoop indicates an edge whose endpoints are the same node.
	ErrSelfLoop = errors.New("graph: self-loops are not allowed")
)
