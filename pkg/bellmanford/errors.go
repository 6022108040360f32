package bellmanford

import (
	"errors"

	"github.com/ritzau/bellman-viz/pkg/graph"
)

var (
	// ErrNoSourceSelected is returned when a run is requested without a source
	ErrNoSourceSelected = errors.New("bellmanford: no source selected")

	// ErrNodeNotFound is the graph lookup error, re-exported for callers of the engine
	ErrNodeNotFound = graph.ErrNodeNotFound

	// ErrNotInitialized is returned by Step before Initialize
	ErrNotInitialized = errors.New("bellmanford: run not initialized")

	// ErrRelaxationComplete is returned by Step once all |V|-1 passes are done
	ErrRelaxationComplete = errors.New("bellmanford: relaxation passes complete")

	// ErrRelaxationIncomplete is returned by CheckNegativeCycle before convergence
	ErrRelaxationIncomplete = errors.New("bellmanford: relaxation passes incomplete")

	// ErrNotFinalized is returned by ReconstructPath before the cycle check
	ErrNotFinalized = errors.New("bellmanford: cycle check not performed")

	// ErrNoTargetSelected is returned by ReconstructPath without a target
	ErrNoTargetSelected = errors.New("bellmanford: no target selected")

	// ErrNegativeCycle means no shortest path exists because a negative cycle was detected
	ErrNegativeCycle = errors.New("bellmanford: negative cycle detected")

	// ErrUnreachable means the target has no path from the source
	ErrUnreachable = errors.New("bellmanford: target unreachable")

	// ErrCorruptPredecessors means the predecessor chain is broken or loops.
	// It indicates a bug, never a property of the input graph.
	ErrCorruptPredecessors = errors.New("bellmanford: corrupt predecessor chain")
)

// Informational reports whether err is an expected run outcome the user should be
// told about rather than a failure.
func Informational(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrNegativeCycle)
}

// Fatal reports whether err indicates inconsistent engine state
func Fatal(err error) bool {
	return errors.Is(err, ErrCorruptPredecessors)
}
