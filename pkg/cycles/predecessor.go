package cycles

import "slices"

// TracePredecessorCycle follows a predecessor function back from start and returns
// the cycle it ends up in, closed (first node repeated at the end) and rotated to
// begin at its smallest id. n is the number of nodes in the graph. The second result
// is false if the chain terminates (an empty predecessor) before closing a loop.
func TracePredecessorCycle(pred func(id string) string, start string, n int) ([]string, bool) {
	if n <= 0 {
		return nil, false
	}

	// After n hops at least one node has repeated, so cur is on the cycle
	cur := start
	for i := 0; i < n; i++ {
		cur = pred(cur)
		if cur == "" {
			return nil, false
		}
	}

	backward := []string{cur}
	for v := pred(cur); v != cur; v = pred(v) {
		if v == "" || len(backward) > n {
			return nil, false
		}
		backward = append(backward, v)
	}

	// Predecessor links point against the edge direction
	slices.Reverse(backward)

	first := 0
	for i, id := range backward {
		if id < backward[first] {
			first = i
		}
	}
	cycle := append(slices.Clone(backward[first:]), backward[:first]...)
	return append(cycle, cycle[0]), true
}
