package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ritzau/bellman-viz/pkg/bellmanford"
	"github.com/ritzau/bellman-viz/pkg/controller"
)

const cellWidth = 6

// PrintGraph prints the nodes and edges of the snapshot's graph
func PrintGraph(w io.Writer, snap controller.Snapshot) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	red := color.New(color.FgRed)

	bold.Fprintln(w, "Bellman-Ford Visualizer - Graph")
	bold.Fprintln(w, "===============================")
	fmt.Fprintf(w, "Nodes: %d  Edges: %d\n", len(snap.Graph.Nodes), len(snap.Graph.Edges))

	for _, e := range snap.Graph.Edges {
		weight := fmt.Sprintf("%d", e.Weight)
		if e.Weight < 0 {
			weight = red.Sprint(weight)
		}
		fmt.Fprintf(w, "  %s -> %s  %s\n", cyan.Sprint(e.From), cyan.Sprint(e.To), weight)
	}

	if len(snap.Graph.Components) > 0 {
		fmt.Fprintln(w, "Cyclic components:")
		for _, c := range snap.Graph.Components {
			line := fmt.Sprintf("  {%s} weight %d", strings.Join(c.Nodes, ", "), c.Weight)
			if c.HasNegativeEdge {
				line += " (has negative edges)"
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)
}

// PrintHistory prints the iteration table, one row per pass
func PrintHistory(w io.Writer, history bellmanford.History) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed, color.Bold)

	if len(history.Rows) == 0 {
		fmt.Fprintln(w, "Run the algorithm to see the steps.")
		return
	}

	header := fmt.Sprintf("%-12s", "Iteration")
	for _, id := range history.Columns {
		header += fmt.Sprintf("%*s", cellWidth, "d("+id+")")
	}
	bold.Fprintln(w, header)

	for _, row := range history.Rows {
		line := fmt.Sprintf("%-12s", row.Label())
		for _, id := range history.Columns {
			cell := fmt.Sprintf("%*s", cellWidth, row.Distances[id].String())
			if id == row.Highlight {
				cell = red.Sprint(cell)
			}
			line += cell
		}
		if row.CycleCheck && row.Highlight != "" {
			red.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// PrintOutcome prints the cycle explanation, the path summary and the statistics
func PrintOutcome(w io.Writer, snap controller.Snapshot) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if snap.Report != nil && snap.Report.Detected {
		red.Fprintln(w, "Negative Cycle Detected!")
		e := snap.Report.Edge
		fmt.Fprintf(w, "During the final check (Iteration %d), the edge from %s to %s (weight: %d) could be relaxed further:\n",
			snap.Report.Iteration, e.From, e.To, e.Weight)
		fmt.Fprintf(w, "  %s\n", snap.Explanation)
		if len(snap.Report.Cycle) > 0 {
			fmt.Fprintf(w, "  Cycle: %s\n", snap.Report.CycleString())
		}
	}

	switch snap.Outcome {
	case controller.OutcomePathFound:
		green.Fprintln(w, "✓ Shortest Path Found!")
		fmt.Fprintf(w, "  Path: %s\n", snap.PathSummary)
		fmt.Fprintf(w, "  Total Cost: %s\n", snap.Path.Cost)
	case controller.OutcomeUnreachable:
		yellow.Fprintln(w, "Path Not Found")
		fmt.Fprintf(w, "  %s\n", snap.Notice)
	case controller.OutcomeNegativeCycle:
		fmt.Fprintf(w, "  %s\n", snap.Notice)
	}
	fmt.Fprintln(w)

	bold.Fprintln(w, "Statistics")
	fmt.Fprintf(w, "  Iteration:      %s\n", snap.Stats.Iteration)
	fmt.Fprintf(w, "  Nodes:          %d\n", snap.Stats.Nodes)
	fmt.Fprintf(w, "  Edges:          %d\n", snap.Stats.Edges)
	fmt.Fprintf(w, "  Path length:    %s\n", snap.Stats.PathLength)

	cycle := green
	if snap.State.HasNegativeCycle {
		cycle = red
	}
	fmt.Fprintf(w, "  Negative cycle: %s\n", cycle.Sprint(snap.Stats.NegativeCycle))
}

// PrintRunReport prints the graph, the iteration table and the outcome
func PrintRunReport(w io.Writer, snap controller.Snapshot) {
	PrintGraph(w, snap)
	PrintHistory(w, snap.History)
	PrintOutcome(w, snap)
}
