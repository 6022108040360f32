package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/ritzau/bellman-viz/pkg/controller"
	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/model"
)

func runSnapshot(t *testing.T, ids []string, edges []model.WeightedEdge, source, target string) controller.Snapshot {
	t.Helper()

	g := graph.New()
	for _, id := range ids {
		if err := g.AddNode(model.NewNode(id, model.Position{})); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			t.Fatal(err)
		}
	}

	c := controller.New(g)
	if err := c.SelectSource(source); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectTarget(target); err != nil {
		t.Fatal(err)
	}
	_ = c.RunToCompletion()
	return c.Snapshot()
}

func TestPrintRunReportPath(t *testing.T) {
	color.NoColor = true

	snap := runSnapshot(t, []string{"A", "B", "C"}, []model.WeightedEdge{
		{From: "A", To: "B", Weight: 1},
		{From: "B", To: "C", Weight: 2},
		{From: "A", To: "C", Weight: 10},
	}, "A", "C")

	var buf bytes.Buffer
	PrintRunReport(&buf, snap)
	out := buf.String()

	for _, want := range []string{
		"Nodes: 3  Edges: 3",
		"Iteration 0",
		"Iteration 2",
		"Cycle Check",
		"Shortest Path Found!",
		"Path: A → B → C",
		"Total Cost: 3",
		"Iteration:      3 / 2",
		"Negative cycle: Not Detected",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}
}

func TestPrintRunReportNegativeCycle(t *testing.T) {
	color.NoColor = true

	snap := runSnapshot(t, []string{"A", "B"}, []model.WeightedEdge{
		{From: "A", To: "B", Weight: -1},
		{From: "B", To: "A", Weight: -1},
	}, "A", "B")

	var buf bytes.Buffer
	PrintRunReport(&buf, snap)
	out := buf.String()

	for _, want := range []string{
		"Cyclic components:",
		"{A, B} weight -2 (has negative edges)",
		"Negative Cycle Detected!",
		"During the final check (Iteration 2)",
		"dist(",
		"Cycle: A → B → A",
		"-∞",
		"Negative cycle: Detected",
		"contains a negative cycle",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}
}

func TestPrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintHistory(&buf, controller.Snapshot{}.History)
	if !strings.Contains(buf.String(), "Run the algorithm") {
		t.Errorf("Expected placeholder, got %q", buf.String())
	}
}
