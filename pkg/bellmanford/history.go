package bellmanford

import (
	"maps"
	"slices"
	"strconv"

	"github.com/ritzau/bellman-viz/pkg/model"
)

// Row is one line of the iteration table: the distances after a pass
type Row struct {
	Iteration  int                       `json:"iteration"`
	CycleCheck bool                      `json:"cycleCheck"`
	Highlight  string                    `json:"highlight,omitempty"` // Node set to -∞ by the cycle check
	Distances  map[string]model.Distance `json:"distances"`
}

// Label is the row header shown in the iteration table
func (r Row) Label() string {
	if r.CycleCheck {
		return "Cycle Check"
	}
	return "Iteration " + strconv.Itoa(r.Iteration)
}

// History is the iteration table of a run. Columns are node ids in sorted order.
type History struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func newHistory(ids []string) *History {
	cols := slices.Clone(ids)
	slices.Sort(cols)
	return &History{Columns: cols}
}

func (h *History) record(iteration int, dist map[string]model.Distance, cycleCheck bool, highlight string) {
	h.Rows = append(h.Rows, Row{
		Iteration:  iteration,
		CycleCheck: cycleCheck,
		Highlight:  highlight,
		Distances:  maps.Clone(dist),
	})
}

func (h *History) clone() History {
	if h == nil {
		return History{}
	}
	out := History{Columns: slices.Clone(h.Columns), Rows: make([]Row, len(h.Rows))}
	for i, r := range h.Rows {
		r.Distances = maps.Clone(r.Distances)
		out.Rows[i] = r
	}
	return out
}
