// Package generator builds random directed weighted graphs for the visualizer.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/logging"
	"github.com/ritzau/bellman-viz/pkg/model"
)

const (
	// MinNodes and MaxNodes bound the accepted node count; ids are single letters.
	MinNodes = 3
	MaxNodes = 26

	// Fallback node counts are drawn from [FallbackMin, FallbackMax]
	FallbackMin = 5
	FallbackMax = 8

	// Nodes are placed inside [MarginX, MarginX+SpreadX) x [MarginY, MarginY+SpreadY)
	// on an 800x600 canvas.
	MarginX = 100
	MarginY = 100
	SpreadX = 600
	SpreadY = 400

	// MinWeight and MaxWeight bound edge weights (inclusive)
	MinWeight = -10
	MaxWeight = 10

	// ExtraEdges is the exclusive upper bound of edges added on top of one per node
	ExtraEdges = 6

	attemptsPerEdge = 100
)

// ErrNoRandomSource is returned when the generator has no RNG
var ErrNoRandomSource = errors.New("generator: no random source")

// Options configures a Generator
type Options struct {
	// MaxAttempts bounds the rejected (from, to) draws before generation gives up
	// and returns the graph with the edges placed so far. Zero means attemptsPerEdge per edge.
	MaxAttempts int
}

// Option is a functional option for New
type Option func(*Options)

// WithMaxAttempts sets the rejected-draw budget. Negative values are ignored.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxAttempts = n
		}
	}
}

// Generator creates random graphs from an injected RNG
type Generator struct {
	rng  *rand.Rand
	opts Options
}

// New creates a generator drawing from rng
func New(rng *rand.Rand, opts ...Option) *Generator {
	g := &Generator{rng: rng}
	for _, opt := range opts {
		opt(&g.opts)
	}
	return g
}

// NewSeeded creates a generator with a PCG source seeded from seed
func NewSeeded(seed uint64, opts ...Option) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), opts...)
}

// ParseNodeCount interprets user input as a node count. The leading integer is
// used and trailing text ignored, so "7.5" and "7 nodes" both mean 7. Input
// without a leading integer, or a count outside [MinNodes, MaxNodes], is
// replaced by a random fallback.
func (g *Generator) ParseNodeCount(raw string) int {
	n, err := strconv.Atoi(leadingInt(strings.TrimSpace(raw)))
	if err != nil {
		logging.Debug("node count not numeric, using fallback", "input", raw)
		return g.fallback()
	}
	return g.ClampNodeCount(n)
}

// leadingInt returns the optional sign and digits at the start of s
func leadingInt(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

// ClampNodeCount returns n when it is within [MinNodes, MaxNodes], otherwise a
// random value in [FallbackMin, FallbackMax].
func (g *Generator) ClampNodeCount(n int) int {
	if n < MinNodes || n > MaxNodes {
		logging.Debug("node count out of range, using fallback", "requested", n)
		return g.fallback()
	}
	return n
}

func (g *Generator) fallback() int {
	return FallbackMin + g.rng.IntN(FallbackMax-FallbackMin+1)
}

// Generate builds a random graph with the requested node count (clamped).
// Every edge has distinct endpoints and no (from, to) pair repeats.
func (g *Generator) Generate(requested int) (*graph.Graph, error) {
	if g.rng == nil {
		return nil, ErrNoRandomSource
	}

	n := g.ClampNodeCount(requested)
	out := graph.New()

	for i := range n {
		pos := model.Position{
			X: MarginX + g.rng.Float64()*SpreadX,
			Y: MarginY + g.rng.Float64()*SpreadY,
		}
		if err := out.AddNode(model.NewNode(NodeName(i), pos)); err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
	}

	wanted := n + g.rng.IntN(ExtraEdges)
	if limit := n * (n - 1); wanted > limit {
		wanted = limit
	}

	budget := g.opts.MaxAttempts
	if budget == 0 {
		budget = attemptsPerEdge * wanted
	}

	rejected := 0
	for out.EdgeCount() < wanted {
		from := g.rng.IntN(n)
		to := g.rng.IntN(n)
		if from == to || out.HasEdge(NodeName(from), NodeName(to)) {
			rejected++
			if rejected >= budget {
				logging.Warn("edge sampling budget exhausted",
					"wanted", wanted,
					"placed", out.EdgeCount(),
					"attempts", rejected)
				break
			}
			continue
		}

		weight := MinWeight + g.rng.IntN(MaxWeight-MinWeight+1)
		if _, err := out.AddEdge(NodeName(from), NodeName(to), weight); err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
	}

	logging.Debug("generated graph", "nodes", out.NodeCount(), "edges", out.EdgeCount())
	return out, nil
}

// NodeName returns the id of the i-th generated node: "A", "B", ...
func NodeName(i int) string {
	return string(rune('A' + i))
}
