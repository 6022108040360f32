package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Distance is a path cost: a finite integer value, +∞ (unreached) or -∞ (unbounded below).
// It is stored as float64 so the infinities behave like the arithmetic the algorithm expects.
type Distance float64

var (
	// Infinity marks a node that has not been reached from the source
	Infinity = Distance(math.Inf(1))
	// NegativeInfinity marks a node whose cost is unbounded below
	NegativeInfinity = Distance(math.Inf(-1))
)

// Finite wraps an integer cost
func Finite(v int) Distance {
	return Distance(v)
}

// IsInf reports whether d is +∞
func (d Distance) IsInf() bool {
	return math.IsInf(float64(d), 1)
}

// IsNegInf reports whether d is -∞
func (d Distance) IsNegInf() bool {
	return math.IsInf(float64(d), -1)
}

// IsFinite reports whether d is neither +∞ nor -∞
func (d Distance) IsFinite() bool {
	return !math.IsInf(float64(d), 0)
}

// Add returns d + w. Infinite distances absorb the weight.
func (d Distance) Add(w int) Distance {
	return d + Distance(w)
}

// String renders d the way the iteration table displays it
func (d Distance) String() string {
	switch {
	case d.IsInf():
		return "∞"
	case d.IsNegInf():
		return "-∞"
	default:
		return strconv.FormatInt(int64(d), 10)
	}
}

// MarshalJSON encodes finite distances as numbers and infinities as "∞" / "-∞"
func (d Distance) MarshalJSON() ([]byte, error) {
	if d.IsFinite() {
		return []byte(strconv.FormatInt(int64(d), 10)), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts numbers, "∞", "-∞", "inf" and "-inf"
func (d *Distance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "∞", "inf", "+inf", "Infinity":
			*d = Infinity
		case "-∞", "-inf", "-Infinity":
			*d = NegativeInfinity
		default:
			return fmt.Errorf("invalid distance %q", s)
		}
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid distance %s: %w", data, err)
	}
	*d = Distance(n)
	return nil
}

// Position is a 2-D canvas coordinate. The algorithm never reads it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
