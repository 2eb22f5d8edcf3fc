// Package value implements the weighted-value model: the Item type, the
// parser that normalises heterogeneous value shapes into weighted items, and
// weighted random selection.
package value

import (
	"encoding/json"
	"math"
	"strconv"

	"fortio.org/safecast"
)

// Item is one weighted candidate string.
type Item struct {
	Value  string `json:"value" yaml:"value" toml:"value" msgpack:"value"`
	Weight int    `json:"weight" yaml:"weight" toml:"weight" msgpack:"weight"`
}

// NewItem builds an item, normalising the weight.
func NewItem(v string, weight int) Item {
	return Item{Value: v, Weight: NormalizeWeight(weight)}
}

// EffectiveWeight is the weight used for selection: the stored weight when
// positive, otherwise 1.
func (it Item) EffectiveWeight() int {
	return NormalizeWeight(it.Weight)
}

// MaxWeight is the largest weight an item keeps. Larger weights are clamped.
const MaxWeight = math.MaxInt32

// NormalizeWeight maps non-positive weights to the default of 1 and clamps
// weights above MaxWeight.
func NormalizeWeight(w int) int {
	if w <= 0 {
		return 1
	}
	return min(w, MaxWeight)
}

// Values returns the value strings of items, in order.
func Values(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}

// Weights returns the effective weights of items, in order.
func Weights(items []Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.EffectiveWeight()
	}
	return out
}

// Clone copies items so the result can be mutated independently.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// =============================================================================
// Numeric coercion for decoded documents
// =============================================================================

// ToInt converts a decoded number (JSON float64, TOML int64, YAML int or
// json.Number) into an int. It reports false for strings, non-integral and
// out-of-range values.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		out, err := safecast.Conv[int](n)
		return out, err == nil
	case uint:
		out, err := safecast.Conv[int](n)
		return out, err == nil
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		out, err := safecast.Conv[int](n)
		return out, err == nil
	case uint64:
		out, err := safecast.Conv[int](n)
		return out, err == nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return ToInt(i)
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	}
	return 0, false
}

// ToFloat converts a decoded numeric value into a float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := ToInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	out, err := safecast.Convert[int](f)
	return out, err == nil
}

// weightOf reads an optional decoded weight. Missing, non-integral and
// non-positive weights become 1.
func weightOf(v any) int {
	if v == nil {
		return 1
	}
	w, ok := ToInt(v)
	if !ok {
		return 1
	}
	return NormalizeWeight(w)
}
