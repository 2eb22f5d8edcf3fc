package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
)

// shape is the classified form of a raw value input.
type shape int

const (
	shapeEmpty shape = iota
	shapeDelimited
	shapeStrings
	shapeItems
	shapeMixed
)

// classify decides which normalisation applies to v. Anything outside the
// known shapes is rejected.
func classify(v any) (shape, error) {
	switch x := v.(type) {
	case nil:
		return shapeEmpty, nil
	case string:
		return shapeDelimited, nil
	case []string:
		if len(x) == 0 {
			return shapeEmpty, nil
		}
		return shapeStrings, nil
	case []Item:
		if len(x) == 0 {
			return shapeEmpty, nil
		}
		return shapeItems, nil
	case []any:
		if len(x) == 0 {
			return shapeEmpty, nil
		}
		return shapeMixed, nil
	}
	return shapeEmpty, fmt.Errorf("%w: unsupported value container %T", errs.ErrMalformedInput, v)
}

// Prep normalises a raw value representation into weighted items.
//
// Accepted inputs:
//   - nil or an empty list: no items
//   - a string of "|"-separated alternatives, optionally wrapped in {}
//   - a list of strings, each optionally suffixed with ":<weight>"
//   - a list of Items
//   - a decoded list whose elements are strings, [value, weight?] tuples or
//     {value, weight?} objects
//
// Explicit weights override derived weights positionally. An explicit weight
// that is not a positive integer is ignored.
func Prep(v any, weights ...float64) ([]Item, error) {
	kind, err := classify(v)
	if err != nil {
		return nil, diag.Default().Fail(err)
	}

	var items []Item
	switch kind {
	case shapeEmpty:
		return []Item{}, nil
	case shapeDelimited:
		items = fromStrings(SplitDelimited(v.(string)))
	case shapeStrings:
		items = fromStrings(v.([]string))
	case shapeItems:
		src := v.([]Item)
		items = make([]Item, len(src))
		for i, it := range src {
			items[i] = NewItem(it.Value, it.Weight)
		}
	case shapeMixed:
		items, err = fromDecoded(v.([]any))
		if err != nil {
			return nil, diag.Default().Fail(err)
		}
	}

	applyWeights(items, weights)
	return items, nil
}

// MustPrep is Prep for literals known to be well formed. It panics on error.
func MustPrep(v any, weights ...float64) []Item {
	items, err := Prep(v, weights...)
	if err != nil {
		panic(err)
	}
	return items
}

// SplitDelimited strips brace syntax from s and splits it on "|".
func SplitDelimited(s string) []string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.Split(s, "|")
}

func fromStrings(strs []string) []Item {
	values, ws := SplitValueWeights(strs)
	items := make([]Item, len(values))
	for i := range values {
		items[i] = Item{Value: values[i], Weight: ws[i]}
	}
	return items
}

func fromDecoded(list []any) ([]Item, error) {
	items := make([]Item, 0, len(list))
	for i, el := range list {
		switch x := el.(type) {
		case string:
			items = append(items, fromStrings([]string{x})...)
		case Item:
			items = append(items, NewItem(x.Value, x.Weight))
		case []any:
			it, err := fromTuple(x)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, it)
		case []string:
			if len(x) == 0 || len(x) > 2 {
				return nil, fmt.Errorf("%w: element %d: tuple must have 1 or 2 entries", errs.ErrMalformedInput, i)
			}
			it := Item{Value: x[0], Weight: 1}
			if len(x) == 2 {
				if w, err := strconv.Atoi(x[1]); err == nil {
					it.Weight = NormalizeWeight(w)
				}
			}
			items = append(items, it)
		case map[string]any:
			it, err := fromObject(x)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, it)
		default:
			return nil, fmt.Errorf("%w: element %d has unsupported type %T", errs.ErrMalformedInput, i, el)
		}
	}
	return items, nil
}

func fromTuple(t []any) (Item, error) {
	if len(t) == 0 || len(t) > 2 {
		return Item{}, fmt.Errorf("%w: tuple must have 1 or 2 entries, got %d", errs.ErrMalformedInput, len(t))
	}
	s, ok := t[0].(string)
	if !ok {
		return Item{}, fmt.Errorf("%w: tuple value must be a string, got %T", errs.ErrMalformedInput, t[0])
	}
	it := Item{Value: s, Weight: 1}
	if len(t) == 2 {
		it.Weight = weightOf(t[1])
	}
	return it, nil
}

func fromObject(m map[string]any) (Item, error) {
	raw, ok := m["value"]
	if !ok {
		return Item{}, fmt.Errorf("%w: object has no value field", errs.ErrMalformedInput)
	}
	s, ok := raw.(string)
	if !ok {
		return Item{}, fmt.Errorf("%w: object value must be a string, got %T", errs.ErrMalformedInput, raw)
	}
	return Item{Value: s, Weight: weightOf(m["weight"])}, nil
}

func applyWeights(items []Item, weights []float64) {
	for i, w := range weights {
		if i >= len(items) {
			return
		}
		if w > 0 && w == math.Trunc(w) && w <= MaxWeight {
			items[i].Weight = int(w)
		}
	}
}

// =============================================================================
// Shorthand weight syntax
// =============================================================================

// SplitValueWeights separates "value:weight" shorthand. A colon escaped as
// "\:" is not a separator and is unescaped in the returned value. Entries
// without a weight get 1.
func SplitValueWeights(strs []string) ([]string, []int) {
	values := make([]string, len(strs))
	weights := make([]int, len(strs))
	for i, s := range strs {
		v, w := splitWeight(s)
		values[i] = strings.ReplaceAll(v, `\:`, ":")
		weights[i] = w
	}
	return values, weights
}

func splitWeight(s string) (string, int) {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end || start == 0 || s[start-1] != ':' {
		return s, 1
	}
	colon := start - 1
	if colon > 0 && s[colon-1] == '\\' {
		return s, 1
	}
	w, err := strconv.Atoi(s[start:end])
	if err != nil {
		// Only overflow reaches here: the run is all digits.
		w = MaxWeight
	}
	return s[:colon], NormalizeWeight(w)
}
