package library

import (
	"fmt"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
)

// Library is an ordered set of bundles, unique by key.
type Library struct {
	content []*Data
}

// New builds a library from a single bundle, a list of bundles, or a map of
// bundles keyed by name. Map input is added in sorted key order. nil yields an
// empty library.
func New(input any) (*Library, error) {
	l := &Library{}
	bundles, err := splitInput(input)
	if err != nil {
		return nil, diag.Default().Fail(err)
	}
	for _, b := range bundles {
		if err := l.AddData(b); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// splitInput classifies construction input into individual bundle inputs.
func splitInput(input any) ([]any, error) {
	switch x := input.(type) {
	case nil:
		return nil, nil
	case *Data, Data, []byte, string:
		return []any{x}, nil
	case []*Data:
		out := make([]any, len(x))
		for i, d := range x {
			out[i] = d
		}
		return out, nil
	case []Data:
		out := make([]any, len(x))
		for i := range x {
			out[i] = &x[i]
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(x))
		for i, d := range x {
			out[i] = d
		}
		return out, nil
	case []any:
		return x, nil
	case map[string]*Data:
		out := make([]any, 0, len(x))
		for _, k := range sortedKeys(x) {
			out = append(out, x[k])
		}
		return out, nil
	case map[string]any:
		if _, ok := x["key"]; ok {
			return []any{x}, nil
		}
		out := make([]any, 0, len(x))
		for _, k := range sortedKeys(x) {
			if !isBundle(x[k]) {
				return nil, fmt.Errorf("%w: entry %q is not a keyed bundle", errs.ErrMalformedInput, k)
			}
			out = append(out, x[k])
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot build a library from %T", errs.ErrMalformedInput, input)
}

func isBundle(v any) bool {
	switch x := v.(type) {
	case *Data:
		return x != nil
	case Data:
		return true
	case map[string]any:
		_, ok := x["key"].(string)
		return ok
	}
	return false
}

// Content returns the bundles in insertion order.
func (l *Library) Content() []*Data {
	out := make([]*Data, len(l.content))
	copy(out, l.content)
	return out
}

// Len reports the number of bundles.
func (l *Library) Len() int {
	return len(l.content)
}

// Has reports whether a bundle exists for key. key is a string, a bundle, or
// a decoded map carrying a "key" field.
func (l *Library) Has(key any) (bool, error) {
	k, err := keyOf(key)
	if err != nil {
		return false, err
	}
	return l.index(k) >= 0, nil
}

// Get returns the bundle stored under key.
func (l *Library) Get(key any) (*Data, error) {
	k, err := keyOf(key)
	if err != nil {
		return nil, err
	}
	i := l.index(k)
	if i < 0 {
		return nil, diag.Default().Fail(fmt.Errorf("%w: library has no bundle %q", errs.ErrNotFound, k))
	}
	return l.content[i], nil
}

// AddData converts data and either merges it into the bundle with the same
// key or appends it.
//
// Merging keeps existing definitions on conflict, appends value lists per
// key and concatenates templates old then new.
func (l *Library) AddData(data any) error {
	d, err := Convert(data)
	if err != nil {
		return err
	}
	i := l.index(d.Key)
	if i < 0 {
		l.content = append(l.content, d)
		return nil
	}
	l.content[i] = merge(l.content[i], d)
	return nil
}

// SetData converts data and inserts it, replacing any bundle with the same
// key without merging.
func (l *Library) SetData(data any) error {
	d, err := Convert(data)
	if err != nil {
		return err
	}
	if i := l.index(d.Key); i >= 0 {
		l.content[i] = d
		return nil
	}
	l.content = append(l.content, d)
	return nil
}

// Delete removes the bundle stored under key.
func (l *Library) Delete(key any) error {
	k, err := keyOf(key)
	if err != nil {
		return err
	}
	i := l.index(k)
	if i < 0 {
		return diag.Default().Fail(fmt.Errorf("%w: library has no bundle %q", errs.ErrNotFound, k))
	}
	l.content = append(l.content[:i], l.content[i+1:]...)
	return nil
}

func (l *Library) index(key string) int {
	for i, d := range l.content {
		if d.Key == key {
			return i
		}
	}
	return -1
}

func merge(old, incoming *Data) *Data {
	out := old.Clone()
	for k, v := range incoming.Definitions {
		if _, ok := out.Definitions[k]; !ok {
			out.Definitions[k] = v
		}
	}
	for _, k := range sortedKeys(incoming.Values) {
		out.Values[k] = append(out.Values[k], incoming.Values[k]...)
	}
	out.Templates = append(out.Templates, incoming.Templates...)
	return out
}

func keyOf(key any) (string, error) {
	switch x := key.(type) {
	case string:
		return x, nil
	case *Data:
		if x != nil {
			return x.Key, nil
		}
	case Data:
		return x.Key, nil
	case map[string]any:
		if s, ok := x["key"].(string); ok {
			return s, nil
		}
	}
	return "", diag.Default().Fail(fmt.Errorf("%w: %T does not identify a bundle", errs.ErrMalformedInput, key))
}
