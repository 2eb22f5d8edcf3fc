// Package refs finds references to value-map keys in generator text.
//
// One Aho-Corasick automaton holds every reference form of every key, so a
// whole library is checked in a single pass per text.
package refs

import (
	"sort"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Form is the syntactic shape of a reference.
type Form int

const (
	FormSet         Form = iota // %key%
	FormAlternative             // %a|key% and friends
	FormConditional             // @if:key{...}, @!if:key=v%...%
)

func (f Form) String() string {
	switch f {
	case FormSet:
		return "set"
	case FormAlternative:
		return "alternative"
	case FormConditional:
		return "conditional"
	}
	return "unknown"
}

// Ref is one detected key reference.
type Ref struct {
	Key   string
	Form  Form
	Start int // byte offset of the pattern start
	End   int
}

type pattern struct {
	key  int
	form Form
}

// Index is a compiled set of keys.
type Index struct {
	ac       ahocorasick.AhoCorasick
	keys     []string
	patterns []pattern
}

// Compile builds an index over keys. Duplicate and empty keys are ignored.
func Compile(keys []string) *Index {
	idx := &Index{}
	seen := make(map[string]bool, len(keys))
	var pats []string

	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		ki := len(idx.keys)
		idx.keys = append(idx.keys, k)

		for _, p := range []struct {
			text string
			form Form
		}{
			{"%" + k + "%", FormSet},
			{"%" + k + "|", FormAlternative},
			{"|" + k + "%", FormAlternative},
			{"|" + k + "|", FormAlternative},
			{"if:" + k + "{", FormConditional},
			{"if:" + k + "%", FormConditional},
			{"if:" + k + "=", FormConditional},
		} {
			pats = append(pats, p.text)
			idx.patterns = append(idx.patterns, pattern{key: ki, form: p.form})
		}
	}

	if len(pats) == 0 {
		return idx
	}

	// StandardMatch is required for overlapping iteration: "%a|b%" holds
	// "%a|" and "|b%" sharing the bar.
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch,
	})
	idx.ac = builder.Build(pats)
	return idx
}

// Keys returns the indexed keys in compile order.
func (x *Index) Keys() []string {
	out := make([]string, len(x.keys))
	copy(out, x.keys)
	return out
}

// Scan returns every reference in text, in order of their end offsets.
func (x *Index) Scan(text string) []Ref {
	if len(x.patterns) == 0 || text == "" {
		return nil
	}
	var out []Ref
	iter := x.ac.IterOverlapping(text)
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		p := x.patterns[m.Pattern()]
		out = append(out, Ref{
			Key:   x.keys[p.key],
			Form:  p.form,
			Start: m.Start(),
			End:   m.End(),
		})
	}
	return out
}

// Referenced returns the set of keys referenced anywhere in texts.
func (x *Index) Referenced(texts ...string) map[string]bool {
	found := make(map[string]bool)
	for _, t := range texts {
		for _, r := range x.Scan(t) {
			found[r.Key] = true
		}
	}
	return found
}

// Unreferenced returns, sorted, the indexed keys that no text references and
// that are not exempt.
func (x *Index) Unreferenced(texts []string, exempt map[string]bool) []string {
	found := x.Referenced(texts...)
	var out []string
	for _, k := range x.keys {
		if !found[k] && !exempt[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
