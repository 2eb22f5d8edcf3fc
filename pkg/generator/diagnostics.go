package generator

import (
	"fmt"
	"strings"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/graph"
	"github.com/kittclouds/gmgen/pkg/refs"
	"github.com/kittclouds/gmgen/pkg/syntax"
)

// debugOptions turns off every cleanup step and early exit, and silences
// logging, so intermediate syntax is visible in the output.
func debugOptions(o Options, iterations int) Options {
	o.Trim = false
	o.CleanMultipleSpaces = false
	o.ClearBracketSyntax = false
	o.ClearMissingKeys = false
	o.CleanEscapes = false
	o.PreventEarlyExit = true
	o.Logging = diag.LevelNone
	o.MaxIterations = iterations
	return o
}

// Step runs exactly one iteration (one inner and one outer pass) with
// cleanup disabled.
func (g *Generator) Step(t Template) (string, error) {
	return g.run(t, debugOptions(g.Options(), 1))
}

// FindMissingValues runs a generation with cleanup and early exit disabled
// and reports every %name% still present. iterations < 1 means the default
// limit.
func (g *Generator) FindMissingValues(t Template, iterations int) ([]string, error) {
	if iterations < 1 {
		iterations = DefaultMaxIterations
	}
	res, err := g.run(t, debugOptions(g.Options(), iterations))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range syntax.ScanSets(res, nil) {
		out = append(out, fmt.Sprintf("Unresolvable Set Selection: %s", m.Text))
	}
	return out, nil
}

// OverlappingDefinitions reports definition keys loaded from more than one
// bundle, and keys that differ from an earlier key only by case.
func (g *Generator) OverlappingDefinitions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var keys []string
	for _, b := range g.bundles {
		keys = append(keys, b.definitions...)
	}
	return overlaps(keys)
}

func overlaps(keys []string) []string {
	var out []string
	seen := make(map[string]bool, len(keys))
	firstForm := make(map[string]string, len(keys))
	warned := make(map[string]bool)

	for _, k := range keys {
		if seen[k] {
			out = append(out, fmt.Sprintf("ALERT: overlapping definition at key %q", k))
		} else {
			seen[k] = true
		}

		lower := strings.ToLower(k)
		first, ok := firstForm[lower]
		if !ok {
			firstForm[lower] = k
			continue
		}
		if first != k && !warned[k] {
			warned[k] = true
			out = append(out, fmt.Sprintf("Warning: key %q already exists, but in a different case. This will not cause an overlap but may be confusing.", k))
		}
	}
	return out
}

// UnreferencedKeys lists value-map keys that no template, value or
// definition refers to. Bundle keys, which hold template pools, are exempt.
// Keys reachable only through @compose are reported too.
func (g *Generator) UnreferencedKeys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := sortedKeys(g.values)
	idx := refs.Compile(keys)

	exempt := make(map[string]bool, len(g.bundles))
	for _, b := range g.bundles {
		exempt[b.key] = true
	}

	texts := append([]string(nil), g.pool...)
	for _, items := range g.values {
		for _, it := range items {
			texts = append(texts, it.Value)
		}
	}
	for _, k := range g.defs.keys {
		texts = append(texts, g.defs.vals[k])
	}
	return idx.Unreferenced(texts, exempt)
}

// ReferenceGraph maps which value and definition keys select which others.
// Conditional references only read a key, so they add no edge.
func (g *Generator) ReferenceGraph() *graph.RefGraph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rg := graph.NewGraph()
	keys := sortedKeys(g.values)
	for _, k := range keys {
		rg.EnsureNode(k, graph.KindValue)
	}
	for _, k := range g.defs.keys {
		rg.EnsureNode(k, graph.KindDefinition)
	}
	idx := refs.Compile(append(keys, g.defs.keys...))

	link := func(from, text string) {
		for _, r := range idx.Scan(text) {
			if r.Form != refs.FormConditional {
				rg.AddRef(from, r.Key, r.Form.String())
			}
		}
	}
	for _, k := range keys {
		for _, it := range g.values[k] {
			link(k, it.Value)
		}
	}
	for _, k := range g.defs.keys {
		link(k, g.defs.vals[k])
	}
	return rg
}

// ReferenceCycles reports groups of keys whose values can select each other
// without end. Such keys only stop expanding at the iteration limit.
func (g *Generator) ReferenceCycles() []string {
	var out []string
	for _, c := range g.ReferenceGraph().Cycles() {
		if len(c) == 1 {
			out = append(out, fmt.Sprintf("Self reference: %%%s%%", c[0]))
			continue
		}
		out = append(out, fmt.Sprintf("Reference cycle: %s", strings.Join(c, " <-> ")))
	}
	return out
}
