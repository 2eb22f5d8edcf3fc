package generator

import (
	"sort"

	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/value"
)

// definitions is an insertion-ordered key -> text table.
type definitions struct {
	keys []string
	vals map[string]string
}

func newDefinitions() *definitions {
	return &definitions{vals: make(map[string]string)}
}

func (d *definitions) get(key string) (string, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// set adds key at the end, or updates it in place.
func (d *definitions) set(key, v string) {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

func (d *definitions) remove(key string) {
	if _, ok := d.vals[key]; !ok {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			return
		}
	}
}

func (d *definitions) len() int {
	return len(d.keys)
}

func (d *definitions) clone() *definitions {
	out := &definitions{
		keys: append([]string(nil), d.keys...),
		vals: make(map[string]string, len(d.vals)),
	}
	for k, v := range d.vals {
		out.vals[k] = v
	}
	return out
}

// =============================================================================
// Generation context
// =============================================================================

// genContext is the state of one run. Reads fall through to the generator's
// value map; writes land in a local overlay so nothing a run assigns is
// visible to the generator or to other runs.
type genContext struct {
	base    map[string][]value.Item
	local   map[string][]value.Item
	pending *definitions
	rng     value.Rand
	log     *diag.Logger
}

func newContext(base map[string][]value.Item, pending *definitions, rng value.Rand, log *diag.Logger) *genContext {
	return &genContext{
		base:    base,
		local:   make(map[string][]value.Item),
		pending: pending.clone(),
		rng:     rng,
		log:     log,
	}
}

func (c *genContext) has(key string) bool {
	if _, ok := c.local[key]; ok {
		return true
	}
	_, ok := c.base[key]
	return ok
}

func (c *genContext) get(key string) []value.Item {
	if items, ok := c.local[key]; ok {
		return items
	}
	return c.base[key]
}

// add appends items under key in the overlay.
func (c *genContext) add(key string, items ...value.Item) {
	cur, ok := c.local[key]
	if !ok {
		cur = value.Clone(c.base[key])
	}
	c.local[key] = append(cur, items...)
}

// define binds key for the rest of the run. The first binding wins.
func (c *genContext) define(key, v string) bool {
	if _, ok := c.pending.get(key); ok || c.has(key) {
		c.log.Warn("A definition already exists; keeping the first", zap.String("key", key), zap.String("ignored", v))
		return false
	}
	c.pending.set(key, v)
	return true
}

// pick draws one value from the list under key.
func (c *genContext) pick(key string) string {
	return value.Pick(c.rng, c.get(key))
}

// pickInline draws one value from ad hoc "a|b:2" syntax.
func (c *genContext) pickInline(s string) string {
	items, err := value.Prep(s)
	if err != nil {
		return ""
	}
	return value.Pick(c.rng, items)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
