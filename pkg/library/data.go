// Package library holds named bundles of generator content and the ordered,
// key-unique collection that feeds them to the engine.
package library

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/value"
)

// Data is one named bundle: fixed definitions, weighted value lists and
// candidate templates.
type Data struct {
	Key         string                  `json:"key" yaml:"key" toml:"key" msgpack:"key"`
	Definitions map[string]string       `json:"definitions,omitempty" yaml:"definitions,omitempty" toml:"definitions,omitempty" msgpack:"definitions"`
	Values      map[string][]value.Item `json:"values,omitempty" yaml:"values,omitempty" toml:"values,omitempty" msgpack:"values"`
	Templates   []string                `json:"templates,omitempty" yaml:"templates,omitempty" toml:"templates,omitempty" msgpack:"templates"`
}

// NewData returns an empty bundle under key.
func NewData(key string) *Data {
	return &Data{
		Key:         key,
		Definitions: map[string]string{},
		Values:      map[string][]value.Item{},
		Templates:   []string{},
	}
}

// Clone deep-copies the bundle.
func (d *Data) Clone() *Data {
	out := NewData(d.Key)
	for k, v := range d.Definitions {
		out.Definitions[k] = v
	}
	for k, items := range d.Values {
		out.Values[k] = value.Clone(items)
	}
	out.Templates = append(out.Templates, d.Templates...)
	return out
}

// BaseTemplates exposes the bundle's templates as a template pool.
func (d *Data) BaseTemplates() []string {
	return d.Templates
}

// ValueKeys returns the value-map keys in sorted order.
func (d *Data) ValueKeys() []string {
	return sortedKeys(d.Values)
}

// DefinitionKeys returns the definition keys in sorted order.
func (d *Data) DefinitionKeys() []string {
	return sortedKeys(d.Definitions)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ensure lazily allocates maps on a zero-value or decoded bundle.
func (d *Data) ensure() {
	if d.Definitions == nil {
		d.Definitions = map[string]string{}
	}
	if d.Values == nil {
		d.Values = map[string][]value.Item{}
	}
	if d.Templates == nil {
		d.Templates = []string{}
	}
}

// =============================================================================
// Definitions
// =============================================================================

// Define sets key only when it has no definition yet. It reports whether the
// definition was written.
func (d *Data) Define(key, v string) bool {
	d.ensure()
	if existing, ok := d.Definitions[key]; ok {
		diag.Default().Warn("A definition already exists; keeping the first",
			zap.String("bundle", d.Key), zap.String("key", key),
			zap.String("kept", existing), zap.String("ignored", v))
		return false
	}
	d.Definitions[key] = v
	return true
}

// ClearDefinition removes a definition.
func (d *Data) ClearDefinition(key string) error {
	if _, ok := d.Definitions[key]; !ok {
		return d.missing("definitions", key)
	}
	delete(d.Definitions, key)
	return nil
}

// =============================================================================
// Templates
// =============================================================================

func (d *Data) AddTemplate(templates ...string) {
	d.ensure()
	d.Templates = append(d.Templates, templates...)
}

func (d *Data) SetTemplate(i int, template string) error {
	if err := d.checkIndex(i, len(d.Templates), "templates"); err != nil {
		return err
	}
	d.Templates[i] = template
	return nil
}

func (d *Data) RemoveTemplate(i int) error {
	if err := d.checkIndex(i, len(d.Templates), "templates"); err != nil {
		return err
	}
	d.Templates = append(d.Templates[:i], d.Templates[i+1:]...)
	return nil
}

func (d *Data) ClearTemplates() {
	d.Templates = []string{}
}

// =============================================================================
// Value lists
// =============================================================================

// GetValue returns the weighted list stored under key.
func (d *Data) GetValue(key string) ([]value.Item, error) {
	items, ok := d.Values[key]
	if !ok {
		return nil, d.missing("values", key)
	}
	return items, nil
}

// AddValue appends the parsed form of v to key, creating the list if needed.
func (d *Data) AddValue(key string, v any, weights ...float64) error {
	items, err := value.Prep(v, weights...)
	if err != nil {
		return err
	}
	d.ensure()
	d.Values[key] = append(d.Values[key], items...)
	return nil
}

// SetValue replaces the list under key with the parsed form of v.
func (d *Data) SetValue(key string, v any, weights ...float64) error {
	items, err := value.Prep(v, weights...)
	if err != nil {
		return err
	}
	d.ensure()
	d.Values[key] = items
	return nil
}

func (d *Data) DeleteValue(key string) error {
	if _, ok := d.Values[key]; !ok {
		return d.missing("values", key)
	}
	delete(d.Values, key)
	return nil
}

// ClearValue leaves key holding a single empty candidate.
func (d *Data) ClearValue(key string) error {
	if _, ok := d.Values[key]; !ok {
		return d.missing("values", key)
	}
	d.Values[key] = []value.Item{{Value: "", Weight: 1}}
	return nil
}

// ClearValueWeights resets every weight under key to 1.
func (d *Data) ClearValueWeights(key string) error {
	items, ok := d.Values[key]
	if !ok {
		return d.missing("values", key)
	}
	for i := range items {
		items[i].Weight = 1
	}
	return nil
}

func (d *Data) AddValueItem(key, v string, weight int) error {
	if _, ok := d.Values[key]; !ok {
		return d.missing("values", key)
	}
	d.Values[key] = append(d.Values[key], value.NewItem(v, weight))
	return nil
}

func (d *Data) SetValueItem(key string, i int, v string, weight int) error {
	items, err := d.valueAt(key, i)
	if err != nil {
		return err
	}
	items[i] = value.NewItem(v, weight)
	return nil
}

func (d *Data) SetValueItemWeight(key string, i int, weight int) error {
	items, err := d.valueAt(key, i)
	if err != nil {
		return err
	}
	items[i].Weight = value.NormalizeWeight(weight)
	return nil
}

func (d *Data) DeleteValueItem(key string, i int) error {
	items, err := d.valueAt(key, i)
	if err != nil {
		return err
	}
	d.Values[key] = append(items[:i], items[i+1:]...)
	return nil
}

func (d *Data) ClearValueItem(key string, i int) error {
	items, err := d.valueAt(key, i)
	if err != nil {
		return err
	}
	items[i] = value.Item{Value: "", Weight: 1}
	return nil
}

func (d *Data) valueAt(key string, i int) ([]value.Item, error) {
	items, ok := d.Values[key]
	if !ok {
		return nil, d.missing("values", key)
	}
	if err := d.checkIndex(i, len(items), "values."+key); err != nil {
		return nil, err
	}
	return items, nil
}

// =============================================================================
// Validation
// =============================================================================

func (d *Data) checkIndex(i, n int, field string) error {
	if i < 0 || i >= n {
		return diag.Default().Fail(fmt.Errorf("%w: %s[%d] of bundle %q (length %d)",
			errs.ErrIndexOutOfRange, field, i, d.Key, n))
	}
	return nil
}

func (d *Data) missing(field, key string) error {
	return diag.Default().Fail(fmt.Errorf("%w: bundle %q has no %s entry %q",
		errs.ErrNotFound, d.Key, field, key))
}
