// Package generator implements the template engine: a fixed-order rewrite
// loop that resolves selection, assignment, conditional, percentage,
// composition and capitalization directives until the text settles.
package generator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/library"
	"github.com/kittclouds/gmgen/pkg/value"
)

// Generator owns the value map, the pending definitions and the template
// pool that runs draw from.
//
// A Generator is safe for concurrent use. Runs never modify it: every
// Generate works on its own context.
type Generator struct {
	mu sync.RWMutex

	values  map[string][]value.Item
	defs    *definitions
	pool    []string
	bundles []bundleInfo

	opts Options
	zap  *zap.Logger
	rng  *value.LockedRand
}

// bundleInfo is what the generator remembers about each loaded bundle.
type bundleInfo struct {
	key         string
	definitions []string
}

// Option configures a Generator.
type Option func(*Generator)

// WithOptions applies a patch over the defaults.
func WithOptions(p OptionsPatch) Option {
	return func(g *Generator) { g.opts = g.opts.Apply(p) }
}

// WithLogger sets the zap sink. Output is still gated by Options.Logging.
func WithLogger(z *zap.Logger) Option {
	return func(g *Generator) {
		if z != nil {
			g.zap = z
		}
	}
}

// WithSeed makes runs reproducible. Zero keeps a random seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = value.NewRand(seed) }
}

// WithLibrary loads lib once the generator is built.
func WithLibrary(lib *library.Library) Option {
	return func(g *Generator) {
		if lib != nil {
			g.loadLocked(lib)
		}
	}
}

// New returns a generator with default options and an empty value map.
func New(opts ...Option) *Generator {
	g := &Generator{
		values: make(map[string][]value.Item),
		defs:   newDefinitions(),
		opts:   DefaultOptions(),
		zap:    zap.NewNop(),
		rng:    value.NewRand(0),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) logger() *diag.Logger {
	return diag.New(g.zap, g.opts.Logging)
}

// =============================================================================
// Loading
// =============================================================================

// AddData builds a library from data (see library.New) and loads it.
func (g *Generator) AddData(data any) error {
	lib, err := library.New(data)
	if err != nil {
		return g.logger().Fail(err)
	}
	g.LoadLibrary(lib)
	return nil
}

// LoadLibrary ingests every bundle of lib: definitions become pending
// definitions, value lists are appended to the value map, and templates
// are stored under the bundle key. The first bundle with templates
// provides the base template pool.
func (g *Generator) LoadLibrary(lib *library.Library) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadLocked(lib)
}

func (g *Generator) loadLocked(lib *library.Library) {
	log := g.logger()
	var start time.Time
	if log.Enabled(diag.LevelVerbose) {
		start = time.Now()
	}

	content := lib.Content()
	for i, d := range content {
		log.Debug("processing library content", zap.String("bundle", d.Key), zap.Int("index", i), zap.Int("total", len(content)))

		defKeys := d.DefinitionKeys()
		for _, k := range defKeys {
			g.defineLocked(log, k, d.Definitions[k])
		}
		for _, k := range d.ValueKeys() {
			g.values[k] = append(g.values[k], value.Clone(d.Values[k])...)
		}
		if len(d.Templates) > 0 {
			if len(g.pool) == 0 {
				g.pool = append([]string(nil), d.Templates...)
			}
			for _, t := range d.Templates {
				g.values[d.Key] = append(g.values[d.Key], value.Item{Value: t, Weight: 1})
			}
		}
		g.bundles = append(g.bundles, bundleInfo{key: d.Key, definitions: defKeys})
	}

	if log.Enabled(diag.LevelVerbose) {
		log.Verbose("Library loaded", zap.Duration("elapsed", time.Since(start)))
	}
}

// Templates returns the base template pool.
func (g *Generator) Templates() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.pool...)
}

// =============================================================================
// Definitions
// =============================================================================

// Define registers a pending definition. The first definition of a key wins:
// redefining a defined key, or one already in the value map, only logs a
// warning.
func (g *Generator) Define(key, v string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defineLocked(g.logger(), key, v)
}

func (g *Generator) defineLocked(log *diag.Logger, key, v string) {
	if existing, ok := g.defs.get(key); ok {
		log.Warn("A definition already exists; keeping the first", zap.String("key", key), zap.String("kept", existing), zap.String("ignored", v))
		return
	}
	if _, ok := g.values[key]; ok {
		log.Warn("A value map already exists for definition key; ignoring", zap.String("key", key), zap.String("ignored", v))
		return
	}
	g.defs.set(key, v)
}

// IsDefined reports whether key has a pending definition.
func (g *Generator) IsDefined(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.defs.get(key)
	return ok
}

// =============================================================================
// Value map
// =============================================================================

func (g *Generator) HasValueMap(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.values[key]
	return ok
}

// GetValueMap returns a copy of the list under key, or an empty list.
func (g *Generator) GetValueMap(key string) []value.Item {
	g.mu.RLock()
	defer g.mu.RUnlock()
	items, ok := g.values[key]
	if !ok {
		return []value.Item{}
	}
	return value.Clone(items)
}

// SetValueMap replaces the list under key with the parsed form of v.
func (g *Generator) SetValueMap(key string, v any) error {
	items, err := value.Prep(v)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = items
	return nil
}

// AddValueMap appends the parsed form of v to the list under key.
func (g *Generator) AddValueMap(key string, v any) error {
	items, err := value.Prep(v)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = append(g.values[key], items...)
	return nil
}

func (g *Generator) DeleteValueMap(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, key)
}

// ValueKeys returns the value-map keys in sorted order.
func (g *Generator) ValueKeys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.values)
}

// =============================================================================
// Options
// =============================================================================

func (g *Generator) Options() Options {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.opts
}

// SetOptions applies the non-nil fields of p.
func (g *Generator) SetOptions(p OptionsPatch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opts = g.opts.Apply(p)
}

// SetOption sets exactly one option by name.
func (g *Generator) SetOption(name string, v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.opts
	if err := next.Set(name, v); err != nil {
		return g.logger().Fail(err)
	}
	g.opts = next
	return nil
}

// =============================================================================
// Cloning
// =============================================================================

// Clone returns an independent generator with copied state and its own
// random source seeded from g's.
func (g *Generator) Clone() *Generator {
	g.mu.RLock()
	defer g.mu.RUnlock()

	values := make(map[string][]value.Item, len(g.values))
	for k, items := range g.values {
		values[k] = value.Clone(items)
	}
	bundles := make([]bundleInfo, len(g.bundles))
	for i, b := range g.bundles {
		bundles[i] = bundleInfo{key: b.key, definitions: append([]string(nil), b.definitions...)}
	}

	return &Generator{
		values:  values,
		defs:    g.defs.clone(),
		pool:    append([]string(nil), g.pool...),
		bundles: bundles,
		opts:    g.opts,
		zap:     g.zap,
		rng:     value.NewRand(g.rng.Int63() + 1),
	}
}
