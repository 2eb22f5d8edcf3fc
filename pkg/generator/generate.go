package generator

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/pkg/diag"
)

// Generate resolves one text from t. The zero Template draws from the
// loaded template pool. The only errors are template classification
// failures; unresolvable directives are left in place or stripped by
// cleanup.
func (g *Generator) Generate(t Template) (string, error) {
	return g.run(t, g.Options())
}

// GenerateN runs Generate n times.
func (g *Generator) GenerateN(t Template, n int) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := g.Generate(t)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (g *Generator) run(t Template, o Options) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	log := diag.New(g.zap, o.Logging)
	if log.Enabled(diag.LevelDebug) {
		log = log.With(zap.String("run", uuid.NewString()))
	}
	var start time.Time
	if log.Enabled(diag.LevelVerbose) {
		start = time.Now()
	}
	log.Debug("Beginning generation")

	base, err := t.resolve(g.rng, g.pool)
	if err != nil {
		return "", log.Fail(err)
	}

	c := newContext(g.values, g.defs, g.rng, log)
	out, completed, settled := c.resolve(base, o)

	if !settled {
		log.Warn("Generator has exceeded its iteration limit. This likely means a referenced key cannot be resolved; FindMissingValues can help debug it.",
			zap.Int("iterations", completed))
	}
	if log.Enabled(diag.LevelVerbose) {
		log.Verbose("Item generated", zap.Int("loops", completed), zap.Duration("elapsed", time.Since(start)))
	}

	return c.cleanup(out, o), nil
}

// resolve runs the iteration loop over text. settled reports whether some
// iteration left the text unchanged.
func (c *genContext) resolve(text string, o Options) (out string, completed int, settled bool) {
	maxIter := o.MaxIterations
	if maxIter < 1 {
		maxIter = 1
	}

	loops := maxIter
	for loops > 0 {
		c.log.Debug("Beginning generation loop", zap.Int("loop", completed+1), zap.Int("max", maxIter))
		cached := text

		text = c.inner(text)
		text = c.outer(text)

		if text == cached {
			settled = true
			if loops > 2 && !o.PreventEarlyExit {
				c.log.Verbose("Generator output matches cached output; terminating early")
				loops = 2
			}
		}
		loops--
		completed++
	}

	// One more outer pass after the loop.
	if maxIter > 1 {
		text = c.outer(text)
	}
	return text, completed, settled
}
