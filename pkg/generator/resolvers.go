package generator

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/pkg/syntax"
	"github.com/kittclouds/gmgen/pkg/value"
)

// Each resolver rewrites one directive kind and reports whether the text
// changed. They read and bind values only through the context.

// innerRounds is how many times the inner pass repeats per iteration.
const innerRounds = 5

// maxRepeat caps @repeat:N expansion.
const maxRepeat = 1000

// reservedChars mark a definition that still holds directives.
const reservedChars = "%{@"

type resolver func(c *genContext, text string) (string, bool)

// definitionResolvers partially resolve a pending definition's text.
var definitionResolvers = []resolver{
	resolvePcts,
	assignKeys,
	resolveSetGroups,
	resolveInline,
	resolveSets,
	resolveConditionals,
	resolveCompose,
}

func (c *genContext) inner(text string) string {
	for round := 0; round < innerRounds; round++ {
		text, _ = resolveRepeats(c, text)
		c.resolveDefinitions()
		text, _ = resolvePcts(c, text)
		text, _ = assignKeys(c, text)
		text, _ = resolveSetGroups(c, text)
		text, _ = resolveInline(c, text)
		text, _ = resolveSets(c, text)
	}
	return text
}

func (c *genContext) outer(text string) string {
	text, _ = resolveConditionals(c, text)
	text, _ = resolveCompose(c, text)
	return text
}

// resolveDefinitions promotes pending definitions that hold no directives
// into the value map and partially resolves the rest.
func (c *genContext) resolveDefinitions() {
	if c.pending.len() == 0 {
		return
	}
	for _, k := range append([]string(nil), c.pending.keys...) {
		v, _ := c.pending.get(k)
		if !syntax.HasUnescaped(v, reservedChars) {
			c.add(k, value.Item{Value: v, Weight: 1})
			c.pending.remove(k)
			c.log.Debug("definition promoted", zap.String("key", k), zap.String("value", v))
			continue
		}
		for _, r := range definitionResolvers {
			v, _ = r(c, v)
		}
		c.pending.set(k, v)
	}
}

// resolveRepeats expands @repeat:N(content) to N copies of content.
func resolveRepeats(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "@repeat:") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanRepeat(text), func(m syntax.Match) (string, bool) {
		n, err := strconv.Atoi(m.Count)
		if err != nil || n < 0 {
			n = 0
		}
		if n > maxRepeat {
			c.log.Warn("repeat count capped", zap.String("directive", m.Text), zap.Int("cap", maxRepeat))
			n = maxRepeat
		}
		return strings.Repeat(m.Inner, n), true
	})
}

// resolvePcts rolls @pctN{...}: a draw in [0,100) below N keeps the body
// with its delimiters, anything else removes the directive. A malformed N
// never succeeds.
func resolvePcts(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "@pct") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanAt(text), func(m syntax.Match) (string, bool) {
		if !syntax.IsPct(m.Name) {
			return "", false
		}
		n, err := strconv.ParseFloat(m.Name[len("pct"):], 64)
		if err != nil {
			c.log.Debug("malformed percentage; removing", zap.String("directive", m.Text))
			return "", true
		}
		if value.FloatBetween(c.rng, 0, 100) < n {
			return m.Body, true
		}
		return "", true
	})
}

// assignKeys binds @name{a|b} and @name%key% and removes the directive. A
// percent body whose key is not yet known is left for a later round.
func assignKeys(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "@") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanAt(text), func(m syntax.Match) (string, bool) {
		if syntax.Reserved(m.Name) {
			return "", false
		}
		var v string
		if m.Body[0] == '{' {
			v = c.pickInline(m.Inner)
		} else {
			if !c.has(m.Inner) {
				return "", false
			}
			v = c.pick(m.Inner)
		}
		c.define(m.Name, v)
		c.log.Debug("key assigned", zap.String("key", m.Name), zap.String("value", v))
		return "", true
	})
}

// resolveSetGroups collapses %a|b% to %a% or %b%.
func resolveSetGroups(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "|") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanSetGroups(text, syntax.Opaque(text)), func(m syntax.Match) (string, bool) {
		if !strings.Contains(m.Inner, "|") {
			return "", false
		}
		return "%" + c.pickInline(m.Inner) + "%", true
	})
}

// resolveInline replaces {a|b} with one weighted pick.
func resolveInline(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "{") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanInline(text, syntax.Opaque(text)), func(m syntax.Match) (string, bool) {
		if !strings.Contains(m.Inner, "|") {
			return "", false
		}
		return c.pickInline(m.Inner), true
	})
}

// resolveSets replaces %key% with a pick from the value map. Unknown keys
// stay until cleanup.
func resolveSets(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "%") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanSets(text, syntax.Opaque(text)), func(m syntax.Match) (string, bool) {
		if !c.has(m.Inner) {
			return "", false
		}
		return c.pick(m.Inner), true
	})
}

// resolveConditionals evaluates @if:key{C}, @!if:key{C} and their =val
// forms. The test is true when key has a non-empty list and, if val is
// given, its first value equals val. @if keeps the body on true, @!if on
// false.
func resolveConditionals(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "if:") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanAt(text), func(m syntax.Match) (string, bool) {
		if !syntax.IsConditional(m.Name) {
			return "", false
		}
		negate := m.Name[0] == '!'
		key, want, _ := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(m.Name, "!"), "if:"), "=")

		items := c.get(key)
		truth := len(items) > 0 && (want == "" || items[0].Value == want)
		c.log.Debug("conditional evaluated", zap.String("directive", m.Name), zap.Bool("truth", truth))

		if truth != negate {
			return m.Body, true
		}
		return "", true
	})
}

// resolveCompose strips selection syntax from @compose(...) to form a key and
// replaces the directive with a pick when the key exists.
func resolveCompose(c *genContext, text string) (string, bool) {
	if !strings.Contains(text, "@compose(") {
		return text, false
	}
	return syntax.Rewrite(text, syntax.ScanCompose(text), func(m syntax.Match) (string, bool) {
		key := composeStripper.Replace(m.Inner)
		if !c.has(key) {
			return "", false
		}
		return c.pick(key), true
	})
}

var composeStripper = strings.NewReplacer("%", "", "{", "", "}", "", "|", "")
