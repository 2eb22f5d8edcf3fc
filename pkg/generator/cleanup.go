package generator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kittclouds/gmgen/pkg/syntax"
)

var multipleSpaces = regexp.MustCompile(`  +`)

// cleanup post-processes a finished run, in order: capitalization, leftover
// carats, bracket syntax, repeated spaces, unknown keys, escapes, trim.
func (c *genContext) cleanup(text string, o Options) string {
	c.log.Debug("Starting postprocessing")

	text = processCapitals(text)
	text = syntax.StripUnescaped(text, "^")
	if o.ClearBracketSyntax {
		text = syntax.StripUnescaped(text, "{}")
	}
	if o.CleanMultipleSpaces {
		text = multipleSpaces.ReplaceAllString(text, " ")
	}
	if o.ClearMissingKeys {
		text = c.clearMissingKeys(text)
	}
	if o.CleanEscapes {
		text = strings.ReplaceAll(text, string(syntax.Escape), "")
	}
	if o.Trim {
		text = strings.TrimSpace(text)
	}
	return text
}

func processCapitals(text string) string {
	if !strings.Contains(text, "^") {
		return text
	}
	out, _ := syntax.Rewrite(text, syntax.ScanCaps(text), func(m syntax.Match) (string, bool) {
		return capitalize(m.Inner, m.Level), true
	})
	return out
}

// capitalize applies a carat level: 3 upper-cases everything, 2 the first
// letter of every space-separated word, anything else the first letter.
func capitalize(s string, level int) string {
	switch level {
	case 3:
		return cases.Upper(language.Und).String(s)
	case 2:
		words := strings.Split(s, " ")
		for i, w := range words {
			words[i] = upperFirst(w)
		}
		return strings.Join(words, " ")
	}
	return upperFirst(s)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// clearMissingKeys removes %name% directives whose name is not in the value
// map.
func (c *genContext) clearMissingKeys(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	out, _ := syntax.Rewrite(text, syntax.ScanSets(text, nil), func(m syntax.Match) (string, bool) {
		if c.has(m.Inner) {
			return "", false
		}
		c.log.Debug("Missing key removed", zap.String("key", m.Inner))
		return "", true
	})
	return out
}
