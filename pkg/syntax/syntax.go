// Package syntax locates generator directives in template text.
//
// Every directive opener honours the backtick escape: a special character
// directly preceded by "`" is literal. Lazy directive bodies never span a
// line break.
package syntax

import "strings"

// Escape is the prefix that makes the following special character literal.
const Escape = '`'

// Kind distinguishes the type of directive match
type Kind int

const (
	KindSet     Kind = iota // %name%
	KindInline              // {a|b}
	KindAt                  // @name{...} or @name%...%
	KindCompose             // @compose(...)
	KindRepeat              // @repeat:N(...)
	KindCaps                // ^text^ or ^{text}
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindInline:
		return "inline"
	case KindAt:
		return "at"
	case KindCompose:
		return "compose"
	case KindRepeat:
		return "repeat"
	case KindCaps:
		return "caps"
	}
	return "unknown"
}

// Span is a half-open byte range of the scanned text.
type Span struct {
	Start int
	End   int
}

// Match represents a detected directive
type Match struct {
	Span
	Kind Kind
	Text string // full directive text

	Name  string // KindAt: text between "@" and the body opener
	Inner string // content without delimiters
	Body  string // KindAt: content including its delimiters
	Count string // KindRepeat: the digits before "("
	Level int    // KindCaps: number of opening carats
}

// Escaped reports whether text[i] is preceded by the escape character.
func Escaped(text string, i int) bool {
	return i > 0 && text[i-1] == Escape
}

// IsConditional reports whether an @-directive name is an @if:/@!if: test.
func IsConditional(name string) bool {
	return strings.HasPrefix(name, "if:") || strings.HasPrefix(name, "!if:")
}

// IsPct reports whether an @-directive name is a percentage roll.
func IsPct(name string) bool {
	return strings.HasPrefix(name, "pct")
}

// Reserved reports whether an @-directive name belongs to a directive other
// than key assignment.
func Reserved(name string) bool {
	return IsPct(name) ||
		strings.Contains(name, "if:") ||
		strings.Contains(name, "compose") ||
		strings.Contains(name, "repeat")
}

// HasUnescaped reports whether text contains any byte of chars that is not
// escaped.
func HasUnescaped(text, chars string) bool {
	for i := 0; i < len(text); {
		k := strings.IndexAny(text[i:], chars)
		if k < 0 {
			return false
		}
		i += k
		if !Escaped(text, i) {
			return true
		}
		i++
	}
	return false
}

// StripUnescaped removes every byte of chars that is not escaped. Escape
// checks look at the original text, so "`^^" keeps only the first carat.
func StripUnescaped(text, chars string) string {
	if strings.IndexAny(text, chars) < 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if strings.IndexByte(chars, c) >= 0 && !Escaped(text, i) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Rewrite replaces each match for which fn reports ok. Matches must be
// ordered and non-overlapping. changed reports whether the result differs
// from text.
func Rewrite(text string, matches []Match, fn func(Match) (string, bool)) (out string, changed bool) {
	if len(matches) == 0 {
		return text, false
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		repl, ok := fn(m)
		if !ok {
			continue
		}
		b.WriteString(text[last:m.Start])
		b.WriteString(repl)
		last = m.End
		if repl != m.Text {
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}
