package syntax

import "strings"

// Single-pass scanner over one text. opaque spans are skipped entirely.
type fastScanner struct {
	text   string
	n      int
	opaque []Span
}

func newScanner(text string, opaque []Span) *fastScanner {
	return &fastScanner{text: text, n: len(text), opaque: opaque}
}

// next advances i to the next unescaped trigger byte outside opaque spans.
// It returns -1 when none remains.
func (fs *fastScanner) next(i int, triggers string) int {
	for i < fs.n {
		k := strings.IndexAny(fs.text[i:], triggers)
		if k < 0 {
			return -1
		}
		i += k
		if end, ok := fs.inOpaque(i); ok {
			i = end
			continue
		}
		if Escaped(fs.text, i) {
			i++
			continue
		}
		return i
	}
	return -1
}

func (fs *fastScanner) inOpaque(i int) (int, bool) {
	for _, s := range fs.opaque {
		if i >= s.Start && i < s.End {
			return s.End, true
		}
	}
	return 0, false
}

// limit is the first opaque start after i, or the text length.
func (fs *fastScanner) limit(i int) int {
	lim := fs.n
	for _, s := range fs.opaque {
		if s.Start > i && s.Start < lim {
			lim = s.Start
		}
	}
	return lim
}

// closeAt finds the next c at or after from, stopping at a line break or
// at lim.
func (fs *fastScanner) closeAt(from, lim int, c byte) int {
	for k := from; k < lim; k++ {
		switch fs.text[k] {
		case c:
			return k
		case '\n', '\r':
			return -1
		}
	}
	return -1
}

// closeUnescaped is closeAt for an unescaped c.
func (fs *fastScanner) closeUnescaped(from, lim int, c byte) int {
	for k := from; k < lim; k++ {
		switch fs.text[k] {
		case c:
			if !Escaped(fs.text, k) {
				return k
			}
		case '\n', '\r':
			return -1
		}
	}
	return -1
}

// balanced returns the index of the "}" closing the "{" at open.
func (fs *fastScanner) balanced(open int) int {
	depth := 0
	for k := open; k < fs.n; k++ {
		switch fs.text[k] {
		case '{':
			if !Escaped(fs.text, k) {
				depth++
			}
		case '}':
			if !Escaped(fs.text, k) {
				depth--
				if depth == 0 {
					return k
				}
			}
		case '\n', '\r':
			return -1
		}
	}
	return -1
}

// =============================================================================
// Selection sets
// =============================================================================

// ScanSets finds %name% directives. Content runs lazily to the next "%".
func ScanSets(text string, opaque []Span) []Match {
	return newScanner(text, opaque).percents(0)
}

// ScanSetGroups finds %...% directives with at least one byte of content,
// the form used for %a|b% alternative groups.
func ScanSetGroups(text string, opaque []Span) []Match {
	return newScanner(text, opaque).percents(1)
}

func (fs *fastScanner) percents(minInner int) []Match {
	var matches []Match
	i := 0
	for {
		i = fs.next(i, "%")
		if i < 0 {
			return matches
		}
		end := fs.closeAt(i+1+minInner, fs.limit(i), '%')
		if end < 0 || end-(i+1) < minInner {
			i++
			continue
		}
		matches = append(matches, Match{
			Span:  Span{Start: i, End: end + 1},
			Kind:  KindSet,
			Text:  fs.text[i : end+1],
			Inner: fs.text[i+1 : end],
		})
		i = end + 1
	}
}

// ScanInline finds innermost {...} groups. Callers decide whether the
// content is a selection.
func ScanInline(text string, opaque []Span) []Match {
	fs := newScanner(text, opaque)
	var matches []Match
	open := -1
	i := 0
	for i < fs.n {
		if end, ok := fs.inOpaque(i); ok {
			open = -1
			i = end
			continue
		}
		switch fs.text[i] {
		case '{':
			if !Escaped(text, i) {
				open = i
			}
		case '}':
			if open >= 0 && !Escaped(text, i) {
				matches = append(matches, Match{
					Span:  Span{Start: open, End: i + 1},
					Kind:  KindInline,
					Text:  text[open : i+1],
					Inner: text[open+1 : i],
				})
				open = -1
			}
		case '\n', '\r':
			open = -1
		}
		i++
	}
	return matches
}

// =============================================================================
// @-directives
// =============================================================================

// ScanAt finds @name{...} and @name%...% directives. A brace body closes at
// its balancing "}", a percent body at the next "%". Names never contain
// whitespace, "@" or "(".
func ScanAt(text string) []Match {
	fs := newScanner(text, nil)
	var matches []Match
	i := 0
	for {
		i = fs.next(i, "@")
		if i < 0 {
			return matches
		}
		if m := fs.tryAt(i); m != nil {
			matches = append(matches, *m)
			i = m.End
			continue
		}
		i++
	}
}

func (fs *fastScanner) tryAt(start int) *Match {
	j := start + 1
	for ; j < fs.n; j++ {
		c := fs.text[j]
		if c == '{' || c == '%' {
			break
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '@' || c == '(' {
			return nil
		}
	}
	if j >= fs.n || j == start+1 {
		return nil
	}

	var end int
	if fs.text[j] == '{' {
		end = fs.balanced(j)
	} else {
		end = fs.closeAt(j+1, fs.n, '%')
	}
	if end < 0 {
		return nil
	}

	return &Match{
		Span:  Span{Start: start, End: end + 1},
		Kind:  KindAt,
		Text:  fs.text[start : end+1],
		Name:  fs.text[start+1 : j],
		Body:  fs.text[j : end+1],
		Inner: fs.text[j+1 : end],
	}
}

// Opaque returns the spans of conditional blocks. Their content is left
// alone until the conditional itself resolves.
func Opaque(text string) []Span {
	if !strings.Contains(text, "if:") {
		return nil
	}
	var spans []Span
	for _, m := range ScanAt(text) {
		if IsConditional(m.Name) {
			spans = append(spans, m.Span)
		}
	}
	return spans
}

// ScanCompose finds @compose(...) directives.
func ScanCompose(text string) []Match {
	return newScanner(text, nil).parenthesised("@compose(", KindCompose)
}

// ScanRepeat finds @repeat:N(...) directives. N may be empty.
func ScanRepeat(text string) []Match {
	return newScanner(text, nil).parenthesised("@repeat:", KindRepeat)
}

func (fs *fastScanner) parenthesised(prefix string, kind Kind) []Match {
	var matches []Match
	i := 0
	for {
		i = fs.next(i, "@")
		if i < 0 {
			return matches
		}
		if !strings.HasPrefix(fs.text[i:], prefix) {
			i++
			continue
		}
		j := i + len(prefix)
		count := ""
		if kind == KindRepeat {
			d := j
			for d < fs.n && fs.text[d] >= '0' && fs.text[d] <= '9' {
				d++
			}
			count = fs.text[j:d]
			if d >= fs.n || fs.text[d] != '(' {
				i++
				continue
			}
			j = d + 1
		}
		end := fs.closeAt(j, fs.n, ')')
		if end < 0 {
			i++
			continue
		}
		matches = append(matches, Match{
			Span:  Span{Start: i, End: end + 1},
			Kind:  kind,
			Text:  fs.text[i : end+1],
			Inner: fs.text[j:end],
			Count: count,
		})
		i = end + 1
	}
}

// =============================================================================
// Capitalization
// =============================================================================

// ScanCaps finds capitalization markers: a run of carats followed either by
// a braced group (^{text}) or by text closed with the next unescaped carat
// (^text^). A run of two or more carats with no closer is read as an empty
// marker whose last carat closes it.
func ScanCaps(text string) []Match {
	fs := newScanner(text, nil)
	var matches []Match
	i := 0
	for {
		i = fs.next(i, "^")
		if i < 0 {
			return matches
		}
		j := i
		for j < fs.n && fs.text[j] == '^' {
			j++
		}
		level := j - i

		if j < fs.n && fs.text[j] == '{' {
			if end := fs.balanced(j); end >= 0 {
				matches = append(matches, Match{
					Span:  Span{Start: i, End: end + 1},
					Kind:  KindCaps,
					Text:  text[i : end+1],
					Inner: text[j+1 : end],
					Level: level,
				})
				i = end + 1
				continue
			}
		}

		if end := fs.closeUnescaped(j, fs.n, '^'); end >= 0 {
			matches = append(matches, Match{
				Span:  Span{Start: i, End: end + 1},
				Kind:  KindCaps,
				Text:  text[i : end+1],
				Inner: text[j:end],
				Level: level,
			})
			i = end + 1
			continue
		}

		if level >= 2 {
			matches = append(matches, Match{
				Span:  Span{Start: i, End: j},
				Kind:  KindCaps,
				Text:  text[i:j],
				Level: level - 1,
			})
		}
		i = j
	}
}
