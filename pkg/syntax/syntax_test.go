package syntax

import (
	"strings"
	"testing"
)

func TestSets(t *testing.T) {
	text := "a %one% and %two% but `%three nor %%"
	matches := ScanSets(text, nil)

	if len(matches) != 3 {
		t.Fatalf("Expected 3 sets, got %d: %+v", len(matches), matches)
	}
	if matches[0].Inner != "one" || matches[1].Inner != "two" {
		t.Errorf("Set names wrong: %q %q", matches[0].Inner, matches[1].Inner)
	}
	if matches[2].Inner != "" {
		t.Errorf("Expected empty set, got %q", matches[2].Inner)
	}
	if text[matches[0].Start:matches[0].End] != "%one%" {
		t.Errorf("Span mismatch: %q", text[matches[0].Start:matches[0].End])
	}
}

func TestSetGroupsNeedContent(t *testing.T) {
	if matches := ScanSetGroups("%%", nil); len(matches) != 0 {
		t.Errorf("Expected no group for empty content, got %+v", matches)
	}

	matches := ScanSetGroups("%a|b% %c%", nil)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 groups, got %d: %+v", len(matches), matches)
	}
	if matches[0].Inner != "a|b" || matches[1].Inner != "c" {
		t.Errorf("Group contents wrong: %q %q", matches[0].Inner, matches[1].Inner)
	}
}

func TestSetsStopAtLineBreak(t *testing.T) {
	if matches := ScanSets("%a\nb%", nil); len(matches) != 0 {
		t.Errorf("Expected no match across a line break, got %+v", matches)
	}
}

func TestInlineInnermost(t *testing.T) {
	text := "{x|{a|b}} {plain} `{no|pe}"
	matches := ScanInline(text, nil)

	if len(matches) != 2 {
		t.Fatalf("Expected 2 inline groups, got %d: %+v", len(matches), matches)
	}
	if matches[0].Inner != "a|b" {
		t.Errorf("Expected innermost group first, got %q", matches[0].Inner)
	}
	if matches[1].Inner != "plain" {
		t.Errorf("Expected plain group, got %q", matches[1].Inner)
	}
}

func TestAtDirectives(t *testing.T) {
	text := "@key{a|{b|c}} @sk%string_val% @pct50{x} @if:k=v{kept} me@host.com"
	matches := ScanAt(text)

	if len(matches) != 4 {
		t.Fatalf("Expected 4 @-directives, got %d: %+v", len(matches), matches)
	}

	want := []struct{ name, body string }{
		{"key", "{a|{b|c}}"},
		{"sk", "%string_val%"},
		{"pct50", "{x}"},
		{"if:k=v", "{kept}"},
	}
	for i, w := range want {
		if matches[i].Name != w.name || matches[i].Body != w.body {
			t.Errorf("Directive %d: got %q %q, want %q %q", i, matches[i].Name, matches[i].Body, w.name, w.body)
		}
	}
	if matches[1].Inner != "string_val" {
		t.Errorf("Inner should drop delimiters, got %q", matches[1].Inner)
	}
}

func TestAtRejectsSpacedNames(t *testing.T) {
	for _, text := range []string{"@ key{x}", "@a b{x}", "@compose(x_{a|b})", "`@k{x}", "@{x}"} {
		if matches := ScanAt(text); len(matches) != 0 {
			t.Errorf("%q: expected no directive, got %+v", text, matches)
		}
	}
}

func TestOpaqueHidesConditionalBodies(t *testing.T) {
	text := "%a% @if:k{%b%|{c|d}} %e%"
	opaque := Opaque(text)
	if len(opaque) != 1 {
		t.Fatalf("Expected 1 opaque span, got %+v", opaque)
	}

	sets := ScanSets(text, opaque)
	if len(sets) != 2 || sets[0].Inner != "a" || sets[1].Inner != "e" {
		t.Errorf("Sets inside the conditional should be skipped: %+v", sets)
	}

	if inline := ScanInline(text, opaque); len(inline) != 0 {
		t.Errorf("Inline groups inside the conditional should be skipped: %+v", inline)
	}
}

func TestComposeAndRepeat(t *testing.T) {
	compose := ScanCompose("x @compose(pre_{a|b}) `@compose(no)")
	if len(compose) != 1 || compose[0].Inner != "pre_{a|b}" {
		t.Errorf("Compose failed: %+v", compose)
	}

	repeat := ScanRepeat("@repeat:3(ab) @repeat:(z) @repeat:x(no)")
	if len(repeat) != 2 {
		t.Fatalf("Expected 2 repeats, got %+v", repeat)
	}
	if repeat[0].Count != "3" || repeat[0].Inner != "ab" {
		t.Errorf("Repeat failed: %+v", repeat[0])
	}
	if repeat[1].Count != "" {
		t.Errorf("Empty count should be kept as empty, got %q", repeat[1].Count)
	}
}

func TestCaps(t *testing.T) {
	cases := []struct {
		text  string
		inner string
		level int
		count int
	}{
		{"^hello world^", "hello world", 1, 1},
		{"^^hello world^", "hello world", 2, 1},
		{"^^^hello world^", "hello world", 3, 1},
		{"^{hello world}", "hello world", 1, 1},
		{"^^^{hello world}", "hello world", 3, 1},
		{"^^", "", 1, 1},
		{"^hello", "", 0, 0},
		{"`^hello^", "", 0, 0},
		{"^a`^b^", "a`^b", 1, 1},
	}

	for _, c := range cases {
		matches := ScanCaps(c.text)
		if len(matches) != c.count {
			t.Errorf("%q: expected %d matches, got %+v", c.text, c.count, matches)
			continue
		}
		if c.count == 0 {
			continue
		}
		if matches[0].Inner != c.inner || matches[0].Level != c.level {
			t.Errorf("%q: got inner %q level %d", c.text, matches[0].Inner, matches[0].Level)
		}
	}
}

func TestStripAndHasUnescaped(t *testing.T) {
	if got := StripUnescaped("`^^a^ {b} `{c}", "^{}"); got != "`^a b `{c" {
		t.Errorf("StripUnescaped got %q", got)
	}
	if HasUnescaped("plain `% `{ `@", "%{@") {
		t.Error("Escaped reserved characters should not count")
	}
	if !HasUnescaped("`%a %b", "%{@") {
		t.Error("Unescaped percent should count")
	}
}

func TestRewrite(t *testing.T) {
	text := "%a% and %b%"
	out, changed := Rewrite(text, ScanSets(text, nil), func(m Match) (string, bool) {
		if m.Inner == "a" {
			return strings.ToUpper(m.Inner), true
		}
		return "", false
	})
	if !changed || out != "A and %b%" {
		t.Errorf("Rewrite got %q changed=%v", out, changed)
	}

	same, changed := Rewrite(text, ScanSets(text, nil), func(m Match) (string, bool) {
		return m.Text, true
	})
	if changed || same != text {
		t.Errorf("Identity rewrite should report no change, got %q changed=%v", same, changed)
	}
}
