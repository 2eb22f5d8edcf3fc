package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/value"
)

// DefaultMaxIterations bounds the resolve loop when no limit is configured.
const DefaultMaxIterations = 100

// Options controls the resolve loop and the cleanup pass.
type Options struct {
	Trim                bool       `json:"Trim" yaml:"trim"`
	CleanMultipleSpaces bool       `json:"CleanMultipleSpaces" yaml:"clean_multiple_spaces"`
	ClearMissingKeys    bool       `json:"ClearMissingKeys" yaml:"clear_missing_keys"`
	CleanEscapes        bool       `json:"CleanEscapes" yaml:"clean_escapes"`
	ClearBracketSyntax  bool       `json:"ClearBracketSyntax" yaml:"clear_bracket_syntax"`
	MaxIterations       int        `json:"MaxIterations" yaml:"max_iterations"`
	PreventEarlyExit    bool       `json:"PreventEarlyExit" yaml:"prevent_early_exit"`
	Logging             diag.Level `json:"Logging" yaml:"logging"`
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		Trim:                true,
		CleanMultipleSpaces: true,
		ClearMissingKeys:    true,
		CleanEscapes:        true,
		ClearBracketSyntax:  true,
		MaxIterations:       DefaultMaxIterations,
		PreventEarlyExit:    false,
		Logging:             diag.LevelError,
	}
}

// OptionsPatch carries a subset of options. Nil fields are left unchanged.
type OptionsPatch struct {
	Trim                *bool       `json:"Trim,omitempty" yaml:"trim,omitempty"`
	CleanMultipleSpaces *bool       `json:"CleanMultipleSpaces,omitempty" yaml:"clean_multiple_spaces,omitempty"`
	ClearMissingKeys    *bool       `json:"ClearMissingKeys,omitempty" yaml:"clear_missing_keys,omitempty"`
	CleanEscapes        *bool       `json:"CleanEscapes,omitempty" yaml:"clean_escapes,omitempty"`
	ClearBracketSyntax  *bool       `json:"ClearBracketSyntax,omitempty" yaml:"clear_bracket_syntax,omitempty"`
	MaxIterations       *int        `json:"MaxIterations,omitempty" yaml:"max_iterations,omitempty"`
	PreventEarlyExit    *bool       `json:"PreventEarlyExit,omitempty" yaml:"prevent_early_exit,omitempty"`
	Logging             *diag.Level `json:"Logging,omitempty" yaml:"logging,omitempty"`
}

// Bool and Int build patch fields inline.
func Bool(b bool) *bool { return &b }
func Int(n int) *int    { return &n }

// LevelOf builds a patch field for Logging.
func LevelOf(l diag.Level) *diag.Level { return &l }

// Apply returns o with every non-nil field of p applied. A non-positive
// MaxIterations in the patch is ignored.
func (o Options) Apply(p OptionsPatch) Options {
	if p.Trim != nil {
		o.Trim = *p.Trim
	}
	if p.CleanMultipleSpaces != nil {
		o.CleanMultipleSpaces = *p.CleanMultipleSpaces
	}
	if p.ClearMissingKeys != nil {
		o.ClearMissingKeys = *p.ClearMissingKeys
	}
	if p.CleanEscapes != nil {
		o.CleanEscapes = *p.CleanEscapes
	}
	if p.ClearBracketSyntax != nil {
		o.ClearBracketSyntax = *p.ClearBracketSyntax
	}
	if p.MaxIterations != nil && *p.MaxIterations > 0 {
		o.MaxIterations = *p.MaxIterations
	}
	if p.PreventEarlyExit != nil {
		o.PreventEarlyExit = *p.PreventEarlyExit
	}
	if p.Logging != nil {
		o.Logging = *p.Logging
	}
	return o
}

// Set assigns a single option by name. Names are matched case-insensitively;
// IgnoreMissingKeys is accepted as an alias of ClearMissingKeys.
func (o *Options) Set(name string, v any) error {
	switch strings.ToLower(name) {
	case "trim":
		return setBool(&o.Trim, name, v)
	case "cleanmultiplespaces":
		return setBool(&o.CleanMultipleSpaces, name, v)
	case "clearmissingkeys", "ignoremissingkeys":
		return setBool(&o.ClearMissingKeys, name, v)
	case "cleanescapes":
		return setBool(&o.CleanEscapes, name, v)
	case "clearbracketsyntax":
		return setBool(&o.ClearBracketSyntax, name, v)
	case "preventearlyexit":
		return setBool(&o.PreventEarlyExit, name, v)
	case "maxiterations":
		n, ok := value.ToInt(v)
		if s, isStr := v.(string); isStr {
			parsed, err := strconv.Atoi(strings.TrimSpace(s))
			n, ok = parsed, err == nil
		}
		if !ok || n < 1 {
			return fmt.Errorf("%w: MaxIterations must be a positive integer, got %v", errs.ErrMalformedInput, v)
		}
		o.MaxIterations = n
		return nil
	case "logging":
		l, err := toLevel(v)
		if err != nil {
			return err
		}
		o.Logging = l
		return nil
	}
	return fmt.Errorf("%w: unknown option %q", errs.ErrMalformedInput, name)
}

func setBool(dst *bool, name string, v any) error {
	switch b := v.(type) {
	case bool:
		*dst = b
		return nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err == nil {
			*dst = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: option %s wants a boolean, got %v", errs.ErrMalformedInput, name, v)
}

func toLevel(v any) (diag.Level, error) {
	switch l := v.(type) {
	case diag.Level:
		return l, nil
	case string:
		parsed, err := diag.ParseLevel(l)
		if err != nil {
			return diag.LevelNone, fmt.Errorf("%w: %v", errs.ErrMalformedInput, err)
		}
		return parsed, nil
	}
	if n, ok := value.ToInt(v); ok && n >= int(diag.LevelNone) && n <= int(diag.LevelDebug) {
		return diag.Level(n), nil
	}
	return diag.LevelNone, fmt.Errorf("%w: option Logging wants a level, got %v", errs.ErrMalformedInput, v)
}
