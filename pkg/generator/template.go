package generator

import (
	"fmt"

	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/value"
)

// Templater is anything that exposes a pool of base templates, such as a
// library bundle.
type Templater interface {
	BaseTemplates() []string
}

type templateKind int

const (
	templatePool templateKind = iota
	templateLiteral
	templateOneOf
	templateSource
)

// Template selects the base string a run starts from. The zero value draws
// from the generator's loaded template pool.
type Template struct {
	kind    templateKind
	literal string
	choices []string
	source  Templater
}

// Literal uses s as the base template.
func Literal(s string) Template {
	return Template{kind: templateLiteral, literal: s}
}

// OneOf picks uniformly among choices.
func OneOf(choices ...string) Template {
	return Template{kind: templateOneOf, choices: choices}
}

// FromTemplates picks uniformly among the templates t exposes.
func FromTemplates(t Templater) Template {
	return Template{kind: templateSource, source: t}
}

// Pool draws from the generator's loaded templates.
func Pool() Template {
	return Template{}
}

// ParseTemplate classifies decoded template input: nil, a string, a list of
// strings, an object with a "templates" field, a Templater or a Template.
func ParseTemplate(v any) (Template, error) {
	switch t := v.(type) {
	case nil:
		return Pool(), nil
	case Template:
		return t, nil
	case string:
		return Literal(t), nil
	case []string:
		return OneOf(t...), nil
	case []any:
		choices := make([]string, len(t))
		for i, c := range t {
			s, ok := c.(string)
			if !ok {
				return Template{}, fmt.Errorf("%w: template choice %d is %T, not a string", errs.ErrMalformedTemplate, i, c)
			}
			choices[i] = s
		}
		return OneOf(choices...), nil
	case map[string]any:
		inner, ok := t["templates"]
		if !ok || inner == nil {
			return Template{}, fmt.Errorf("%w: object has no templates field", errs.ErrMalformedTemplate)
		}
		return ParseTemplate(inner)
	case Templater:
		return FromTemplates(t), nil
	}
	return Template{}, fmt.Errorf("%w: unsupported template %T", errs.ErrMalformedTemplate, v)
}

// resolve returns the base string for one run.
func (t Template) resolve(r value.Rand, pool []string) (string, error) {
	switch t.kind {
	case templateLiteral:
		return t.literal, nil
	case templateOneOf:
		return pickUniform(r, t.choices, "template list is empty")
	case templateSource:
		if t.source == nil {
			return "", fmt.Errorf("%w: nil template source", errs.ErrMalformedTemplate)
		}
		return pickUniform(r, t.source.BaseTemplates(), "template source has no templates")
	}
	return pickUniform(r, pool, "no template given and none loaded")
}

func pickUniform(r value.Rand, choices []string, empty string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("%w: %s", errs.ErrMalformedTemplate, empty)
	}
	return choices[r.Intn(len(choices))], nil
}
