package library

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/value"
)

// Convert validates raw bundle input and returns a normalised copy.
//
// v may be JSON text ([]byte or string), a decoded document
// (map[string]any), or an existing *Data / Data. A non-empty "key" field is
// required and every value list is passed through value.Prep.
func Convert(v any) (*Data, error) {
	switch x := v.(type) {
	case []byte:
		return convertJSON(x)
	case string:
		return convertJSON([]byte(x))
	case map[string]any:
		return fromMap(x)
	case *Data:
		if x == nil {
			return nil, diag.Default().Fail(fmt.Errorf("%w: nil bundle", errs.ErrMalformedInput))
		}
		return fromData(x)
	case Data:
		return fromData(&x)
	}
	return nil, diag.Default().Fail(fmt.Errorf("%w: cannot convert %T to a bundle", errs.ErrMalformedInput, v))
}

func convertJSON(raw []byte) (*Data, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, diag.Default().Fail(fmt.Errorf("%w: bundle is not valid JSON: %v", errs.ErrMalformedInput, err))
	}
	return fromMap(doc)
}

func fromData(src *Data) (*Data, error) {
	if src.Key == "" {
		return nil, diag.Default().Fail(fmt.Errorf("%w: bundle has no key", errs.ErrMalformedInput))
	}
	out := src.Clone()
	for k, items := range out.Values {
		prepped, err := value.Prep(items)
		if err != nil {
			return nil, err
		}
		out.Values[k] = prepped
	}
	return out, nil
}

func fromMap(doc map[string]any) (*Data, error) {
	key, _ := doc["key"].(string)
	if key == "" {
		return nil, diag.Default().Fail(fmt.Errorf("%w: bundle has no key field", errs.ErrMalformedInput))
	}
	out := NewData(key)

	if err := decodeDefinitions(out, doc["definitions"]); err != nil {
		return nil, diag.Default().Fail(err)
	}
	if err := decodeValues(out, doc["values"]); err != nil {
		return nil, err
	}
	if err := decodeTemplates(out, doc["templates"]); err != nil {
		return nil, diag.Default().Fail(err)
	}
	return out, nil
}

func decodeDefinitions(out *Data, raw any) error {
	switch defs := raw.(type) {
	case nil:
		return nil
	case map[string]string:
		for k, v := range defs {
			out.Definitions[k] = v
		}
		return nil
	case map[string]any:
		for k, v := range defs {
			s, ok := scalarString(v)
			if !ok {
				return fmt.Errorf("%w: bundle %q: definition %q must be a string, got %T",
					errs.ErrMalformedInput, out.Key, k, v)
			}
			out.Definitions[k] = s
		}
		return nil
	}
	return fmt.Errorf("%w: bundle %q: definitions must be a map, got %T", errs.ErrMalformedInput, out.Key, raw)
}

func decodeValues(out *Data, raw any) error {
	switch vals := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, v := range vals {
			items, err := value.Prep(v)
			if err != nil {
				return fmt.Errorf("bundle %q: values %q: %w", out.Key, k, err)
			}
			out.Values[k] = items
		}
		return nil
	case map[string][]value.Item:
		for k, v := range vals {
			items, err := value.Prep(v)
			if err != nil {
				return err
			}
			out.Values[k] = items
		}
		return nil
	}
	return diag.Default().Fail(fmt.Errorf("%w: bundle %q: values must be a map, got %T",
		errs.ErrMalformedInput, out.Key, raw))
}

func decodeTemplates(out *Data, raw any) error {
	switch ts := raw.(type) {
	case nil:
		return nil
	case string:
		out.Templates = append(out.Templates, ts)
		return nil
	case []string:
		out.Templates = append(out.Templates, ts...)
		return nil
	case []any:
		for i, t := range ts {
			s, ok := t.(string)
			if !ok {
				return fmt.Errorf("%w: bundle %q: template %d must be a string, got %T",
					errs.ErrMalformedInput, out.Key, i, t)
			}
			out.Templates = append(out.Templates, s)
		}
		return nil
	}
	return fmt.Errorf("%w: bundle %q: templates must be a list, got %T", errs.ErrMalformedInput, out.Key, raw)
}

// scalarString renders decoded scalars (YAML and TOML allow unquoted numbers
// and booleans) as definition text.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return fmt.Sprint(x), true
	case json.Number:
		return x.String(), true
	}
	if f, ok := value.ToFloat(v); ok {
		return fmt.Sprint(f), true
	}
	return "", false
}
