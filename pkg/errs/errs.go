// Package errs defines the error kinds shared by the value model, the library
// container and the generator.
//
// Kinds are sentinels; call sites wrap them with context:
//
//	fmt.Errorf("%w: no values at %q", errs.ErrNotFound, key)
//
// and callers test with errors.Is.
package errs

import "errors"

var (
	// ErrMalformedInput covers bad JSON, a missing required key field and
	// value shapes the parser does not recognise.
	ErrMalformedInput = errors.New("gmgen: malformed input")

	// ErrNotFound indicates a missing library entry, definition, value key
	// or template.
	ErrNotFound = errors.New("gmgen: not found")

	// ErrIndexOutOfRange indicates an index mutation outside current bounds.
	ErrIndexOutOfRange = errors.New("gmgen: index out of range")

	// ErrMalformedTemplate indicates a template argument that is neither a
	// string, a list of strings nor a container exposing templates.
	ErrMalformedTemplate = errors.New("gmgen: malformed template")
)
