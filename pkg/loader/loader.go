// Package loader reads bundle documents from a hackpadfs filesystem.
//
// A document is JSON (.json), YAML (.yaml, .yml) or TOML (.toml) and holds
// one bundle, a list of bundles, or a table of bundles keyed by name. The
// decoded document is handed to library.New, so every shape it accepts is
// accepted here.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hack-pad/hackpadfs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/library"
)

// Format is a bundle document encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	}
	return "unknown"
}

// FormatOf picks the format from a file extension.
func FormatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}
	return FormatUnknown
}

// Loader reads bundle documents from FS.
type Loader struct {
	FS  hackpadfs.FS
	log *diag.Logger
}

// New returns a loader over fsys. A nil logger uses diag.Default().
func New(fsys hackpadfs.FS, log *diag.Logger) *Loader {
	if log == nil {
		log = diag.Default()
	}
	return &Loader{FS: fsys, log: log}
}

// Load reads every path, file or directory, into one library. Bundles that
// share a key are merged in the order they are read.
func (l *Loader) Load(paths ...string) (*library.Library, error) {
	lib, _ := library.New(nil)
	for _, p := range paths {
		info, err := hackpadfs.Stat(l.FS, p)
		if err != nil {
			return nil, l.log.Fail(fmt.Errorf("stat %s: %w", p, err))
		}
		var bundles []*library.Data
		if info.IsDir() {
			bundles, err = l.LoadDir(p)
		} else {
			bundles, err = l.LoadFile(p)
		}
		if err != nil {
			return nil, err
		}
		for _, b := range bundles {
			if err := lib.AddData(b); err != nil {
				return nil, err
			}
		}
	}
	return lib, nil
}

// LoadDir reads every recognised document under dir, recursively, in
// lexical order. Files with other extensions are skipped.
func (l *Loader) LoadDir(dir string) ([]*library.Data, error) {
	var out []*library.Data
	err := fs.WalkDir(l.FS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || FormatOf(p) == FormatUnknown {
			return nil
		}
		bundles, err := l.LoadFile(p)
		if err != nil {
			return err
		}
		out = append(out, bundles...)
		return nil
	})
	if err != nil {
		return nil, l.log.Fail(fmt.Errorf("load %s: %w", dir, err))
	}
	return out, nil
}

// LoadFile reads one document.
func (l *Loader) LoadFile(name string) ([]*library.Data, error) {
	raw, err := hackpadfs.ReadFile(l.FS, name)
	if err != nil {
		return nil, l.log.Fail(fmt.Errorf("read %s: %w", name, err))
	}
	doc, err := Decode(FormatOf(name), raw)
	if err != nil {
		return nil, l.log.Fail(fmt.Errorf("%s: %w", name, err))
	}
	lib, err := library.New(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	l.log.Debug("bundle document loaded", zap.String("file", name), zap.Int("bundles", lib.Len()))
	return lib.Content(), nil
}

// Decode parses raw into generic maps and lists.
func Decode(f Format, raw []byte) (any, error) {
	var doc any
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON: %v", errs.ErrMalformedInput, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: invalid YAML: %v", errs.ErrMalformedInput, err)
		}
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("%w: invalid TOML: %v", errs.ErrMalformedInput, err)
		}
		doc = table
	default:
		return nil, fmt.Errorf("%w: unsupported document format", errs.ErrMalformedInput)
	}
	return doc, nil
}
