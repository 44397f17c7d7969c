// Package asset extracts a single module file into an Asset: its identity,
// the import specifiers it declares and its downleveled code.
package asset

import (
	"context"
	"time"

	"github.com/specialistvlad/minipack/internal/ctxlog"
	"github.com/specialistvlad/minipack/internal/fsys"
	"github.com/specialistvlad/minipack/internal/translate"
)

// Asset is one source file after extraction.
type Asset struct {
	// ID is assigned in discovery order; the entry file is always 0.
	ID int
	// Filename is the absolute path the source was read from.
	Filename string
	// Dependencies are the import specifiers exactly as written, in source
	// order, duplicates kept.
	Dependencies []string
	// Code is the downleveled module body. It refers to require, module and
	// exports as free variables.
	Code string
	// Mapping resolves each specifier in Dependencies to the ID of the
	// asset it was bundled as. It is filled in by the graph builder.
	Mapping map[string]int
}

// Extractor reads and translates module files.
type Extractor struct {
	fs fsys.FS
	tr translate.Translator
}

// NewExtractor creates an Extractor over the given collaborators.
func NewExtractor(fs fsys.FS, tr translate.Translator) *Extractor {
	return &Extractor{fs: fs, tr: tr}
}

// Extract reads filename once, translates it once and returns the Asset
// under the given id. Mapping is returned empty and non-nil.
func (e *Extractor) Extract(ctx context.Context, filename string, id int) (*Asset, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	src, err := e.fs.ReadFile(filename)
	if err != nil {
		return nil, &IOError{Op: "read", Path: filename, Err: err}
	}

	unit, err := e.tr.Translate(ctx, filename, src)
	if err != nil {
		return nil, &ParseError{Path: filename, Err: err}
	}

	deps, err := e.tr.StaticImports(unit)
	if err != nil {
		return nil, &ParseError{Path: filename, Err: err}
	}

	logger.Debug("Asset extracted.", "id", id, "file", filename, "dependencies", len(deps), "duration", time.Since(start))
	return &Asset{
		ID:           id,
		Filename:     filename,
		Dependencies: deps,
		Code:         unit.Code,
		Mapping:      make(map[string]int, len(deps)),
	}, nil
}
