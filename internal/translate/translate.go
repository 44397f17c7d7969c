// Package translate turns one ECMAScript module into what the bundler needs
// from it: a syntax tree, the static import specifiers found in that tree,
// and CommonJS-shaped code that expects require, module and exports to be
// supplied by the runtime loader.
//
// The rest of the build only sees the Translator interface; ESModule is the
// implementation used by the CLI.
package translate

import (
	"context"
	"fmt"
)

// Tree is a parsed module. Its concrete type belongs to the Translator that
// produced it and is opaque to every other package.
type Tree any

// Unit is the result of translating one source file.
type Unit struct {
	Tree Tree
	Code string
}

// Translator parses and downlevels module sources.
type Translator interface {
	// Translate parses src and downlevels it. filename is used for
	// diagnostics and must not influence which file is read.
	Translate(ctx context.Context, filename string, src []byte) (*Unit, error)
	// StaticImports lists the literal specifiers of every static import and
	// re-export in source order, duplicates included.
	StaticImports(unit *Unit) ([]string, error)
}

// SyntaxError is returned when a translator rejects a source file.
type SyntaxError struct {
	Filename string
	Line     int // 1-based, 0 when unknown
	Column   int // 0-based, as reported by the parser
	Message  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Message)
}
