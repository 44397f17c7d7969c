package config

import (
	"fmt"
	"strings"
)

// Model is the complete set of bundles requested for one run.
type Model struct {
	Bundles []*Bundle
}

// Bundle describes a single build: where it starts, where it is written and
// how each stage behaves.
type Bundle struct {
	Name   string
	Entry  string
	Output string
	// Graph is an optional path for a Graphviz rendering of the module graph.
	Graph string

	// Dedupe bundles each file once, keyed by canonical path. When false
	// every import edge produces its own module record.
	Dedupe bool
	// CacheExports makes the runtime loader execute each module at most once.
	CacheExports bool
	Minify       bool
	Target       string
	GlobalName   string
	Workers      int
	Define       map[string]string
}

// Validate reports the first missing or inconsistent field.
func (b *Bundle) Validate() error {
	if strings.TrimSpace(b.Entry) == "" {
		return fmt.Errorf("bundle %q: entry is required", b.Name)
	}
	if strings.TrimSpace(b.Output) == "" {
		return fmt.Errorf("bundle %q: output is required", b.Name)
	}
	if b.Workers < 1 {
		return fmt.Errorf("bundle %q: workers must be at least 1, got %d", b.Name, b.Workers)
	}
	return nil
}

// Error is a project file problem with the file it came from.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
