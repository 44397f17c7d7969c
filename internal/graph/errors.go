package graph

import (
	"fmt"
	"strings"
)

// ResolutionError reports an import specifier that does not lead to a
// readable file.
type ResolutionError struct {
	Specifier string
	Importer  string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q imported by %s: %v", e.Specifier, e.Importer, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// CycleError reports an import chain that leads back to one of its own
// files while traversing edge by edge.
type CycleError struct {
	// Chain lists the files from the first occurrence of the repeated file
	// to its re-import, both ends included.
	Chain []string
}

func (e *CycleError) Error() string {
	return "import cycle: " + strings.Join(e.Chain, " -> ")
}
