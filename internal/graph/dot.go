package graph

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/specialistvlad/minipack/internal/asset"
)

// DOT renders the module graph as Graphviz source. Nodes are labelled with
// their id and file name, edges with the import specifier.
func DOT(assets []*asset.Asset) []byte {
	var b bytes.Buffer
	b.WriteString("digraph bundle {\n")
	b.WriteString("  node [shape=box];\n")
	for _, a := range assets {
		label := fmt.Sprintf("%d: %s", a.ID, filepath.Base(a.Filename))
		fmt.Fprintf(&b, "  %d [label=%s tooltip=%s];\n", a.ID, strconv.Quote(label), strconv.Quote(a.Filename))
	}
	for _, a := range assets {
		specs := make([]string, 0, len(a.Mapping))
		for spec := range a.Mapping {
			specs = append(specs, spec)
		}
		slices.Sort(specs)
		for _, spec := range specs {
			fmt.Fprintf(&b, "  %d -> %d [label=%s];\n", a.ID, a.Mapping[spec], strconv.Quote(spec))
		}
	}
	b.WriteString("}\n")
	return b.Bytes()
}
