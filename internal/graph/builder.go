package graph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/minipack/internal/asset"
	"github.com/specialistvlad/minipack/internal/ctxlog"
	"github.com/specialistvlad/minipack/internal/fsys"
)

// Extractor turns a file into an Asset under a caller-chosen id.
type Extractor interface {
	Extract(ctx context.Context, filename string, id int) (*asset.Asset, error)
}

// Options controls traversal.
type Options struct {
	// Dedupe extracts each canonical file once and reuses its id.
	Dedupe bool
	// Workers bounds concurrent extraction of one module's children.
	// Values below 2 extract sequentially.
	Workers int
}

// Builder builds module graphs. A Builder holds no per-build state, so one
// value may run any number of builds, including concurrently.
type Builder struct {
	extractor Extractor
	fs        fsys.FS
	opts      Options
}

// New creates a Builder.
func New(extractor Extractor, fs fsys.FS, opts Options) *Builder {
	return &Builder{extractor: extractor, fs: fs, opts: opts}
}

// counter hands out ids in discovery order. It is owned by a single build.
type counter struct {
	next int
}

func (c *counter) take() int {
	id := c.next
	c.next++
	return id
}

// node is a queued asset plus what traversal needs to know about it.
type node struct {
	asset  *asset.Asset
	parent *node
	key    string // canonical path, set only when deduplicating
}

// child is a planned extraction.
type child struct {
	spec string
	path string
	key  string
	id   int
}

// build is the state of one Build call.
type build struct {
	*Builder
	ids   counter
	queue []*node
	seen  map[string]int // canonical path -> id
}

// Build returns every asset reachable from entry in breadth-first discovery
// order. The returned slice is indexed by asset id.
func (b *Builder) Build(ctx context.Context, entry string) ([]*asset.Asset, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "entry", entry, "dedupe", b.opts.Dedupe, "workers", b.opts.Workers)

	st := &build{Builder: b, seen: make(map[string]int)}

	entryPath, err := b.fs.ResolveRelative(".", entry)
	if err != nil {
		return nil, &asset.IOError{Op: "resolve", Path: entry, Err: err}
	}
	root := &node{}
	if b.opts.Dedupe {
		if root.key, err = b.fs.Canonical(entryPath); err != nil {
			return nil, &asset.IOError{Op: "resolve", Path: entryPath, Err: err}
		}
	}

	id := st.ids.take()
	if root.asset, err = b.extractor.Extract(ctx, entryPath, id); err != nil {
		return nil, err
	}
	st.remember(root.key, id)
	st.queue = append(st.queue, root)

	// The queue grows while it is walked; every appended node is visited.
	for i := 0; i < len(st.queue); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent := st.queue[i]

		planned, err := st.plan(parent)
		if err != nil {
			return nil, err
		}
		children, err := st.extract(ctx, parent, planned)
		if err != nil {
			return nil, err
		}
		st.queue = append(st.queue, children...)
	}

	assets := make([]*asset.Asset, len(st.queue))
	for i, n := range st.queue {
		assets[i] = n.asset
	}
	logger.Debug("Build: Graph construction successful.", "assets", len(assets))
	return assets, nil
}

func (st *build) remember(key string, id int) {
	if key != "" {
		st.seen[key] = id
	}
}

// plan resolves parent's dependencies in source order, reserves ids and
// fills parent's mapping. Later duplicates of a specifier overwrite earlier
// ones in the mapping.
func (st *build) plan(parent *node) ([]child, error) {
	a := parent.asset
	dir := filepath.Dir(a.Filename)

	var planned []child
	for _, spec := range a.Dependencies {
		if !fsys.IsRelativeSpecifier(spec) {
			return nil, &ResolutionError{Specifier: spec, Importer: a.Filename, Err: errors.New("only relative paths are supported")}
		}
		path, err := st.fs.ResolveRelative(dir, spec)
		if err != nil {
			return nil, &ResolutionError{Specifier: spec, Importer: a.Filename, Err: err}
		}

		c := child{spec: spec, path: path}
		if st.opts.Dedupe {
			if c.key, err = st.fs.Canonical(path); err != nil {
				return nil, &ResolutionError{Specifier: spec, Importer: a.Filename, Err: err}
			}
			if id, ok := st.seen[c.key]; ok {
				a.Mapping[spec] = id
				continue
			}
		} else if chain := cycleChain(parent, path); chain != nil {
			return nil, &CycleError{Chain: chain}
		}

		c.id = st.ids.take()
		st.remember(c.key, c.id)
		a.Mapping[spec] = c.id
		planned = append(planned, c)
	}
	return planned, nil
}

// extract runs the planned extractions and returns the nodes in plan order.
func (st *build) extract(ctx context.Context, parent *node, planned []child) ([]*node, error) {
	nodes := make([]*node, len(planned))
	run := func(ctx context.Context, i int) error {
		c := planned[i]
		a, err := st.extractor.Extract(ctx, c.path, c.id)
		if err != nil {
			var ioErr *asset.IOError
			if errors.As(err, &ioErr) && errors.Is(err, fs.ErrNotExist) {
				return &ResolutionError{Specifier: c.spec, Importer: parent.asset.Filename, Err: err}
			}
			return fmt.Errorf("%s imported by %s: %w", c.spec, parent.asset.Filename, err)
		}
		nodes[i] = &node{asset: a, parent: parent, key: c.key}
		return nil
	}

	if st.opts.Workers < 2 || len(planned) < 2 {
		for i := range planned {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
		return nodes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.opts.Workers)
	for i := range planned {
		g.Go(func() error { return run(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// cycleChain returns the import chain if path is already on parent's
// ancestor chain, or nil.
func cycleChain(parent *node, path string) []string {
	var chain []string
	for n := parent; n != nil; n = n.parent {
		chain = append(chain, n.asset.Filename)
		if n.asset.Filename == path {
			slices.Reverse(chain)
			return append(chain, path)
		}
	}
	return nil
}
