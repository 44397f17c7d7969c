package hclconfig

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/minipack/internal/config"
	"github.com/specialistvlad/minipack/internal/ctxlog"
	"github.com/specialistvlad/minipack/internal/fsys"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a loader whose env variable is built from environ,
// typically os.Environ. It is called on every Load so variables set after
// construction, e.g. from a .env file, are visible. A nil environ exposes an
// empty env object.
func NewLoader(environ func() []string) *Loader {
	return &Loader{environ: environ}
}

// fileRoot is the set of top-level blocks a project file may contain.
type fileRoot struct {
	Bundles []*bundleBlock `hcl:"bundle,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

type bundleBlock struct {
	Name         string            `hcl:"name,label"`
	Entry        string            `hcl:"entry"`
	Output       *string           `hcl:"output,optional"`
	Graph        *string           `hcl:"graph,optional"`
	Dedupe       *bool             `hcl:"dedupe,optional"`
	CacheExports *bool             `hcl:"cache_exports,optional"`
	Minify       *bool             `hcl:"minify,optional"`
	Target       *string           `hcl:"target,optional"`
	GlobalName   *string           `hcl:"global_name,optional"`
	Workers      *int              `hcl:"workers,optional"`
	Define       map[string]string `hcl:"define,optional"`
}

// Load parses every .hcl file found at paths and merges their bundles.
func (l *Loader) Load(ctx context.Context, defaults config.Bundle, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no project files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": l.envValue()},
	}
	parser := hclparse.NewParser()
	model := &config.Model{}
	seen := make(map[string]string)
	outputs := make(map[string]string)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, &config.Error{Path: file, Err: fmt.Errorf("failed to parse: %w", diags)}
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, &config.Error{Path: file, Err: fmt.Errorf("failed to decode: %w", diags)}
		}

		baseDir := filepath.Dir(file)
		for _, block := range root.Bundles {
			if prev, dup := seen[block.Name]; dup {
				return nil, &config.Error{Path: file, Err: fmt.Errorf("bundle %q already declared in %s", block.Name, prev)}
			}
			seen[block.Name] = file

			b := translateBundle(block, defaults, baseDir)
			if err := b.Validate(); err != nil {
				return nil, &config.Error{Path: file, Err: err}
			}
			out, err := filepath.Abs(b.Output)
			if err != nil {
				return nil, &config.Error{Path: file, Err: err}
			}
			if prev, dup := outputs[out]; dup {
				return nil, &config.Error{Path: file, Err: fmt.Errorf("bundle %q writes %s, already the output of bundle %q", b.Name, b.Output, prev)}
			}
			outputs[out] = b.Name
			model.Bundles = append(model.Bundles, b)
		}
	}

	logger.Debug("HCL loading complete.", "bundles", len(model.Bundles))
	return model, nil
}

// translateBundle converts a decoded block into the format-agnostic model,
// filling unset attributes from defaults.
func translateBundle(block *bundleBlock, defaults config.Bundle, baseDir string) *config.Bundle {
	b := defaults
	b.Name = block.Name
	b.Entry = resolvePath(baseDir, block.Entry)
	if block.Output != nil {
		b.Output = resolvePath(baseDir, *block.Output)
	}
	if block.Graph != nil {
		b.Graph = resolvePath(baseDir, *block.Graph)
	}
	if block.Dedupe != nil {
		b.Dedupe = *block.Dedupe
	}
	if block.CacheExports != nil {
		b.CacheExports = *block.CacheExports
	}
	if block.Minify != nil {
		b.Minify = *block.Minify
	}
	if block.Target != nil {
		b.Target = *block.Target
	}
	if block.GlobalName != nil {
		b.GlobalName = *block.GlobalName
	}
	if block.Workers != nil {
		b.Workers = *block.Workers
	}
	if block.Define != nil {
		b.Define = maps.Clone(defaults.Define)
		if b.Define == nil {
			b.Define = make(map[string]string, len(block.Define))
		}
		maps.Copy(b.Define, block.Define)
	}
	return &b
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// envValue exposes the environment as an object; later duplicates win, as
// they do for os.Getenv.
func (l *Loader) envValue() cty.Value {
	var environ []string
	if l.environ != nil {
		environ = l.environ()
	}
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vars)
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &config.Error{Path: path, Err: err}
		}

		if info.IsDir() {
			found, err := fsys.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, &config.Error{Path: path, Err: err}
			}
			for _, p := range found {
				add(p)
			}
		} else {
			add(path)
		}
	}
	return allFiles, nil
}
