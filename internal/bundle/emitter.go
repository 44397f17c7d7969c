package bundle

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/specialistvlad/minipack/internal/asset"
	"github.com/specialistvlad/minipack/internal/ctxlog"
)

//go:embed runtime.js.tmpl
var runtimeSource string

var runtimeTemplate = template.Must(template.New("runtime").Parse(runtimeSource))

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reservedWords cannot be declared with var in a script.
var reservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true,
}

// Options controls the emitted script.
type Options struct {
	// CacheExports makes require(id) run a module body once and hand out the
	// same exports afterwards. When false every call re-runs the body.
	CacheExports bool
	// GlobalName, when set, assigns the entry module's exports to a global
	// variable of that name.
	GlobalName string
	// Minify compresses the finished script.
	Minify bool
}

// Emitter renders module graphs.
type Emitter struct {
	opts Options
}

// New validates opts and returns an Emitter.
func New(opts Options) (*Emitter, error) {
	if opts.GlobalName != "" && !identifierRe.MatchString(opts.GlobalName) {
		return nil, fmt.Errorf("global name %q is not a valid identifier", opts.GlobalName)
	}
	if reservedWords[opts.GlobalName] {
		return nil, fmt.Errorf("global name %q is a reserved word", opts.GlobalName)
	}
	return &Emitter{opts: opts}, nil
}

// ValidationError reports a graph that cannot be emitted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid module graph: " + strings.Join(e.Problems, "; ")
}

type moduleView struct {
	ID      int
	Code    string
	Mapping string
}

type runtimeView struct {
	CacheExports bool
	GlobalName   string
	Modules      []moduleView
}

// Emit renders assets as a script. Modules appear in id order, and mapping
// keys are sorted, so equal graphs produce identical bytes.
func (e *Emitter) Emit(ctx context.Context, assets []*asset.Asset) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	if err := Validate(assets); err != nil {
		return nil, err
	}

	sorted := slices.Clone(assets)
	slices.SortFunc(sorted, func(a, b *asset.Asset) int { return a.ID - b.ID })

	view := runtimeView{
		CacheExports: e.opts.CacheExports,
		GlobalName:   e.opts.GlobalName,
		Modules:      make([]moduleView, 0, len(sorted)),
	}
	for _, a := range sorted {
		mapping, err := marshalMapping(a.Mapping)
		if err != nil {
			return nil, fmt.Errorf("serialise mapping of %s: %w", a.Filename, err)
		}
		view.Modules = append(view.Modules, moduleView{ID: a.ID, Code: a.Code, Mapping: mapping})
	}

	var out bytes.Buffer
	if err := runtimeTemplate.Execute(&out, view); err != nil {
		return nil, fmt.Errorf("render runtime: %w", err)
	}
	logger.Debug("Bundle rendered.", "modules", len(sorted), "bytes", out.Len())

	if !e.opts.Minify {
		return out.Bytes(), nil
	}
	return minify(out.Bytes())
}

// Validate checks that ids are unique, that the entry id 0 exists and that
// every mapping value names a module in the graph.
func Validate(assets []*asset.Asset) error {
	var problems []string
	ids := make(map[int]string, len(assets))
	for _, a := range assets {
		if prev, dup := ids[a.ID]; dup {
			problems = append(problems, fmt.Sprintf("id %d used by both %s and %s", a.ID, prev, a.Filename))
			continue
		}
		ids[a.ID] = a.Filename
	}
	if _, ok := ids[0]; !ok {
		problems = append(problems, "no entry module with id 0")
	}
	for _, a := range assets {
		for _, spec := range sortedKeys(a.Mapping) {
			if _, ok := ids[a.Mapping[spec]]; !ok {
				problems = append(problems, fmt.Sprintf("%s maps %q to unknown id %d", a.Filename, spec, a.Mapping[spec]))
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// marshalMapping encodes the mapping as a JSON object. encoding/json sorts
// map keys; HTML escaping is turned off because the output is a script.
func marshalMapping(m map[string]int) (string, error) {
	if m == nil {
		m = map[string]int{}
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func minify(code []byte) ([]byte, error) {
	result := api.Transform(string(code), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return nil, fmt.Errorf("minify bundle: %w", errors.New(strings.Join(msgs, "; ")))
	}
	return result.Code, nil
}
