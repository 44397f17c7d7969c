package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"vimagination.zapto.org/javascript"
	"vimagination.zapto.org/parser"

	"github.com/specialistvlad/minipack/internal/ctxlog"
)

// Options configures ESModule.
type Options struct {
	// Target is the language level of the emitted code, e.g. "es2015" or
	// "esnext". Empty means es2015.
	Target string
	// Define replaces global identifiers with constant expressions, e.g.
	// {"process.env.NODE_ENV": `"production"`}.
	Define map[string]string
	// CacheSize is the number of translated units kept in memory. Zero
	// disables the cache.
	CacheSize int
}

// ESModule parses sources with vimagination.zapto.org/javascript and
// downlevels them to CommonJS with esbuild.
type ESModule struct {
	target api.Target
	define map[string]string
	cache  *unitCache
}

// NewESModule validates opts and returns a ready translator.
func NewESModule(opts Options) (*ESModule, error) {
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	t := &ESModule{
		target: target,
		define: opts.Define,
	}
	if opts.CacheSize > 0 {
		if t.cache, err = newUnitCache(opts.CacheSize); err != nil {
			return nil, fmt.Errorf("create translation cache: %w", err)
		}
	}
	return t, nil
}

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ParseTarget maps a target name to the esbuild constant. ES5 is not
// offered because esbuild cannot lower let/const and classes to it.
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		return api.ES2015, nil
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unsupported target %q", name)
	}
	return t, nil
}

func (t *ESModule) Translate(ctx context.Context, filename string, src []byte) (*Unit, error) {
	logger := ctxlog.FromContext(ctx)

	key := cacheKey(filename, src)
	if unit, ok := t.cache.get(key); ok {
		logger.Debug("Translation cache hit.", "file", filename)
		return unit, nil
	}

	tk := parser.NewStringTokeniser(string(src))
	tree, err := javascript.ParseModule(&tk)
	if err != nil {
		return nil, &SyntaxError{Filename: filename, Message: err.Error()}
	}

	result := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     t.target,
		Define:     t.define,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, syntaxErrorFromMessage(filename, result.Errors[0])
	}
	for _, w := range result.Warnings {
		logger.Warn("Translator warning.", "file", filename, "warning", w.Text)
	}

	unit := &Unit{Tree: tree, Code: string(result.Code)}
	t.cache.add(key, unit)
	return unit, nil
}

func (t *ESModule) StaticImports(unit *Unit) ([]string, error) {
	if unit == nil {
		return nil, errors.New("nil unit")
	}
	module, ok := unit.Tree.(*javascript.Module)
	if !ok {
		return nil, fmt.Errorf("unexpected syntax tree type %T", unit.Tree)
	}

	var specs []string
	add := func(tok *javascript.Token) error {
		if tok == nil {
			return nil
		}
		spec, err := javascript.Unquote(tok.Data)
		if err != nil {
			return fmt.Errorf("module specifier %s: %w", tok.Data, err)
		}
		specs = append(specs, spec)
		return nil
	}

	for _, item := range module.ModuleListItems {
		switch {
		case item.ImportDeclaration != nil:
			if err := add(item.ImportDeclaration.FromClause.ModuleSpecifier); err != nil {
				return nil, err
			}
		case item.ExportDeclaration != nil && item.ExportDeclaration.FromClause != nil:
			if err := add(item.ExportDeclaration.FromClause.ModuleSpecifier); err != nil {
				return nil, err
			}
		}
	}
	return specs, nil
}

func syntaxErrorFromMessage(filename string, msg api.Message) *SyntaxError {
	e := &SyntaxError{Filename: filename, Message: msg.Text}
	if msg.Location != nil {
		e.Line = msg.Location.Line
		e.Column = msg.Location.Column
	}
	return e
}
