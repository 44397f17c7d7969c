package bundle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/minipack/internal/asset"
	"github.com/specialistvlad/minipack/internal/testutil"
)

func emit(t *testing.T, opts Options, assets []*asset.Asset) []byte {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	out, err := e.Emit(context.Background(), assets)
	require.NoError(t, err)
	return out
}

func TestEmit_Golden(t *testing.T) {
	t.Parallel()
	assets := []*asset.Asset{
		{ID: 0, Filename: "/src/entry.js", Code: `var a = require("./a.js");`, Mapping: map[string]int{"./a.js": 1}},
		{ID: 1, Filename: "/src/a.js", Code: `module.exports = 1;`, Mapping: map[string]int{}},
	}

	out := emit(t, Options{}, assets)

	require.Equal(t, `(function (modules) {
  function require(id) {
    var fn = modules[id][0];
    var mapping = modules[id][1];
    function localRequire(specifier) {
      if (!Object.prototype.hasOwnProperty.call(mapping, specifier)) {
        throw new Error("Cannot find module '" + specifier + "'");
      }
      return require(mapping[specifier]);
    }
    var module = { exports: {} };
    fn(localRequire, module, module.exports);
    return module.exports;
  }
  require(0);
})({
0: [
function (require, module, exports) {
var a = require("./a.js");
},
{"./a.js":1}
],
1: [
function (require, module, exports) {
module.exports = 1;
},
{}
],
});
`, string(out))
}

func TestEmit_SingleModule(t *testing.T) {
	t.Parallel()
	assets := []*asset.Asset{{ID: 0, Filename: "/src/entry.js", Code: `trace.push("entry");`, Mapping: map[string]int{}}}

	out := emit(t, Options{CacheExports: true}, assets)

	assert.Equal(t, 1, strings.Count(string(out), "function (require, module, exports)"))
	assert.Contains(t, string(out), "\n{}\n")

	vm := testutil.NewVM(t)
	require.NoError(t, testutil.RunBundle(vm, out))
	assert.Equal(t, []string{"entry"}, testutil.Trace(t, vm))
}

func TestEmit_Deterministic(t *testing.T) {
	t.Parallel()
	mk := func() []*asset.Asset {
		return []*asset.Asset{
			{ID: 1, Filename: "/src/a.js", Code: `1;`, Mapping: map[string]int{}},
			{ID: 0, Filename: "/src/entry.js", Code: `0;`, Mapping: map[string]int{"./z.js": 1, "./a.js": 1, "./m.js": 1}},
		}
	}

	first := emit(t, Options{}, mk())
	second := emit(t, Options{}, mk())

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), `{"./a.js":1,"./m.js":1,"./z.js":1}`)
	assert.Less(t, strings.Index(string(first), "0: ["), strings.Index(string(first), "1: ["), "modules are emitted in id order")
}

// sharedDependency is entry -> a, entry -> c, a -> b, c -> b with b shared.
func sharedDependency() []*asset.Asset {
	return []*asset.Asset{
		{ID: 0, Filename: "/src/entry.js", Code: `require("./a.js"); require("./c.js");`, Mapping: map[string]int{"./a.js": 1, "./c.js": 2}},
		{ID: 1, Filename: "/src/a.js", Code: `trace.push("a"); require("./b.js");`, Mapping: map[string]int{"./b.js": 3}},
		{ID: 2, Filename: "/src/c.js", Code: `trace.push("c"); require("./b.js");`, Mapping: map[string]int{"./b.js": 3}},
		{ID: 3, Filename: "/src/b.js", Code: `trace.push("b"); exports.value = 42;`, Mapping: map[string]int{}},
	}
}

func TestEmit_RuntimeReexecutesWithoutCache(t *testing.T) {
	t.Parallel()
	out := emit(t, Options{CacheExports: false}, sharedDependency())

	vm := testutil.NewVM(t)
	require.NoError(t, testutil.RunBundle(vm, out))

	assert.Equal(t, []string{"a", "b", "c", "b"}, testutil.Trace(t, vm))
}

func TestEmit_RuntimeCachesExports(t *testing.T) {
	t.Parallel()
	out := emit(t, Options{CacheExports: true}, sharedDependency())

	vm := testutil.NewVM(t)
	require.NoError(t, testutil.RunBundle(vm, out))

	assert.Equal(t, []string{"a", "b", "c"}, testutil.Trace(t, vm))
}

func TestEmit_RuntimeCycleSeesPartialExports(t *testing.T) {
	t.Parallel()
	assets := []*asset.Asset{
		{ID: 0, Filename: "/src/a.js", Code: `exports.early = 1; var b = require("./b.js"); trace.push("a saw " + b.seen); exports.late = 2;`, Mapping: map[string]int{"./b.js": 1}},
		{ID: 1, Filename: "/src/b.js", Code: `var a = require("./a.js"); exports.seen = String(a.early) + "/" + String(a.late);`, Mapping: map[string]int{"./a.js": 0}},
	}

	out := emit(t, Options{CacheExports: true}, assets)

	vm := testutil.NewVM(t)
	require.NoError(t, testutil.RunBundle(vm, out))
	assert.Equal(t, []string{"a saw 1/undefined"}, testutil.Trace(t, vm))
}

func TestEmit_RuntimeErrors(t *testing.T) {
	t.Parallel()

	t.Run("thrown error propagates", func(t *testing.T) {
		t.Parallel()
		assets := []*asset.Asset{
			{ID: 0, Filename: "/src/entry.js", Code: `require("./a.js"); trace.push("unreached");`, Mapping: map[string]int{"./a.js": 1}},
			{ID: 1, Filename: "/src/a.js", Code: `throw new Error("boom");`, Mapping: map[string]int{}},
		}
		out := emit(t, Options{CacheExports: true}, assets)

		vm := testutil.NewVM(t)
		err := testutil.RunBundle(vm, out)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Empty(t, testutil.Trace(t, vm))
	})

	t.Run("unknown specifier", func(t *testing.T) {
		t.Parallel()
		assets := []*asset.Asset{
			{ID: 0, Filename: "/src/entry.js", Code: `require("./nowhere.js");`, Mapping: map[string]int{}},
		}
		out := emit(t, Options{}, assets)

		err := testutil.RunBundle(testutil.NewVM(t), out)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot find module './nowhere.js'")
	})
}

func TestEmit_GlobalName(t *testing.T) {
	t.Parallel()
	assets := []*asset.Asset{
		{ID: 0, Filename: "/src/entry.js", Code: `exports.answer = require("./a.js").value;`, Mapping: map[string]int{"./a.js": 1}},
		{ID: 1, Filename: "/src/a.js", Code: `exports.value = 42;`, Mapping: map[string]int{}},
	}

	for _, minify := range []bool{false, true} {
		out := emit(t, Options{CacheExports: true, GlobalName: "Lib", Minify: minify}, assets)

		vm := testutil.NewVM(t)
		require.NoError(t, testutil.RunBundle(vm, out))
		assert.Equal(t, map[string]any{"answer": int64(42)}, testutil.Exports(t, vm, vm.Get("Lib")), "minify=%v", minify)
	}
}

func TestEmit_MinifyShrinks(t *testing.T) {
	t.Parallel()
	plain := emit(t, Options{CacheExports: true}, sharedDependency())
	small := emit(t, Options{CacheExports: true, Minify: true}, sharedDependency())

	assert.Less(t, len(small), len(plain))

	vm := testutil.NewVM(t)
	require.NoError(t, testutil.RunBundle(vm, small))
	assert.Equal(t, []string{"a", "b", "c"}, testutil.Trace(t, vm))
}

func TestNew_RejectsInvalidGlobalName(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"1abc", "a-b", "a.b", "x y", "class", "if", "var", "let", "await", "yield", "enum", "static", "null", "true", "false"} {
		_, err := New(Options{GlobalName: name})
		assert.Error(t, err, name)
	}
	for _, name := range []string{"$lib_2", "Class", "undefinedValue", "async", "of"} {
		_, err := New(Options{GlobalName: name})
		assert.NoError(t, err, name)
	}
}

func TestEmit_GlobalNameParses(t *testing.T) {
	t.Parallel()

	assets := []*asset.Asset{{ID: 0, Filename: "/src/entry.js", Code: `exports.ok = true;`, Mapping: map[string]int{}}}
	for _, name := range []string{"Bundle", "async", "of", "get"} {
		e, err := New(Options{CacheExports: true, GlobalName: name})
		require.NoError(t, err, name)
		out, err := e.Emit(context.Background(), assets)
		require.NoError(t, err, name)

		vm := testutil.NewVM(t)
		require.NoError(t, testutil.RunBundle(vm, out), name)
		assert.Equal(t, map[string]any{"ok": true}, testutil.Exports(t, vm, vm.Get(name)), name)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		assets  []*asset.Asset
		problem string
	}{
		{
			name:    "empty graph",
			assets:  nil,
			problem: "no entry module with id 0",
		},
		{
			name: "dangling mapping",
			assets: []*asset.Asset{
				{ID: 0, Filename: "/src/entry.js", Mapping: map[string]int{"./a.js": 5}},
			},
			problem: `maps "./a.js" to unknown id 5`,
		},
		{
			name: "duplicate id",
			assets: []*asset.Asset{
				{ID: 0, Filename: "/src/entry.js"},
				{ID: 0, Filename: "/src/other.js"},
			},
			problem: "id 0 used by both",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, err := New(Options{})
			require.NoError(t, err)
			out, err := e.Emit(context.Background(), tc.assets)

			require.Nil(t, out)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %v", err)
			assert.Contains(t, err.Error(), tc.problem)
		})
	}
}
