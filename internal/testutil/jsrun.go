package testutil

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	testifyrequire "github.com/stretchr/testify/require"

	"github.com/specialistvlad/minipack/internal/translate"
)

// NewVM returns a JavaScript runtime with an empty global "trace" array
// that test modules can push to.
func NewVM(t *testing.T) *goja.Runtime {
	t.Helper()
	vm := goja.New()
	_, err := vm.RunString(`var trace = [];`)
	testifyrequire.NoError(t, err)
	return vm
}

// RunBundle executes a bundle in vm and returns any error the script threw.
func RunBundle(vm *goja.Runtime, code []byte) error {
	_, err := vm.RunScript("bundle.js", string(code))
	return err
}

// Exports reads every enumerable property of an exports object, invoking
// getters, so values compare with testify's Equal.
func Exports(t *testing.T, vm *goja.Runtime, v goja.Value) map[string]any {
	t.Helper()
	testifyrequire.False(t, goja.IsUndefined(v) || goja.IsNull(v), "exports value is %v", v)
	obj := v.ToObject(vm)
	out := make(map[string]any)
	for _, k := range obj.Keys() {
		out[k] = obj.Get(k).Export()
	}
	return out
}

// Trace returns the global trace array as strings.
func Trace(t *testing.T, vm *goja.Runtime) []string {
	t.Helper()
	var out []string
	testifyrequire.NoError(t, vm.ExportTo(vm.Get("trace"), &out))
	return out
}

// ReferenceRequire loads the unbundled module at entry through goja_nodejs'
// CommonJS loader, translating every file with tr on the way. It is the
// baseline bundles are compared against.
func ReferenceRequire(t *testing.T, vm *goja.Runtime, tr translate.Translator, entry string) goja.Value {
	t.Helper()
	loader := func(path string) ([]byte, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, require.ModuleFileDoesNotExistError
			}
			return nil, err
		}
		unit, err := tr.Translate(context.Background(), path, src)
		if err != nil {
			return nil, err
		}
		return []byte(unit.Code), nil
	}

	registry := require.NewRegistry(require.WithLoader(loader))
	req := registry.Enable(vm)
	v, err := req.Require(entry)
	testifyrequire.NoError(t, err)
	return v
}
