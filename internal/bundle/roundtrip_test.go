package bundle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/minipack/internal/asset"
	"github.com/specialistvlad/minipack/internal/fsys"
	"github.com/specialistvlad/minipack/internal/graph"
	"github.com/specialistvlad/minipack/internal/testutil"
	"github.com/specialistvlad/minipack/internal/translate"
)

var roundTripSources = map[string]string{
	"src/entry.js": `
import message from './message.js';
import { double, NAME } from './lib/math.js';
export * from './lib/consts.js';
export const greeting = message;
export const four = double(2);
export const name = NAME;
`,
	"src/message.js": `
import { name } from './name.js';
export default 'hello ' + name;
`,
	"src/name.js":       `export const name = 'world';`,
	"src/lib/math.js":   `export const NAME = 'math'; export function double(x) { return x * 2; }`,
	"src/lib/consts.js": `export const PI = 3; export const E = 2;`,
	"src/lib/unused.js": `throw new Error('never imported');`,
}

func TestRoundTrip_MatchesReferenceLoader(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, roundTripSources)
	entry := filepath.Join(root, "src/entry.js")

	tr, err := translate.NewESModule(translate.Options{CacheSize: 32})
	require.NoError(t, err)
	osfs := fsys.New()

	for _, dedupe := range []bool{true, false} {
		for _, cache := range []bool{true, false} {
			b := graph.New(asset.NewExtractor(osfs, tr), osfs, graph.Options{Dedupe: dedupe, Workers: 2})
			assets, err := b.Build(context.Background(), entry)
			require.NoError(t, err)

			e, err := New(Options{CacheExports: cache, GlobalName: "Bundle"})
			require.NoError(t, err)
			out, err := e.Emit(context.Background(), assets)
			require.NoError(t, err)

			bundleVM := testutil.NewVM(t)
			require.NoError(t, testutil.RunBundle(bundleVM, out))
			got := testutil.Exports(t, bundleVM, bundleVM.Get("Bundle"))

			refVM := testutil.NewVM(t)
			want := testutil.Exports(t, refVM, testutil.ReferenceRequire(t, refVM, tr, entry))

			assert.Equal(t, want, got, "dedupe=%v cache=%v", dedupe, cache)
			assert.Equal(t, map[string]any{
				"greeting": "hello world",
				"four":     int64(4),
				"name":     "math",
				"PI":       int64(3),
				"E":        int64(2),
			}, got)
		}
	}
}
