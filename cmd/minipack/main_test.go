package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/minipack/internal/cli"
	"github.com/specialistvlad/minipack/internal/graph"
	"github.com/specialistvlad/minipack/internal/testutil"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_BuildsBundle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := testutil.WriteTree(t, map[string]string{
		"src/entry.js": `import { word } from './word.js'; trace.push(word);`,
		"src/word.js":  `export const word = 'bundled';`,
	})
	output := filepath.Join(root, "out/bundle.js")
	args := []string{"-env-file=", "-log-format=json", filepath.Join(root, "src/entry.js"), output}
	logs := &bytes.Buffer{}

	// --- Act ---
	err := run(&bytes.Buffer{}, logs, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, logs.String(), `"msg":"Bundle written."`)

	code, err := os.ReadFile(output)
	require.NoError(t, err)
	vm := testutil.NewVM(t)
	require.NoError(t, testutil.RunBundle(vm, code))
	require.Equal(t, []string{"bundled"}, testutil.Trace(t, vm))
}

func TestRun_BuildError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := testutil.WriteTree(t, map[string]string{
		"src/entry.js": `import './missing.js';`,
	})
	output := filepath.Join(root, "out/bundle.js")
	args := []string{"-env-file=", "-o", output, filepath.Join(root, "src/entry.js")}

	// --- Act ---
	err := run(&bytes.Buffer{}, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, err)
	var resErr *graph.ResolutionError
	require.ErrorAs(t, err, &resErr)
	var exitErr *cli.ExitError
	require.False(t, errors.As(err, &exitErr), "build failures are not usage errors")
	testutil.AssertNoFile(t, output)
}
