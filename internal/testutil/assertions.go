package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertNoFile fails the test if path exists.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s not to exist, stat error: %v", path, err)
}

// AssertNoTempFiles fails the test if dir holds leftovers of an atomic write.
func AssertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	for _, e := range entries {
		require.NotRegexp(t, `^\..*\.tmp$`, e.Name(), "temporary file left behind in %s", dir)
	}
}
