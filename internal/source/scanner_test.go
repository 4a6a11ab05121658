package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_OrderAndExpansion(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(filepath.Join(sub, "nested"), 0o755))
	for _, name := range []string{"b.json", "a.ndjson", "notes.txt", "nested/c.jsonl"} {
		require.NoError(t, os.WriteFile(filepath.Join(sub, name), []byte("[]"), 0o600))
	}
	single := filepath.Join(dir, "z.json")
	require.NoError(t, os.WriteFile(single, []byte("[]"), 0o600))
	missing := filepath.Join(dir, "missing.json")

	files, err := Discover([]string{single, sub, missing})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"z.json", "a.ndjson", "b.json", "c.jsonl", "missing.json"}, names)
	assert.Positive(t, files[0].Size)
	assert.Zero(t, files[4].Size)
}

func TestIsDataFile(t *testing.T) {
	assert.True(t, IsDataFile("x.JSON"))
	assert.True(t, IsDataFile("x.jsonl"))
	assert.False(t, IsDataFile("x.csv"))
}
