package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchTargets(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "2025")
	require.NoError(t, os.Mkdir(sub, 0o755))
	missing := filepath.Join(t.TempDir(), "later.json")

	files, dirs := watchTargets([]string{root, missing})
	assert.Equal(t, map[string]bool{missing: true}, files)
	assert.True(t, dirs[root])
	assert.True(t, dirs[sub])
}

func TestWatcherRelevant(t *testing.T) {
	w := &Watcher{
		files: map[string]bool{"/x/pinned.txt": true},
		dirs:  map[string]bool{"/data": true},
	}
	assert.True(t, w.relevant("/x/pinned.txt"))
	assert.False(t, w.relevant("/x/other.json"), "sibling of an explicit file")
	assert.True(t, w.relevant("/data/export.ndjson"))
	assert.False(t, w.relevant("/data/notes.md"))
}

func TestWatcherChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher([]string{dir}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := w.Changes(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.json"), []byte("[]"), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
