package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/source"
	"github.com/theirongolddev/copilotpulse/internal/store"
)

func TestLoad_TwoFileMerge(t *testing.T) {
	dir := t.TempDir()
	a := writeExport(t, dir, "a.json", `[{"date":"2024-01-01","user":"alice","code_generation_activity_count":5}]`)
	b := writeExport(t, dir, "b.ndjson", `{"date":"2024-01-01","user":"alice","code_generation_activity_count":9}`+"\n")

	res := Load(context.Background(), []source.DiscoveredFile{a, b}, LoadOptions{})
	require.Equal(t, 1, res.Dataset.Len())
	assert.Equal(t, int64(9), res.Dataset.Records()[0].CodeGenerations)
	assert.Equal(t, 2, res.ParsedFiles)
	assert.Equal(t, source.FormatJSON, res.Files[0].Format)
}

func TestLoad_FailedFileContributesNothing(t *testing.T) {
	dir := t.TempDir()
	good := writeExport(t, dir, "good.json", `{"day":"2025-01-01","user_login":"a"}{"day":"2025-01-02","user_login":"a"}`)
	missing := source.DiscoveredFile{Path: filepath.Join(dir, "missing.json"), Name: "missing.json"}
	empty := writeExport(t, dir, "empty.json", "")

	var (
		mu    sync.Mutex
		calls []int
	)
	res := Load(context.Background(), []source.DiscoveredFile{missing, good, empty}, LoadOptions{
		Workers: 2,
		Progress: func(current, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, current)
			assert.Equal(t, 3, total)
		},
	})

	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 1, res.FileErrors)
	assert.Equal(t, 2, res.ParsedFiles)
	assert.Equal(t, 1, res.EmptyFiles)
	assert.Equal(t, 2, res.Dataset.Len())
	require.Error(t, res.Files[0].Err)
	assert.Empty(t, res.Files[0].Records)
	assert.ElementsMatch(t, []int{1, 2, 3}, calls)
}

func TestLoad_SuppliedOrderDecidesWinner(t *testing.T) {
	dir := t.TempDir()
	var files []source.DiscoveredFile
	// Many files for the same key: the last supplied wins regardless of
	// which worker finishes first.
	for i := range 20 {
		files = append(files, writeExport(t, dir, fmt.Sprintf("part-%02d.json", i),
			fmt.Sprintf(`{"day":"2025-01-01","user_login":"x","code_generation_activity_count":%d}`, i)))
	}
	res := Load(context.Background(), files, LoadOptions{Workers: 8})
	require.Equal(t, 1, res.Dataset.Len())
	assert.Equal(t, int64(19), res.Dataset.Records()[0].CodeGenerations)
}

func TestLoad_NoFiles(t *testing.T) {
	res := Load(context.Background(), nil, LoadOptions{})
	assert.Zero(t, res.TotalFiles)
	assert.Zero(t, res.Dataset.Len())
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	f := writeExport(t, dir, "a.json", `[{"day":"2025-01-01","user_login":"a"}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Load(ctx, []source.DiscoveredFile{f}, LoadOptions{})
	assert.Equal(t, 1, res.FileErrors)
	assert.Zero(t, res.Dataset.Len())
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	f := writeExport(t, dir, "a.json", `[{"day":"2025-01-01","user_login":"a","code_generation_activity_count":3},{"day":"2025-01-02","user_login":"b"}]`)

	first, err := LoadWithCache(context.Background(), []source.DiscoveredFile{f}, cache, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Reparsed)
	assert.Zero(t, first.CacheHits)

	second, err := LoadWithCache(context.Background(), []source.DiscoveredFile{f}, cache, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.CacheHits)
	assert.Equal(t, source.FormatJSON, second.Files[0].Format)
	assert.Equal(t, first.Dataset.Records(), second.Dataset.Records())
}

func TestLoadWithCache_EvictsDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	a := writeExport(t, dir, "a.json", `[{"day":"2025-01-01","user_login":"a"}]`)
	b := writeExport(t, dir, "b.json", `[{"day":"2025-01-02","user_login":"b"},{"day":"2025-01-03","user_login":"b"}]`)

	_, err = LoadWithCache(context.Background(), []source.DiscoveredFile{a, b}, cache, LoadOptions{})
	require.NoError(t, err)
	files, err := cache.FileCount()
	require.NoError(t, err)
	require.Equal(t, 2, files)

	require.NoError(t, os.Remove(b.Path))
	res, err := LoadWithCache(context.Background(), []source.DiscoveredFile{a}, cache, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CacheHits)

	files, err = cache.FileCount()
	require.NoError(t, err)
	assert.Equal(t, 1, files)
	recs, err := cache.RecordCount()
	require.NoError(t, err)
	assert.Equal(t, 1, recs)
}

func TestLoadWithCache_KeepsFilesOutsideThisLoad(t *testing.T) {
	dir := t.TempDir()
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	a := writeExport(t, dir, "a.json", `[{"day":"2025-01-01","user_login":"a"}]`)
	b := writeExport(t, dir, "b.json", `[{"day":"2025-01-02","user_login":"b"}]`)

	_, err = LoadWithCache(context.Background(), []source.DiscoveredFile{a, b}, cache, LoadOptions{})
	require.NoError(t, err)
	_, err = LoadWithCache(context.Background(), []source.DiscoveredFile{a}, cache, LoadOptions{})
	require.NoError(t, err)

	files, err := cache.FileCount()
	require.NoError(t, err)
	assert.Equal(t, 2, files)
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a.json", `[{"day":"2025-01-01","user_login":"alice"}]`)
	writeExport(t, dir, "b.ndjson", `{"day":"2025-01-02","user_login":"bob"}`+"\n")
	cachePath := filepath.Join(t.TempDir(), "records.db")

	res, err := LoadPaths(context.Background(), []string{dir}, cachePath, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dataset.Len())
	assert.Equal(t, 2, res.Reparsed)

	res, err = LoadPaths(context.Background(), []string{dir}, cachePath, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.CacheHits)
	assert.Equal(t, 2, res.Dataset.Len())

	_, err = LoadPaths(context.Background(), nil, "", LoadOptions{})
	assert.ErrorIs(t, err, ErrNoInputs)
}
