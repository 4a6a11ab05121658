package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_SaveAndLoad(t *testing.T) {
	c := openTestCache(t)

	f := CachedFile{
		Path:        "/data/a.json",
		MtimeNs:     100,
		SizeBytes:   42,
		Format:      "json",
		ParseErrors: 1,
		Records: []json.RawMessage{
			json.RawMessage(`{"day":"2025-01-01"}`),
			json.RawMessage(`{"day":"2025-01-02"}`),
		},
	}
	require.NoError(t, c.SaveFile(f))

	tracked, err := c.GetTrackedFiles()
	require.NoError(t, err)
	assert.Equal(t, FileInfo{MtimeNs: 100, SizeBytes: 42, Format: "json", ParseErrors: 1, RecordCount: 2}, tracked["/data/a.json"])

	recs, err := c.LoadRecords("/data/a.json")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.JSONEq(t, `{"day":"2025-01-02"}`, string(recs[1]))
}

func TestCache_SaveReplaces(t *testing.T) {
	c := openTestCache(t)

	first := CachedFile{Path: "p", MtimeNs: 1, SizeBytes: 1, Format: "ndjson", Records: []json.RawMessage{[]byte(`1`), []byte(`2`), []byte(`3`)}}
	require.NoError(t, c.SaveFile(first))
	second := CachedFile{Path: "p", MtimeNs: 2, SizeBytes: 2, Format: "json", Records: []json.RawMessage{[]byte(`{}`)}}
	require.NoError(t, c.SaveFile(second))

	recs, err := c.LoadRecords("p")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	n, err := c.RecordCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_DeleteFile(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.SaveFile(CachedFile{Path: "p", Format: "json", Records: []json.RawMessage{[]byte(`{}`)}}))
	require.NoError(t, c.DeleteFile("p"))

	files, err := c.FileCount()
	require.NoError(t, err)
	assert.Zero(t, files)
	recs, err := c.RecordCount()
	require.NoError(t, err)
	assert.Zero(t, recs)
}

func TestCache_LoadUnknownPath(t *testing.T) {
	c := openTestCache(t)
	recs, err := c.LoadRecords("never-saved")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
