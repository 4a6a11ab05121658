package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

func TestWriteMerged_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.json")
	recs := []model.Record{
		model.DecodeRecord(json.RawMessage(`{"day":"2024-01-01","user_login":"alice"}`)),
	}

	require.NoError(t, writeMerged(path, recs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0]["user_login"])
}

func TestWriteMerged_EmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.json")
	require.NoError(t, writeMerged(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestWriteMerged_UnwritablePath(t *testing.T) {
	err := writeMerged(t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating")
}
