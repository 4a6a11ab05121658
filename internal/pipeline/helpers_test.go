package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/source"
)

func rec(day, user string, gens, accs int64) model.Record {
	return model.Record{Day: day, UserLogin: user, CodeGenerations: gens, CodeAcceptances: accs}
}

// decode builds records from JSON object literals, as the parser would.
func decode(t *testing.T, objs ...string) []model.Record {
	t.Helper()
	recs := make([]model.Record, 0, len(objs))
	for _, o := range objs {
		if !json.Valid([]byte(o)) {
			t.Fatalf("invalid fixture %s", o)
		}
		recs = append(recs, model.DecodeRecord(json.RawMessage(o)))
	}
	return recs
}

// writeExport creates a temp export file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, dir, name, content string) source.DiscoveredFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return source.DiscoveredFile{Path: path, Name: name}
}
