package source

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeExport creates a temp export file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, name, content string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: name}
}

// keys extracts "day/user_login" from each parsed record.
func keys(t *testing.T, recs []json.RawMessage) []string {
	t.Helper()
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		var v struct {
			Day  string `json:"day"`
			User string `json:"user_login"`
		}
		require.NoError(t, json.Unmarshal(r, &v))
		out = append(out, v.Day+"/"+v.User)
	}
	return out
}

var sampleRecords = []string{
	`{"day":"2025-03-01","user_login":"alice","code_generation_activity_count":4}`,
	`{"day":"2025-03-01","user_login":"bob","code_generation_activity_count":2}`,
	`{"day":"2025-03-02","user_login":"alice","code_generation_activity_count":7}`,
}

func TestParse_Array(t *testing.T) {
	doc := "[" + strings.Join(sampleRecords, ",") + "]"
	res := Parse([]byte(doc), nil)

	assert.Equal(t, FormatJSON, res.Format)
	assert.Equal(t, []string{"2025-03-01/alice", "2025-03-01/bob", "2025-03-02/alice"}, keys(t, res.Records))
	assert.Zero(t, res.ParseErrors)
}

func TestParse_SingleObject(t *testing.T) {
	res := Parse([]byte("  "+sampleRecords[0]+"\n"), nil)

	assert.Equal(t, FormatJSON, res.Format)
	assert.Equal(t, []string{"2025-03-01/alice"}, keys(t, res.Records))
}

func TestParse_HeterogeneousArrayPassesThrough(t *testing.T) {
	res := Parse([]byte(`[1, "x", null, {"day":"2025-01-01"}]`), nil)

	require.Len(t, res.Records, 4)
	assert.Equal(t, "1", string(res.Records[0]))
	assert.Equal(t, `"x"`, string(res.Records[1]))
	assert.Equal(t, "null", string(res.Records[2]))
}

func TestParse_Concatenated(t *testing.T) {
	doc := strings.Join(sampleRecords, "\n  ")
	res := Parse([]byte(doc), nil)

	assert.Equal(t, FormatConcatenated, res.Format)
	assert.Equal(t, []string{"2025-03-01/alice", "2025-03-01/bob", "2025-03-02/alice"}, keys(t, res.Records))
}

func TestParse_ConcatenatedNoWhitespace(t *testing.T) {
	res := Parse([]byte(strings.Join(sampleRecords, "")), nil)

	assert.Equal(t, FormatConcatenated, res.Format)
	assert.Len(t, res.Records, 3)
}

func TestParse_ConcatenatedMalformedChunkDropped(t *testing.T) {
	doc := sampleRecords[0] + `{"day": oops}` + sampleRecords[2]
	res := Parse([]byte(doc), nil)

	assert.Equal(t, FormatConcatenated, res.Format)
	assert.Equal(t, []string{"2025-03-01/alice", "2025-03-02/alice"}, keys(t, res.Records))
	assert.Equal(t, 1, res.ParseErrors)
}

func TestParse_ConcatenatedBracesInStrings(t *testing.T) {
	doc := `{"day":"2025-03-01","user_login":"a}{b"}{"day":"2025-03-02","user_login":"c"}`
	res := Parse([]byte(doc), nil)

	assert.Equal(t, FormatConcatenated, res.Format)
	assert.Equal(t, []string{"2025-03-01/a}{b", "2025-03-02/c"}, keys(t, res.Records))
}

func TestParse_NDJSON(t *testing.T) {
	doc := sampleRecords[0] + "\r\n\r\n" + sampleRecords[1] + "\n   \n" + sampleRecords[2] + "\n"
	res := Parse([]byte(doc), nil)

	// Three objects on separate lines also match the concatenation
	// pattern, and that strategy wins because it runs first.
	assert.Equal(t, FormatConcatenated, res.Format)
	assert.Len(t, res.Records, 3)
}

func TestParse_NDJSONWithPrimitivesAndBadLines(t *testing.T) {
	doc := "not json\n" + sampleRecords[0] + "\n[1,2\n42\n"
	res := Parse([]byte(doc), nil)

	assert.Equal(t, FormatNDJSON, res.Format)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "42", string(res.Records[1]))
	assert.Equal(t, 2, res.ParseErrors)
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\t", "\r\n\r\n"} {
		res := Parse([]byte(in), nil)
		assert.Equal(t, FormatUnknown, res.Format, "input %q", in)
		assert.NotNil(t, res.Records, "input %q", in)
		assert.Empty(t, res.Records, "input %q", in)
	}
}

func TestParse_PrimitiveDocument(t *testing.T) {
	// A bare primitive is not a record document, but it is still a valid
	// NDJSON line and passes through like any other element.
	res := Parse([]byte("42"), nil)
	assert.Equal(t, FormatNDJSON, res.Format)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "42", string(res.Records[0]))
}

func TestParse_EmptyArray(t *testing.T) {
	res := Parse([]byte("[]"), nil)
	assert.Equal(t, FormatJSON, res.Format)
	assert.Empty(t, res.Records)
}

func TestParse_FormatEquivalence(t *testing.T) {
	array := "[" + strings.Join(sampleRecords, ",") + "]"
	concat := strings.Join(sampleRecords, "")
	lines := strings.Join(sampleRecords, "\n")

	want := keys(t, Parse([]byte(array), nil).Records)
	assert.ElementsMatch(t, want, keys(t, Parse([]byte(concat), nil).Records))
	assert.ElementsMatch(t, want, keys(t, Parse([]byte(lines), nil).Records))
}

func TestParse_RoundTrip(t *testing.T) {
	in := []map[string]any{
		{"day": "2025-01-01", "user_login": "a", "used_chat": true},
		{"day": "2025-01-02", "user_login": "b", "loc_added_sum": 12.0},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	res := Parse(data, nil)
	require.Len(t, res.Records, len(in))
	for i, raw := range res.Records {
		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, in[i], got)
	}
}

func TestParseFile(t *testing.T) {
	df := writeExport(t, "export.json", "["+sampleRecords[0]+"]")
	res := ParseFile(df, nil)

	require.NoError(t, res.Err)
	assert.Len(t, res.Records, 1)
}

func TestParseFile_Missing(t *testing.T) {
	res := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.json"), Name: "nope.json"}, nil)

	require.Error(t, res.Err)
	assert.Empty(t, res.Records)
}

func TestSplitTopLevelObjects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two", `{"a":1}{"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{"nested", `{"a":{"b":{}}} {"c":[{}]}`, []string{`{"a":{"b":{}}}`, `{"c":[{}]}`}},
		{"junk between", `{"a":1} , garbage {"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{"stray close", `}{"a":1}`, []string{`{"a":1}`}},
		{"unterminated tail", `{"a":1}{"b":`, []string{`{"a":1}`}},
		{"escaped quote", `{"a":"x\"}"}{"b":2}`, []string{`{"a":"x\"}"}`, `{"b":2}`}},
		{"empty", ``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range splitTopLevelObjects([]byte(tt.in)) {
				got = append(got, string(s.body))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("splitTopLevelObjects(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func FuzzSplitTopLevelObjects(f *testing.F) {
	f.Add([]byte(`{"a":1}{"b":2}`))
	f.Add([]byte(`{"a":"}{"}`))
	f.Add([]byte(`{"a":"\`))
	f.Add([]byte(`}}}{{{`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, s := range splitTopLevelObjects(data) {
			if len(s.body) < 2 || s.body[0] != '{' || s.body[len(s.body)-1] != '}' {
				t.Fatalf("span %q is not brace-delimited", s.body)
			}
			if !bytes.Equal(data[s.offset:s.offset+len(s.body)], s.body) {
				t.Fatalf("span offset %d does not match body", s.offset)
			}
		}
		// Parse must never panic on arbitrary input.
		_ = Parse(data, nil)
	})
}
