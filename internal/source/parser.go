// Package source discovers and parses usage-metrics export files.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/theirongolddev/copilotpulse/internal/logger"
)

// concatenatedObjects detects a closing brace directly followed by an
// opening one, the signature of naively concatenated JSON documents.
var concatenatedObjects = regexp.MustCompile(`\}\s*\{`)

// ParseFile reads an export file and parses it with Parse.
// A read failure is reported in Err and yields no records.
func ParseFile(df DiscoveredFile, log *logger.Logger) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading %s: %w", df.Path, err)}
	}
	return Parse(data, logger.OrNop(log).With("file", df.Name))
}

// Parse converts raw export text into a sequence of untyped JSON records.
//
// Strategies are tried in order and the first that yields data wins:
//   - whole-document JSON: an array is returned element by element, a
//     single object becomes a one-element result
//   - concatenated top-level objects, split by brace depth
//   - newline-delimited JSON
//
// Malformed chunks and lines are dropped and counted. Input that matches
// no strategy returns an empty result with FormatUnknown, never an error.
func Parse(data []byte, log *logger.Logger) ParseResult {
	log = logger.OrNop(log)

	if recs, ok := parseDocument(data); ok {
		return ParseResult{Records: recs, Format: FormatJSON}
	}

	if concatenatedObjects.Match(data) {
		recs, bad := parseConcatenated(data, log)
		if len(recs) > 0 {
			return ParseResult{Records: recs, Format: FormatConcatenated, ParseErrors: bad}
		}
	}

	recs, bad := parseLines(data, log)
	if len(recs) > 0 {
		return ParseResult{Records: recs, Format: FormatNDJSON, ParseErrors: bad}
	}
	return ParseResult{Records: []json.RawMessage{}, ParseErrors: bad}
}

// parseDocument handles the whole-document case. Primitives and null are
// rejected so they fall through to the other strategies.
func parseDocument(data []byte) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, false
	}
	switch trimmed[0] {
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, false
		}
		if arr == nil {
			arr = []json.RawMessage{}
		}
		return arr, true
	case '{':
		return []json.RawMessage{bytes.Clone(trimmed)}, true
	}
	return nil, false
}

func parseConcatenated(data []byte, log *logger.Logger) ([]json.RawMessage, int) {
	var (
		recs []json.RawMessage
		bad  int
	)
	for _, chunk := range splitTopLevelObjects(data) {
		var raw json.RawMessage
		if err := json.Unmarshal(chunk.body, &raw); err != nil {
			bad++
			log.Debug("skipping malformed object", "offset", chunk.offset, "error", err)
			continue
		}
		recs = append(recs, raw)
	}
	return recs, bad
}

func parseLines(data []byte, log *logger.Logger) ([]json.RawMessage, int) {
	var (
		recs []json.RawMessage
		bad  int
	)
	for i, line := range bytes.Split(data, []byte("\n")) {
		// TrimSpace also strips the \r of CRLF endings.
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var raw json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			bad++
			log.Debug("skipping malformed line", "line", i+1, "error", err)
			continue
		}
		recs = append(recs, raw)
	}
	return recs, bad
}

type objectSpan struct {
	offset int
	body   []byte
}

// splitTopLevelObjects returns every balanced {...} span that starts at
// brace depth zero. Braces inside string literals are ignored. Text between
// spans and an unterminated trailing object are discarded.
func splitTopLevelObjects(data []byte) []objectSpan {
	var (
		spans []objectSpan
		depth int
		start int
	)
	for i := 0; i < len(data); {
		switch data[i] {
		case '"':
			if depth > 0 {
				i = skipJSONString(data, i)
				continue
			}
			i++
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
			i++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					spans = append(spans, objectSpan{offset: start, body: data[start : i+1]})
				}
			}
			i++
		default:
			i++
		}
	}
	return spans
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(data []byte, i int) int {
	i++ // skip opening quote
	for i < len(data) {
		switch data[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}
