package source

import (
	"encoding/json"
	"time"
)

// Format identifies which detection strategy produced a parse result.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON           // whole-document array or single object
	FormatConcatenated   // {...}{...} with no separator
	FormatNDJSON         // one JSON value per line
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatConcatenated:
		return "concatenated"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "unknown"
	}
}

// ParseFormat is the inverse of Format.String. Unrecognized names map to FormatUnknown.
func ParseFormat(s string) Format {
	switch s {
	case "json":
		return FormatJSON
	case "concatenated":
		return FormatConcatenated
	case "ndjson":
		return FormatNDJSON
	default:
		return FormatUnknown
	}
}

// ParseResult holds the output of parsing one input document.
type ParseResult struct {
	Records     []json.RawMessage
	Format      Format
	ParseErrors int // chunks or lines that were dropped
	Err         error
}

// DiscoveredFile is an input file found on the command line or in a directory.
// ModTime and Size are zero when the file could not be stat'ed.
type DiscoveredFile struct {
	Path    string
	Name    string
	ModTime time.Time
	Size    int64
}
