package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Export files come from several tools and are not strictly typed. The
// types below never fail to unmarshal: anything they cannot interpret
// becomes the zero value, so one odd field cannot discard a whole record.

// Count is a tolerant integer. JSON numbers are truncated and numeric
// strings are parsed; any other value is 0.
type Count int64

func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count(parseCount(b))
	return nil
}

func parseCount(raw []byte) int64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return int64(v)
		}
	}
	return 0
}

// Flag is a tolerant boolean using truthiness: true, non-zero numbers,
// non-empty strings, objects and arrays are set; false, 0, "", null are not.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = Flag(truthy(b))
	return nil
}

func truthy(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f', 'n':
		return false
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	case '{', '[':
		return true
	}
	var n float64
	return json.Unmarshal(raw, &n) == nil && n != 0
}

// Text is a tolerant string. Numbers keep their literal spelling; other
// non-string values are empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	switch {
	case json.Unmarshal(b, &s) == nil:
		*t = Text(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*t = Text(b)
	default:
		*t = ""
	}
	return nil
}

// List is a tolerant array. A non-array value is an empty list and an
// element that does not decode as T becomes T's zero value.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		*l = nil
		return nil
	}
	out := make(List[T], 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			var zero T
			v = zero
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// firstText returns the first non-empty value, like a chain of || fallbacks.
func firstText(vals ...Text) string {
	for _, v := range vals {
		if v != "" {
			return string(v)
		}
	}
	return ""
}
