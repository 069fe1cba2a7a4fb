// Package canonical provides deterministic JSON encoding for hashing.
//
// Two semantically equal values always serialize to identical bytes:
// object keys are sorted lexicographically at every nesting level, element
// and key separators are exactly "," and ":", output is UTF-8 with no
// insignificant whitespace. This is the substrate for mu_key and
// content_hash; the byte layout is part of the compatibility contract
// (see contracts/hashing.md) and must never change under an existing
// schema version.
package canonical

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// EncodingError reports a value that has no canonical JSON form.
type EncodingError struct {
	Msg string
}

func (e *EncodingError) Error() string {
	return "canonical: " + e.Msg
}

// Marshal serializes a JSON-compatible value (nil, bool, string, integer,
// float, []any, map[string]any) into canonical bytes. Any other type is a
// caller error and fails with *EncodingError.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encodeString(buf, x)
	case int:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
	case float32:
		return encodeFloat(buf, float64(x))
	case float64:
		return encodeFloat(buf, x)
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, e)
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encode(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return &EncodingError{Msg: fmt.Sprintf("unsupported type %T", v)}
	}
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &EncodingError{Msg: fmt.Sprintf("non-finite number %v", f)}
	}
	// Whole floats render as integers so YAML round-trips hash identically.
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// encodeString writes a JSON string: quote, backslash and control characters
// escaped, everything else passed through as UTF-8.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				// Invalid UTF-8 surfaces as utf8.RuneError here, which keeps
				// output valid UTF-8 and deterministic for the same input.
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
