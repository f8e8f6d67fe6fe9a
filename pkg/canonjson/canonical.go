// Package canonjson produces the unique canonical byte form of structured
// values used as the hashing and signing substrate for the HFP pipeline.
package canonjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Bytes encodes v into its canonical byte form: sorted object keys, no
// whitespace, minimal separators, finite numbers only, valid UTF-8 strings
// only. v must be built from nil, bool, int/int64, float64, string,
// []any, and map[string]any.
func Bytes(v any) ([]byte, error) {
	var buf []byte
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeForSigning canonicalizes v after removing excludeKeys from its
// top-level map representation. v must be a map[string]any (or produce one
// via the same appendValue rules); this is used to compute signing bytes
// before a "signing" member is attached.
func EncodeForSigning(v map[string]any, excludeKeys ...string) ([]byte, error) {
	cp := make(map[string]any, len(v))
	for k, val := range v {
		cp[k] = val
	}
	for _, k := range excludeKeys {
		delete(cp, k)
	}
	return Bytes(cp)
}

// Decode parses canonical bytes back into the generic value tree (nil,
// bool, int64, float64, string, []any, map[string]any) for round-trip
// tests. Canonical bytes are always valid JSON text; json.Number is used
// so a literal with no '.' or exponent round-trips back to int64 instead
// of being promoted to float64 and gaining a synthetic ".0" on re-encode.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonjson: decode: %w", err)
	}
	return demoteNumbers(v), nil
}

func demoteNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		s := string(x)
		isInt := true
		for _, c := range s {
			if c == '.' || c == 'e' || c == 'E' {
				isInt = false
				break
			}
		}
		if isInt {
			if i, err := x.Int64(); err == nil {
				return i
			}
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = demoteNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = demoteNumbers(val)
		}
		return out
	default:
		return v
	}
}

func appendValue(buf []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if x {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case int:
		return strconv.AppendInt(buf, int64(x), 10), nil
	case int64:
		return strconv.AppendInt(buf, x, 10), nil
	case uint64:
		return strconv.AppendUint(buf, x, 10), nil
	case float64:
		return appendFloat(buf, x)
	case string:
		return appendString(buf, x)
	case []any:
		return appendArray(buf, x)
	case []float64:
		arr := make([]any, len(x))
		for i, f := range x {
			arr[i] = f
		}
		return appendArray(buf, arr)
	case []string:
		arr := make([]any, len(x))
		for i, s := range x {
			arr[i] = s
		}
		return appendArray(buf, arr)
	case map[string]any:
		return appendObject(buf, x)
	default:
		return nil, fmt.Errorf("canonjson: unsupported type %T", v)
	}
}

func appendArray(buf []byte, arr []any) ([]byte, error) {
	buf = append(buf, '[')
	for i, elem := range arr {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendValue(buf, elem)
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, ']')
	return buf, nil
}

func appendObject(buf []byte, obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendString(buf, k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ':')
		buf, err = appendValue(buf, obj[k])
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, '}')
	return buf, nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("canonjson: string is not valid UTF-8")
	}
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(buf, fmt.Sprintf(`\u%04x`, r)...)
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
	}
	buf = append(buf, '"')
	return buf, nil
}

// appendFloat formats a finite float64 the way CPython's json.dumps does:
// the shortest decimal string that round-trips, no trailing zeros beyond
// what round-tripping requires. Values with 1e-4 <= |f| < 1e16 (and zero)
// use plain decimal notation with a mandatory fractional digit
// ("1000000.0"); all others use a lowercase 'e' exponent with an explicit
// sign and at least two exponent digits ("1e+20", "1.5e-05").
func appendFloat(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("canonjson: non-finite float %v", f)
	}
	abs := math.Abs(f)
	var mode byte = 'f'
	if f != 0 && (abs < 1e-4 || abs >= 1e16) {
		mode = 'e'
	}
	s := strconv.FormatFloat(f, mode, -1, 64)
	s = normalizeFloatString(s)
	return append(buf, s...), nil
}

// normalizeFloatString adjusts Go's shortest-round-trip output to match
// Python repr()/json.dumps formatting: "1" -> "1.0", "1e+20" -> "1e+20"
// stays (Python keeps the '+'), "1e-05" stays two-digit exponent only when
// Go already produced it; Go's 'e' format already matches Python closely,
// the one gap is that Go's 'f' mode omits the decimal point for integral
// values (e.g. "1" instead of "1.0").
func normalizeFloatString(s string) string {
	hasDot := false
	hasExp := false
	for _, c := range s {
		switch c {
		case '.':
			hasDot = true
		case 'e', 'E':
			hasExp = true
		}
	}
	if !hasDot && !hasExp {
		return s + ".0"
	}
	if hasExp && !hasDot {
		// Exponent form without a dot is left as-is: Python also writes
		// "1e+20", with no ".0" before the exponent marker.
		return s
	}
	return s
}
