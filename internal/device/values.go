package device

import (
	"strconv"
	"strings"
)

// Tolerant readers for raw vendor payloads. The cloud is loose with
// types: numbers arrive as float64 after JSON decoding, occasionally as
// strings, and flags as 0/1 integers or booleans depending on firmware.

// asMap returns v as an object, or nil.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asSlice returns v as an array, or nil.
func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// asInt coerces numeric and numeric-string values; anything else is 0.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// asFloat coerces numeric and numeric-string values; ok is false when
// the value carries no number.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// asBool applies vendor truthiness: nil, zero and empty are false.
func asBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case string:
		return b != "" && b != "0"
	case map[string]any:
		return len(b) > 0
	case []any:
		return len(b) > 0
	}
	return true
}

// asString renders IDs and tags, formatting integral floats without the
// decimal point the JSON decoder would otherwise leak into topic names.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	}
	return ""
}
