package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"go-jobscout-crawler/internal/source"
)

// Typed coerce-or-default accessors over raw source payloads. A missing key
// or mismatched type yields the zero value, never an error: one bad field
// must not sink the record.

func Str(raw source.RawRecord, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; identity fields are often numeric.
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func Int(raw source.RawRecord, key string) int {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func Float(raw source.RawRecord, key string) float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func Bool(raw source.RawRecord, key string) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

// JoinList renders a list-valued field as a single comma-separated string.
// A scalar value is passed through; empty items are dropped.
func JoinList(raw source.RawRecord, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	items, ok := v.([]any)
	if !ok {
		return Str(raw, key)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", item))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
