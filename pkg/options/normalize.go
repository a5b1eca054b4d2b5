package options

import (
	"fmt"
	"strings"
)

// Normalize coerces a reply into a trimmed, de-duplicated list of strings.
// A single string becomes a one-element list. Unsupported values yield nil.
func Normalize(v any) []string {
	var raw []string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		raw = []string{val}
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			switch x := item.(type) {
			case nil:
			case string:
				raw = append(raw, x)
			case fmt.Stringer:
				raw = append(raw, x.String())
			case bool, int, int64, float64:
				raw = append(raw, fmt.Sprint(x))
			}
		}
	case int, int64, float64:
		raw = []string{fmt.Sprint(val)}
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
