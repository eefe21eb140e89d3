// Package attrs reads values back out of slog-style key/value attribute slices.
package attrs

import "fmt"

// ExtractString extracts a value from a key-value attribute slice formatted as
// [key1, value1, key2, value2, ...]. Strings are returned as-is and fmt.Stringer values
// (typed ids) are rendered; anything else yields "".
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}
