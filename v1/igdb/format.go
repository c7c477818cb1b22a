package igdb

import (
	"strconv"
	"strings"
	"time"
)

var stripQuotes = strings.NewReplacer(`"`, "", `\`, "")

// formatValue renders a literal. Strings are quoted after removing quote and
// backslash characters, booleans become 1/0 and dates unix seconds.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return `"` + stripQuotes.Replace(x) + `"`
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return strconv.FormatInt(x.Unix(), 10)
	case nil:
		return "null"
	default:
		return `"` + stripQuotes.Replace(strings.TrimSpace(toString(x))) + `"`
	}
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// formatList renders values between open and close, comma-separated.
func formatList(values []any, open, close string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return open + strings.Join(parts, ",") + close
}

// formatPattern renders a wildcard match fragment: *"x"*, "x"* or *"x".
func formatPattern(s string, leading, trailing bool) string {
	out := formatValue(s)
	if leading {
		out = "*" + out
	}
	if trailing {
		out += "*"
	}
	return out
}
