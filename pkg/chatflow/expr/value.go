package expr

import (
	"strconv"
	"strings"
)

// Resolve turns an operand into a value: quoted strings and scalar
// literals are taken as written, anything else is looked up in vars
// and falls back to its literal spelling when absent.
func Resolve(s string, vars map[string]any) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if vars != nil {
		if v, ok := vars[s]; ok {
			return v
		}
	}
	return s
}

// IsTruthy reports whether a value counts as true: nil, false, empty
// strings and zero numbers are false, everything else is true.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	}
	return true
}

// toFloat64 coerces a value for numeric comparison. Non-numeric
// values compare as zero.
func toFloat64(v any) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float64:
		return val
	case float32:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	case bool:
		if val {
			return 1
		}
	}
	return 0
}
