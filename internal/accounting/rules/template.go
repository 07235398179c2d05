package rules

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Lookup resolves a dot path inside a nested payload. A missing segment
// or a non-map intermediate resolves to nil, never an error; the caller
// decides what absence means.
func Lookup(payload map[string]any, path string) any {
	if path == "" {
		return nil
	}
	current := any(payload)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// Amount resolves a dot path to a decimal. Absent or non-numeric values
// resolve to zero so optional payload fields (a tax that does not apply)
// simply drop the line.
func Amount(payload map[string]any, path string) decimal.Decimal {
	switch v := Lookup(payload, path).(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case decimal.Decimal:
		return v
	default:
		return decimal.Zero
	}
}

// Substitute replaces {key} placeholders with payload values. Keys are
// dot paths; unresolved placeholders substitute to the empty string.
func Substitute(template string, payload map[string]any) string {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		key := rest[open+1 : open+close]
		if value := Lookup(payload, key); value != nil {
			b.WriteString(stringify(value))
		}
		rest = rest[open+close+1:]
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return decimal.NewFromFloat(v).String()
	case int:
		return decimal.NewFromInt(int64(v)).String()
	case int64:
		return decimal.NewFromInt(v).String()
	case decimal.Decimal:
		return v.String()
	default:
		return ""
	}
}
