package configdef

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the declared type of a configuration option.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeLong
	TypeDouble
	TypeBool
	TypeList
	TypePlugin // a registered plugin type identifier
	TypeDuration
	TypePassword
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "boolean"
	case TypeList:
		return "list"
	case TypePlugin:
		return "plugin"
	case TypeDuration:
		return "duration"
	case TypePassword:
		return "password"
	default:
		return "unknown"
	}
}

// Password hides its value when printed.
type Password string

func (p Password) String() string { return "[hidden]" }

// Value returns the clear-text password.
func (p Password) Value() string { return string(p) }

// ParseType converts a raw property value into the Go value for t.
// Strings are trimmed; lists are comma-separated and an empty string is an
// empty list. Already-typed values (ints, bools, []string, []any of strings,
// time.Duration) are accepted as-is when compatible.
func ParseType(name string, raw any, t Type) (any, error) {
	if raw == nil {
		return nil, nil
	}

	fail := func(reason string) (any, error) {
		return nil, newError(ErrInvalidType, name, raw, fmt.Sprintf("expected %s%s", t, reason))
	}

	switch t {
	case TypeString, TypePlugin:
		s, ok := raw.(string)
		if !ok {
			return fail("")
		}
		return strings.TrimSpace(s), nil

	case TypePassword:
		switch v := raw.(type) {
		case string:
			return Password(v), nil
		case Password:
			return v, nil
		}
		return fail("")

	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fail("")
			}
			return b, nil
		}
		return fail("")

	case TypeInt, TypeLong:
		var n int64
		switch v := raw.(type) {
		case int:
			n = int64(v)
		case int32:
			n = int64(v)
		case int64:
			n = v
		case float64:
			if v != float64(int64(v)) {
				return fail(", got fractional number")
			}
			n = int64(v)
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fail("")
			}
			n = parsed
		default:
			return fail("")
		}
		if t == TypeLong {
			return n, nil
		}
		if n != int64(int(n)) || n > 1<<31-1 || n < -(1<<31) {
			return fail(", out of range")
		}
		return int(n), nil

	case TypeDouble:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fail("")
			}
			return f, nil
		}
		return fail("")

	case TypeDuration:
		switch v := raw.(type) {
		case time.Duration:
			return v, nil
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case string:
			s := strings.TrimSpace(v)
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.Duration(ms) * time.Millisecond, nil
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fail("")
			}
			return d, nil
		}
		return fail("")

	case TypeList:
		switch v := raw.(type) {
		case []string:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, strings.TrimSpace(item))
			}
			return out, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return fail(fmt.Sprintf(", item %v is not a string", item))
				}
				out = append(out, strings.TrimSpace(s))
			}
			return out, nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return []string{}, nil
			}
			parts := strings.Split(s, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				out = append(out, strings.TrimSpace(p))
			}
			return out, nil
		}
		return fail("")
	}

	return nil, newError(ErrInvalidType, name, raw, "unknown type "+t.String())
}

// FormatValue renders a parsed value back into its string form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(x, ",")
	case Password:
		return x.String()
	case time.Duration:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
