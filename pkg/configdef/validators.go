package configdef

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// OneOf accepts strings from allowed, compared case-insensitively.
func OneOf(allowed ...string) Validator {
	return ValidatorFunc(func(name string, value any) error {
		s, _ := value.(string)
		for _, a := range allowed {
			if strings.EqualFold(a, s) {
				return nil
			}
		}
		return newError(ErrInvalidValue, name, value, fmt.Sprintf("must be one of [%s]", strings.Join(allowed, ", ")))
	})
}

// Range accepts int, int64 and float64 values within [min, max].
func Range(lo, hi float64) Validator {
	return ValidatorFunc(func(name string, value any) error {
		var f float64
		switch n := value.(type) {
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case float64:
			f = n
		default:
			return newError(ErrInvalidType, name, value, "expected a number")
		}
		if f < lo || f > hi {
			return newError(ErrInvalidValue, name, value, fmt.Sprintf("must be within [%v, %v]", lo, hi))
		}
		return nil
	})
}

// NonEmpty rejects empty strings and empty lists.
func NonEmpty() Validator {
	return ValidatorFunc(func(name string, value any) error {
		switch v := value.(type) {
		case string:
			if v != "" {
				return nil
			}
		case []string:
			if len(v) > 0 && !slices.Contains(v, "") {
				return nil
			}
		default:
			return nil
		}
		return newError(ErrInvalidValue, name, value, "must not be empty")
	})
}

// Regexp accepts strings that compile as regular expressions. Empty strings
// are accepted so the validator can guard optional options.
func Regexp() Validator {
	return ValidatorFunc(func(name string, value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := regexp.Compile(s); err != nil {
			return &Error{Kind: ErrInvalidValue, Name: name, Value: value, Err: err}
		}
		return nil
	})
}

// Pairs accepts lists whose items look like "left:right".
func Pairs() Validator {
	return ValidatorFunc(func(name string, value any) error {
		items, _ := value.([]string)
		for _, item := range items {
			left, right, ok := strings.Cut(item, ":")
			if !ok || left == "" || right == "" {
				return newError(ErrInvalidValue, name, value, fmt.Sprintf("item %q must look like old:new", item))
			}
		}
		return nil
	})
}

// ParsePairs splits "left:right" items into a map.
func ParsePairs(items []string) map[string]string {
	out := make(map[string]string, len(items))
	for _, item := range items {
		if left, right, ok := strings.Cut(item, ":"); ok {
			out[strings.TrimSpace(left)] = strings.TrimSpace(right)
		}
	}
	return out
}
