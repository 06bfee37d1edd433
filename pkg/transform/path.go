package transform

import (
	"strconv"
	"strings"
)

// lookup resolves a field of a map value. A name present as-is wins;
// otherwise path is walked as dotted segments with optional array indexes,
// like "after.status" or "items[0].sku". "items[*].sku" collects the field
// from every element.
func lookup(fields map[string]any, path string) (any, bool) {
	if v, ok := fields[path]; ok {
		return v, true
	}
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil, false
	}
	return walk(fields, strings.Split(path, "."))
}

func walk(current any, segments []string) (any, bool) {
	for i, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		open := strings.IndexByte(seg, '[')
		if open == -1 {
			if current, ok = m[seg]; !ok {
				return nil, false
			}
			continue
		}
		if !strings.HasSuffix(seg, "]") {
			return nil, false
		}

		array, ok := m[seg[:open]].([]any)
		if !ok {
			return nil, false
		}
		index := seg[open+1 : len(seg)-1]
		if index == "*" || index == "" {
			if i == len(segments)-1 {
				return array, true
			}
			return collect(array, segments[i+1:])
		}

		n, err := strconv.Atoi(index)
		if err != nil || n < 0 || n >= len(array) {
			return nil, false
		}
		current = array[n]
	}
	return current, true
}

// collect resolves rest in every element of array, flattening nested arrays.
func collect(array []any, rest []string) (any, bool) {
	results := make([]any, 0, len(array))
	for _, item := range array {
		v, ok := walk(item, rest)
		if !ok {
			continue
		}
		if vs, isArray := v.([]any); isArray {
			results = append(results, vs...)
		} else {
			results = append(results, v)
		}
	}
	return results, len(results) > 0
}
