package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// arguments wraps the raw argument map with checked accessors. JSON
// decoding yields float64 for numbers and []any / map[string]any for
// collections; every accessor normalizes those shapes so tools never
// type-assert on their own.
type arguments map[string]any

// requiredString returns a non-empty string argument.
func (a arguments) requiredString(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", argumentError(key, "required")
	}
	s, ok := raw.(string)
	if !ok {
		return "", argumentError(key, "must be a string, got %T", raw)
	}
	if strings.TrimSpace(s) == "" {
		return "", argumentError(key, "must not be empty")
	}
	return s, nil
}

// optionalString returns a string argument or the empty string when absent.
func (a arguments) optionalString(key string) (string, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", argumentError(key, "must be a string, got %T", raw)
	}
	return s, nil
}

// optionalBool returns a boolean argument, defaulting to false.
func (a arguments) optionalBool(key string) (bool, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, argumentError(key, "must be a boolean, got %T", raw)
	}
	return b, nil
}

// optionalIntSlice returns an integer array argument, accepting the
// numeric representations JSON decoding produces.
func (a arguments) optionalIntSlice(key string) ([]int, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, argumentError(key, "must be an array of integers, got %T", raw)
	}

	out := make([]int, 0, len(items))
	for i, item := range items {
		value, err := toInt(item)
		if err != nil {
			return nil, argumentError(fmt.Sprintf("%s[%d]", key, i), "%v", err)
		}
		out = append(out, value)
	}
	return out, nil
}

// optionalStringMap returns an object argument as string key/value pairs
// with keys sorted for deterministic downstream ordering.
func (a arguments) optionalStringMap(key string) ([]string, map[string]string, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return nil, nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, argumentError(key, "must be an object of strings, got %T", raw)
	}

	values := make(map[string]string, len(obj))
	keys := make([]string, 0, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, nil, argumentError(key+"."+k, "must be a string, got %T", v)
		}
		values[k] = s
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, values, nil
}

// optionalObjectSlice returns an array-of-objects argument.
func (a arguments) optionalObjectSlice(key string) ([]map[string]any, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, argumentError(key, "must be an array of objects, got %T", raw)
	}

	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, argumentError(fmt.Sprintf("%s[%d]", key, i), "must be an object, got %T", item)
		}
		out = append(out, obj)
	}
	return out, nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("must be an integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", v.String())
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", raw)
	}
}
