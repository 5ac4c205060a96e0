package query

import (
	"reflect"
	"strings"
)

// Evaluate reports whether record passes every entry of q. Keys are ANDed;
// a key with multiple branches passes when any branch does. Evaluation is
// pure, so callers may rely on short-circuiting.
func Evaluate(q Query, record any) bool {
	for rawKey, value := range q {
		if !matchKey(rawKey, value, record) {
			return false
		}
	}
	return true
}

func matchKey(rawKey string, value any, record any) bool {
	for _, branch := range Branches(rawKey) {
		if testKey(ParseKey(branch), value, record) {
			return true
		}
	}
	return false
}

func testKey(k Key, queryValue any, record any) bool {
	ok := matches(k, queryValue, record)
	if k.Negate {
		return !ok
	}
	return ok
}

// matches applies a single parsed key. String comparisons fail closed when
// the stored field is not a string.
func matches(k Key, queryValue any, record any) bool {
	switch k.Mode {
	case ModeExists:
		stored := Lookup(record, k.Path)
		if Truthy(queryValue) {
			return stored != nil
		}
		return stored == nil

	case ModeSubstring, ModePrefix:
		pattern, ok := queryValue.(string)
		if !ok {
			return false
		}
		stored, ok := Lookup(record, k.Path).(string)
		if !ok {
			return false
		}
		if k.Mode == ModePrefix {
			return strings.HasPrefix(strings.ToLower(stored), strings.ToLower(pattern))
		}
		return strings.Contains(strings.ToLower(stored), strings.ToLower(pattern))

	default:
		stored := Lookup(record, k.Path)
		if elements, ok := asSlice(queryValue); ok {
			return containsAll(stored, elements)
		}
		if s, ok := queryValue.(string); ok {
			storedStr, ok := stored.(string)
			return ok && storedStr == s
		}
		return looseEqual(queryValue, stored)
	}
}

// containsAll implements the array query value case with the same semantics
// the database engine gets from $all: a stored array must contain every
// element, a stored scalar must equal every element, and an empty element
// list never matches.
func containsAll(stored any, elements []any) bool {
	if len(elements) == 0 {
		return false
	}

	storedElements, storedIsArray := asSlice(stored)
	for _, want := range elements {
		if storedIsArray {
			found := false
			for _, have := range storedElements {
				if looseEqual(want, have) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		} else if !looseEqual(want, stored) {
			return false
		}
	}
	return true
}

// Truthy reports JSON-style truthiness: nil, false, zero numbers, and empty
// strings are falsy; everything else (including empty arrays) is truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := asFloat(v); ok {
		return f != 0
	}
	return true
}

// looseEqual compares values with numeric type coercion, since query values
// arrive as JSON (float64) while stored fields may be any integer type.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	if reflect.TypeOf(a) == reflect.TypeOf(b) {
		return reflect.DeepEqual(a, b)
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
