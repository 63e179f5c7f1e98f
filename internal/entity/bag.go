package entity

// Bag is a string-keyed property bag of scalars, nested maps, and reference
// lists. Source records are duck-typed; every typed accessor tolerates a
// missing key or a mismatched kind and falls back to the provided default.
// Page processors depend only on this abstraction, never on the wire shape.
type Bag map[string]any

// String returns the string value for key, or def when absent or not a string.
func (b Bag) String(key, def string) string {
	v, ok := b[key]
	if !ok {
		return def
	}

	s, ok := v.(string)
	if !ok {
		return def
	}

	return s
}

// Bool returns the bool value for key, or def when absent or not a bool.
func (b Bag) Bool(key string, def bool) bool {
	v, ok := b[key]
	if !ok {
		return def
	}

	val, ok := v.(bool)
	if !ok {
		return def
	}

	return val
}

// Float returns the numeric value for key as float64, or def when absent or
// not numeric. JSON decoding yields float64 for all numbers; int and int64
// are accepted for records constructed in-process.
func (b Bag) Float(key string, def float64) float64 {
	v, ok := b[key]
	if !ok {
		return def
	}

	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

// Int64 returns the numeric value for key truncated to int64, or def.
func (b Bag) Int64(key string, def int64) int64 {
	v, ok := b[key]
	if !ok {
		return def
	}

	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return def
	}
}

// Strings returns the string-list value for key. Lists arrive either as
// []string or, after JSON decoding, as []any; non-string elements are
// dropped. Absent or mismatched values yield nil.
func (b Bag) Strings(key string) []string {
	v, ok := b[key]
	if !ok {
		return nil
	}

	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))

		for _, item := range list {
			s, isStr := item.(string)
			if isStr {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// Int64s returns the integer-list value for key, tolerating []int64,
// []float64, and []any element kinds. Absent or mismatched values yield nil.
func (b Bag) Int64s(key string) []int64 {
	v, ok := b[key]
	if !ok {
		return nil
	}

	switch list := v.(type) {
	case []int64:
		return list
	case []float64:
		out := make([]int64, len(list))
		for i, f := range list {
			out[i] = int64(f)
		}

		return out
	case []any:
		out := make([]int64, 0, len(list))

		for _, item := range list {
			switch n := item.(type) {
			case int64:
				out = append(out, n)
			case int:
				out = append(out, int64(n))
			case float64:
				out = append(out, int64(n))
			}
		}

		return out
	default:
		return nil
	}
}

// Map returns the nested map value for key, or nil when absent or not a map.
func (b Bag) Map(key string) Bag {
	v, ok := b[key]
	if !ok {
		return nil
	}

	switch m := v.(type) {
	case Bag:
		return m
	case map[string]any:
		return Bag(m)
	default:
		return nil
	}
}

// Has reports whether key is present with a non-nil value.
func (b Bag) Has(key string) bool {
	v, ok := b[key]

	return ok && v != nil
}
