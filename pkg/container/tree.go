package container

import (
	"encoding/base64"
	"encoding/json"
	"math"
)

// Tree is the structured property tree of an object.
// Values are JSON-like: map[string]any, []any, string, bool, nil, numbers and []byte.
type Tree = map[string]any

// Well-known property keys.
const (
	KeyName = "m_Name"
)

// Clone returns a deep copy of t.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	return cloneValue(t).(Tree)
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = cloneValue(e)
		}
		return s
	case []byte:
		if x == nil {
			return []byte(nil)
		}
		b := make([]byte, len(x))
		copy(b, x)
		return b
	default:
		return v
	}
}

// GetString returns the string stored under key.
func GetString(t Tree, key string) (string, bool) {
	if v, ok := t[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// GetMap returns the nested tree stored under key.
func GetMap(t Tree, key string) (Tree, bool) {
	if v, ok := t[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

// GetArray returns the list stored under key.
func GetArray(t Tree, key string) ([]any, bool) {
	if v, ok := t[key]; ok {
		if a, ok := v.([]any); ok {
			return a, true
		}
	}
	return nil, false
}

// GetInt returns the integer stored under key. Whole floats are accepted since
// decoded trees carry every number as float64.
func GetInt(t Tree, key string) (int64, bool) {
	v, ok := t[key]
	if !ok {
		return 0, false
	}
	return AsInt(v)
}

// AsInt converts a numeric tree value to int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// AsFloat converts a numeric tree value to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// GetBytes returns the binary value stored under key.
func GetBytes(t Tree, key string) ([]byte, bool) {
	if v, ok := t[key]; ok {
		if b, ok := v.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// binaryKey tags a []byte value in the JSON encoding of a tree.
const binaryKey = "$binary"

// encodeValue replaces []byte values with {"$binary": base64} so they survive JSON.
func encodeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = encodeValue(e)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = encodeValue(e)
		}
		return s
	case []byte:
		return map[string]any{binaryKey: base64.StdEncoding.EncodeToString(x)}
	default:
		return v
	}
}

// decodeValue reverses encodeValue.
func decodeValue(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 1 {
			if s, ok := x[binaryKey].(string); ok {
				return base64.StdEncoding.DecodeString(s)
			}
		}
		for k, e := range x {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			x[k] = d
		}
		return x, nil
	case []any:
		for i, e := range x {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			x[i] = d
		}
		return x, nil
	default:
		return v, nil
	}
}
