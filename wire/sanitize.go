package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// sanitizeParams normalizes a params mapping into plain nested maps, slices
// and finite scalars so that serialization is a pure structural encode. This
// is the uniform pre-serialization pass applied to all outbound params: typed
// numeric slices collapse to []any, integer kinds stay integral on the wire,
// and NaN or infinite floats fail the encode instead of producing invalid
// JSON.
func sanitizeParams(params map[string]any) (map[string]any, error) {
	out, err := sanitizeValue(params)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func sanitizeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint:
		return uint64(val), nil
	case uint8:
		return uint64(val), nil
	case uint16:
		return uint64(val), nil
	case uint32:
		return uint64(val), nil
	case uint64:
		return val, nil
	case float32:
		return sanitizeFloat(float64(val))
	case float64:
		return sanitizeFloat(val)
	case json.Number:
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			clean, err := sanitizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			clean, err := sanitizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = clean
		}
		return out, nil
	case []float64:
		out := make([]any, len(val))
		for i, f := range val {
			clean, err := sanitizeFloat(f)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = clean
		}
		return out, nil
	case []int:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = int64(n)
		}
		return out, nil
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case []bool:
		out := make([]any, len(val))
		for i, b := range val {
			out[i] = b
		}
		return out, nil
	}
	return sanitizeReflect(v)
}

// sanitizeReflect handles the long tail of array-like and map-like values
// (typed slices, arrays, map[string]T) that the fast paths above miss.
func sanitizeReflect(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			clean, err := sanitizeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = clean
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not JSON-representable", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			clean, err := sanitizeValue(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			out[iter.Key().String()] = clean
		}
		return out, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return sanitizeValue(rv.Elem().Interface())
	default:
		return nil, fmt.Errorf("value of type %T is not JSON-representable", v)
	}
}

func sanitizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v is not JSON-representable", f)
	}
	return f, nil
}
