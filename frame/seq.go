package frame

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gonum.org/v1/gonum/mat"
)

// seqLen returns the length of an array-like value, or -1 when the value is
// not a sequence.
func seqLen(v any) int {
	switch s := v.(type) {
	case nil:
		return -1
	case []float64:
		return len(s)
	case []int:
		return len(s)
	case []string:
		return len(s)
	case []any:
		return len(s)
	case string:
		// Strings are scalars on the wire, not sequences of runes.
		return -1
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len()
	}
	return -1
}

// asFloat coerces a scalar numeric value to float64
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toCoordMatrix converts a row-major coordinate collection into a dense
// N×3 matrix. Accepted inputs: anything implementing mat.Matrix, [][]float64,
// or a []any of numeric rows.
func toCoordMatrix(v any) (*mat.Dense, error) {
	switch m := v.(type) {
	case *mat.Dense:
		return requireThreeCols(m)
	case mat.Matrix:
		r, c := m.Dims()
		d := mat.NewDense(r, c, nil)
		d.Copy(m)
		return requireThreeCols(d)
	case [][]float64:
		if len(m) == 0 {
			return nil, fmt.Errorf("empty matrix")
		}
		d := mat.NewDense(len(m), 3, nil)
		for i, row := range m {
			if len(row) != 3 {
				return nil, fmt.Errorf("row %d has %d columns, want 3", i, len(row))
			}
			d.SetRow(i, row)
		}
		return d, nil
	case []any:
		if len(m) == 0 {
			return nil, fmt.Errorf("empty matrix")
		}
		d := mat.NewDense(len(m), 3, nil)
		for i, raw := range m {
			row, err := toRow3(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			d.SetRow(i, row[:])
		}
		return d, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		rows := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			rows[i] = rv.Index(i).Interface()
		}
		return toCoordMatrix(rows)
	}
	return nil, fmt.Errorf("cannot interpret %T as a coordinate matrix", v)
}

func requireThreeCols(d *mat.Dense) (*mat.Dense, error) {
	r, c := d.Dims()
	if c != 3 {
		return nil, fmt.Errorf("matrix is %d×%d, want N×3", r, c)
	}
	if r == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	return d, nil
}

// toRow3 converts a single coordinate triple into three floats
func toRow3(v any) ([3]float64, error) {
	var out [3]float64
	n := seqLen(v)
	if n != 3 {
		return out, fmt.Errorf("coordinate must have exactly three components, got %d", n)
	}
	rv := reflect.ValueOf(v)
	for i := 0; i < 3; i++ {
		f, ok := asFloat(rv.Index(i).Interface())
		if !ok {
			return out, fmt.Errorf("component %d is not numeric", i)
		}
		out[i] = f
	}
	return out, nil
}
