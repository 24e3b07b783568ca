package frame

import (
	"reflect"
	"sort"
	"strings"

	"github.com/Roy-Kid/molvis/errors"
)

// Box is the canonical simulation-box wire representation
type Box struct {
	Matrix [3][3]float64
	PBC    [3]bool
	Origin [3]float64
}

// Data returns the box as the nested mapping sent on the wire
func (b *Box) Data() map[string]any {
	matrix := make([]any, 3)
	for i := 0; i < 3; i++ {
		row := make([]any, 3)
		for j := 0; j < 3; j++ {
			row[j] = b.Matrix[i][j]
		}
		matrix[i] = row
	}
	return map[string]any{
		"matrix": matrix,
		"pbc":    []any{b.PBC[0], b.PBC[1], b.PBC[2]},
		"origin": []any{b.Origin[0], b.Origin[1], b.Origin[2]},
	}
}

// NormalizeBox converts a box-like input into the canonical box shape. The
// input must resolve to a mapping with a 3×3 matrix, three periodic-boundary
// flags and a three-component origin. When required fields are absent the
// shape error lists every missing one.
func NormalizeBox(src any) (*Box, error) {
	const op = "NormalizeBox"

	var m map[string]any
	switch v := src.(type) {
	case nil:
		return nil, errors.Shapef("Frame", op, "box cannot be nil")
	case *Box:
		return v, nil
	case Box:
		return &v, nil
	case map[string]any:
		m = v
	case BoxConvertible:
		var err error
		m, err = v.BoxData()
		if err != nil {
			return nil, errors.Shapef("Frame", op, "conversion failed: %v", err)
		}
		if m == nil {
			return nil, errors.Shapef("Frame", op, "conversion yielded no mapping")
		}
	default:
		return nil, errors.Shapef("Frame", op, "cannot convert %T to a box mapping", src)
	}

	var missing []string
	for _, field := range []string{"matrix", "pbc", "origin"} {
		if _, ok := m[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.Shapef("Frame", op,
			"box missing required fields: %s", strings.Join(missing, ", "))
	}

	out := &Box{}
	matrix, err := toCoordMatrix(m["matrix"])
	if err != nil {
		return nil, errors.Shapef("Frame", op, "box matrix must be 3×3: %v", err)
	}
	if r, _ := matrix.Dims(); r != 3 {
		return nil, errors.Shapef("Frame", op, "box matrix must be 3×3, got %d rows", r)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Matrix[i][j] = matrix.At(i, j)
		}
	}

	pbc, err := toBools3(m["pbc"])
	if err != nil {
		return nil, errors.Shapef("Frame", op, "box pbc must be three booleans: %v", err)
	}
	out.PBC = pbc

	origin, err := toRow3(m["origin"])
	if err != nil {
		return nil, errors.Shapef("Frame", op, "box origin must be three numbers: %v", err)
	}
	out.Origin = origin

	return out, nil
}

func toBools3(v any) ([3]bool, error) {
	var out [3]bool
	n := seqLen(v)
	if n != 3 {
		return out, errors.New("wrong length")
	}
	rv := reflect.ValueOf(v)
	for i := 0; i < 3; i++ {
		b, ok := rv.Index(i).Interface().(bool)
		if !ok {
			return out, errors.New("component is not a boolean")
		}
		out[i] = b
	}
	return out, nil
}
