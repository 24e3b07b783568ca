package frame

import (
	"reflect"

	"github.com/Roy-Kid/molvis/errors"
)

// DefaultElement is assumed when an atom carries neither element nor symbol
const DefaultElement = "C"

// DefaultAtomType is assumed when an atom carries no type field
const DefaultAtomType = int64(1)

// NormalizeAtomList builds a single-block canonical frame from one atom-like
// object or a list of them. Each atom must be an AtomLike or a plain mapping.
// Coordinates come from either a three-component xyz field or separate x, y,
// z fields; missing coordinates are a shape error. Element defaults to
// DefaultElement (falling back through symbol first), type to
// DefaultAtomType. An optional color may be a single value, broadcast across
// all atoms, or a per-atom list of matching length.
func NormalizeAtomList(atoms any, color any) (*Frame, error) {
	const op = "NormalizeAtomList"

	list, err := atomSlice(atoms, op)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.EmptyInput("Frame", op, "atom list")
	}

	n := len(list)
	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	elements := make([]string, n)
	types := make([]any, n)

	for i, raw := range list {
		get, err := fieldGetter(raw)
		if err != nil {
			return nil, errors.Shapef("Frame", op, "atom %d: %v", i, err)
		}

		xi, yi, zi, err := atomCoords(get)
		if err != nil {
			return nil, errors.Shapef("Frame", op, "atom %d: %v", i, err)
		}
		x[i], y[i], z[i] = xi, yi, zi

		elements[i] = atomElement(get)
		if t, ok := get("type"); ok {
			types[i] = t
		} else {
			types[i] = DefaultAtomType
		}
	}

	block := Block{
		"x":       x,
		"y":       y,
		"z":       z,
		"element": elements,
		"type":    types,
	}

	if color != nil {
		colors, err := broadcastColor(color, n)
		if err != nil {
			return nil, errors.Shapef("Frame", op, "%v", err)
		}
		block["color"] = colors
	}

	out := New()
	out.Blocks["atoms"] = block
	return out, nil
}

// getter reports an atom field and whether it is present
type getter func(key string) (any, bool)

func fieldGetter(raw any) (getter, error) {
	switch a := raw.(type) {
	case AtomLike:
		return a.Get, nil
	case map[string]any:
		return func(key string) (any, bool) {
			v, ok := a[key]
			return v, ok
		}, nil
	case Block:
		return func(key string) (any, bool) {
			v, ok := a[key]
			return v, ok
		}, nil
	default:
		return nil, errors.New("atom must implement Get or be a mapping")
	}
}

func atomCoords(get getter) (float64, float64, float64, error) {
	if raw, ok := get("xyz"); ok && raw != nil {
		row, err := toRow3(raw)
		if err != nil {
			return 0, 0, 0, err
		}
		return row[0], row[1], row[2], nil
	}

	coords := [3]float64{}
	for i, key := range []string{"x", "y", "z"} {
		raw, ok := get(key)
		if !ok || raw == nil {
			return 0, 0, 0, errors.New("atom must provide x, y, z coordinates or an xyz vector")
		}
		f, ok := asFloat(raw)
		if !ok {
			return 0, 0, 0, errors.New("coordinate " + key + " is not numeric")
		}
		coords[i] = f
	}
	return coords[0], coords[1], coords[2], nil
}

func atomElement(get getter) string {
	if e, ok := get("element"); ok {
		if s, ok := e.(string); ok && s != "" {
			return s
		}
	}
	if s, ok := get("symbol"); ok {
		if str, ok := s.(string); ok && str != "" {
			return str
		}
	}
	return DefaultElement
}

func broadcastColor(color any, n int) ([]string, error) {
	switch c := color.(type) {
	case string:
		out := make([]string, n)
		for i := range out {
			out[i] = c
		}
		return out, nil
	case []string:
		if len(c) != n {
			return nil, errors.New("per-atom color list length does not match atom count")
		}
		return c, nil
	case []any:
		if len(c) != n {
			return nil, errors.New("per-atom color list length does not match atom count")
		}
		out := make([]string, n)
		for i, v := range c {
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("colors must be strings")
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errors.New("color must be a string or a list of strings")
	}
}

// atomSlice normalizes a single atom or any slice of atoms into []any
func atomSlice(atoms any, op string) ([]any, error) {
	switch a := atoms.(type) {
	case nil:
		return nil, errors.EmptyInput("Frame", op, "atom list")
	case []any:
		return a, nil
	case []map[string]any:
		out := make([]any, len(a))
		for i, m := range a {
			out[i] = m
		}
		return out, nil
	case []AtomLike:
		out := make([]any, len(a))
		for i, m := range a {
			out[i] = m
		}
		return out, nil
	case map[string]any, AtomLike, Block:
		return []any{a}, nil
	}

	rv := reflect.ValueOf(atoms)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return []any{atoms}, nil
}
