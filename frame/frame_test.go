package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Roy-Kid/molvis/errors"
)

func waterFrame() map[string]any {
	return map[string]any{
		"blocks": map[string]any{
			"atoms": map[string]any{
				"x":       []float64{0, 0.757, -0.757},
				"y":       []float64{0, 0.586, 0.586},
				"z":       []float64{0, 0, 0},
				"element": []string{"O", "H", "H"},
			},
		},
	}
}

func TestNormalize_SeparateColumns(t *testing.T) {
	f, err := Normalize(waterFrame())
	require.NoError(t, err)

	atoms := f.Blocks["atoms"]
	require.NotNil(t, atoms)
	assert.Equal(t, []float64{0, 0.757, -0.757}, atoms["x"])
	assert.Equal(t, 3, f.AtomCount())
}

func TestNormalize_PackedXYZ(t *testing.T) {
	src := map[string]any{
		"blocks": map[string]any{
			"atoms": map[string]any{
				"xyz": [][]float64{
					{1, 2, 3},
					{4, 5, 6},
				},
				"element": []string{"C", "C"},
			},
		},
	}

	f, err := Normalize(src)
	require.NoError(t, err)

	atoms := f.Blocks["atoms"]
	assert.Equal(t, []float64{1, 4}, atoms["x"])
	assert.Equal(t, []float64{2, 5}, atoms["y"])
	assert.Equal(t, []float64{3, 6}, atoms["z"])
	_, hasXYZ := atoms["xyz"]
	assert.False(t, hasXYZ, "packed column must be removed after expansion")
	assert.Equal(t, []string{"C", "C"}, atoms["element"])
}

func TestNormalize_PackedXYZFromDense(t *testing.T) {
	coords := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	src := map[string]any{
		"blocks": map[string]any{
			"atoms": map[string]any{"xyz": coords},
		},
	}

	f, err := Normalize(src)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, f.Blocks["atoms"]["x"])
	assert.Equal(t, 2, f.AtomCount())
}

func TestNormalize_ShapeErrors(t *testing.T) {
	cases := map[string]any{
		"nil input":    nil,
		"not mapping":  42,
		"no blocks":    map[string]any{"metadata": map[string]any{}},
		"blocks wrong": map[string]any{"blocks": []any{}},
		"no atoms":     map[string]any{"blocks": map[string]any{"bonds": map[string]any{}}},
		"atoms wrong":  map[string]any{"blocks": map[string]any{"atoms": "nope"}},
		"unequal columns": map[string]any{
			"blocks": map[string]any{
				"atoms": map[string]any{
					"x": []float64{1, 2},
					"y": []float64{1},
					"z": []float64{1, 2},
				},
			},
		},
		"no coordinates": map[string]any{
			"blocks": map[string]any{
				"atoms": map[string]any{"element": []string{"C"}},
			},
		},
		"xyz wrong width": map[string]any{
			"blocks": map[string]any{
				"atoms": map[string]any{"xyz": [][]float64{{1, 2}}},
			},
		},
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(src)
			require.Error(t, err)
			assert.True(t, errors.IsShape(err), "want shape error, got %v", err)
		})
	}
}

func TestNormalize_ExtraBlocksAndMetadata(t *testing.T) {
	src := waterFrame()
	src["blocks"].(map[string]any)["bonds"] = map[string]any{
		"i": []int{0, 0},
		"j": []int{1, 2},
	}
	src["blocks"].(map[string]any)["junk"] = "not a block"
	src["metadata"] = map[string]any{"name": "water"}

	f, err := Normalize(src)
	require.NoError(t, err)

	assert.Contains(t, f.Blocks, "bonds")
	assert.NotContains(t, f.Blocks, "junk")
	assert.Equal(t, "water", f.Metadata["name"])
}

type convertibleFrame struct{ data map[string]any }

func (c convertibleFrame) FrameData() (map[string]any, error) { return c.data, nil }

func TestNormalize_Convertible(t *testing.T) {
	f, err := Normalize(convertibleFrame{data: waterFrame()})
	require.NoError(t, err)
	assert.Equal(t, 3, f.AtomCount())
}

func TestFrameData_Roundtrip(t *testing.T) {
	f, err := Normalize(waterFrame())
	require.NoError(t, err)

	again, err := Normalize(f.Data())
	require.NoError(t, err)
	assert.Equal(t, f.AtomCount(), again.AtomCount())
}

func TestNormalizeBox(t *testing.T) {
	src := map[string]any{
		"matrix": [][]float64{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}},
		"pbc":    []any{true, true, false},
		"origin": []float64{0, 0, 0},
	}

	b, err := NormalizeBox(src)
	require.NoError(t, err)
	assert.Equal(t, 10.0, b.Matrix[0][0])
	assert.Equal(t, [3]bool{true, true, false}, b.PBC)

	data := b.Data()
	assert.Contains(t, data, "matrix")
	assert.Contains(t, data, "pbc")
	assert.Contains(t, data, "origin")
}

func TestNormalizeBox_MissingFieldsListed(t *testing.T) {
	_, err := NormalizeBox(map[string]any{"matrix": [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}})
	require.Error(t, err)
	assert.True(t, errors.IsShape(err))
	assert.Contains(t, err.Error(), "origin")
	assert.Contains(t, err.Error(), "pbc")
}

func TestNormalizeBox_BadShapes(t *testing.T) {
	cases := map[string]map[string]any{
		"matrix not 3x3": {
			"matrix": [][]float64{{1, 0}, {0, 1}},
			"pbc":    []any{true, true, true},
			"origin": []float64{0, 0, 0},
		},
		"pbc not bools": {
			"matrix": [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			"pbc":    []any{1, 0, 1},
			"origin": []float64{0, 0, 0},
		},
		"origin wrong length": {
			"matrix": [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			"pbc":    []any{true, true, true},
			"origin": []float64{0, 0},
		},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeBox(src)
			require.Error(t, err)
			assert.True(t, errors.IsShape(err))
		})
	}
}

func TestNormalizeAtomList_Defaults(t *testing.T) {
	f, err := NormalizeAtomList([]map[string]any{
		{"x": 0.0, "y": 0.0, "z": 0.0},
		{"x": 1.0, "y": 0.0, "z": 0.0, "element": "N"},
		{"xyz": []float64{2, 0, 0}, "symbol": "Fe", "type": 7},
	}, nil)
	require.NoError(t, err)

	atoms := f.Blocks["atoms"]
	assert.Equal(t, []float64{0, 1, 2}, atoms["x"])
	assert.Equal(t, []string{"C", "N", "Fe"}, atoms["element"])
	assert.Equal(t, []any{DefaultAtomType, DefaultAtomType, 7}, atoms["type"])
	_, hasColor := atoms["color"]
	assert.False(t, hasColor)
}

func TestNormalizeAtomList_ColorBroadcast(t *testing.T) {
	atoms := []map[string]any{
		{"x": 0.0, "y": 0.0, "z": 0.0},
		{"x": 1.0, "y": 0.0, "z": 0.0},
	}

	f, err := NormalizeAtomList(atoms, "red")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "red"}, f.Blocks["atoms"]["color"])

	f, err = NormalizeAtomList(atoms, []string{"red", "blue"})
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, f.Blocks["atoms"]["color"])

	_, err = NormalizeAtomList(atoms, []string{"red"})
	require.Error(t, err)
	assert.True(t, errors.IsShape(err))
}

func TestNormalizeAtomList_SingleAtom(t *testing.T) {
	f, err := NormalizeAtomList(map[string]any{"x": 1.0, "y": 2.0, "z": 3.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.AtomCount())
}

func TestNormalizeAtomList_Empty(t *testing.T) {
	_, err := NormalizeAtomList([]any{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsShape(err))

	_, err = NormalizeAtomList(nil, nil)
	require.Error(t, err)
}

func TestNormalizeAtomList_MissingCoordinates(t *testing.T) {
	_, err := NormalizeAtomList([]map[string]any{{"element": "C"}}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsShape(err))
}
