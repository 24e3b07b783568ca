package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roy-Kid/molvis/bufcodec"
	"github.com/Roy-Kid/molvis/wire"
)

func TestDrawFrame_BufferSideChannel(t *testing.T) {
	// Threshold of 16 bytes: the three-atom coordinate columns (24 bytes
	// each) ride as buffers, the short element column stays inline.
	s, lb := newTestScene(t, WithBufferThreshold(16))
	require.NoError(t, s.DrawFrame(waterFrame(), DrawOptions{}))

	sent := lb.Sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Buffers, 3)

	atoms := decodeSent(t, sent[0]).
		Params["frameData"].(map[string]any)["blocks"].(map[string]any)["atoms"].(map[string]any)

	// Columns are buffered in sorted order, so placeholders are stable.
	for i, col := range []string{"x", "y", "z"} {
		ref, ok := atoms[col].(string)
		require.True(t, ok, "column %s should be a placeholder", col)
		n, ok := wire.ParseBufferRef(ref)
		require.True(t, ok)
		assert.Equal(t, i, n)

		name, values, err := bufcodec.DecodeColumn(sent[0].Buffers[n])
		require.NoError(t, err)
		assert.Equal(t, col, name)
		assert.Len(t, values, 3)
	}

	assert.Equal(t, []any{"O", "H", "H"}, atoms["element"])
}

func TestDrawFrame_SmallColumnsStayInline(t *testing.T) {
	s, lb := newTestScene(t, WithBufferThreshold(1024))
	require.NoError(t, s.DrawFrame(waterFrame(), DrawOptions{}))

	sent := lb.Sent()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Buffers)

	atoms := decodeSent(t, sent[0]).
		Params["frameData"].(map[string]any)["blocks"].(map[string]any)["atoms"].(map[string]any)
	assert.Len(t, atoms["x"], 3)
}

func TestDrawFrame_NoThresholdNoBuffers(t *testing.T) {
	s, lb := newTestScene(t)
	require.NoError(t, s.DrawFrame(waterFrame(), DrawOptions{}))
	assert.Empty(t, lb.Sent()[0].Buffers)
}

func TestPackFrame_DoesNotMutateInput(t *testing.T) {
	s, _ := newTestScene(t, WithBufferThreshold(16))

	src := waterFrame()
	require.NoError(t, s.DrawFrame(src, DrawOptions{}))

	// The caller's column is untouched even though the wire form carried a
	// placeholder.
	atoms := src["blocks"].(map[string]any)["atoms"].(map[string]any)
	assert.Equal(t, []float64{0, 0.757, -0.757}, atoms["x"])
}

func TestDecodeColumn_ValuesRoundtrip(t *testing.T) {
	s, lb := newTestScene(t, WithBufferThreshold(8))
	src := map[string]any{
		"blocks": map[string]any{
			"atoms": map[string]any{
				"x": []float64{1.5, -2.5},
				"y": []float64{0, 0},
				"z": []float64{3.25, 4.75},
			},
		},
	}
	require.NoError(t, s.DrawFrame(src, DrawOptions{}))

	buffers := lb.Sent()[0].Buffers
	require.Len(t, buffers, 3)

	name, values, err := bufcodec.DecodeColumn(buffers[0])
	require.NoError(t, err)
	assert.Equal(t, "x", name)
	got, ok := values.([]any)
	require.True(t, ok)
	assert.Equal(t, 1.5, got[0])
	assert.Equal(t, -2.5, got[1])
}
