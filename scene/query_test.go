package scene

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roy-Kid/molvis/errors"
)

func TestGetSelected(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{
		"atoms": map[string]any{
			"x":       []float64{1, 2},
			"y":       []float64{0, 0},
			"z":       []float64{0, 0},
			"element": []string{"C", "N"},
		},
		"bonds": map[string]any{"bondId": []int{7}},
	})

	f, err := s.GetSelected(time.Second)
	require.NoError(t, err)
	assert.Contains(t, f.Blocks, "atoms")
	assert.Contains(t, f.Blocks, "bonds")
}

func TestGetSelected_EmptyCategoriesOmitted(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{
		"atoms": map[string]any{"x": []float64{}},
		"bonds": map[string]any{"bondId": []any{}},
	})

	f, err := s.GetSelected(time.Second)
	require.NoError(t, err)
	assert.NotContains(t, f.Blocks, "atoms")
	assert.NotContains(t, f.Blocks, "bonds")
	assert.True(t, f.Empty())
}

func TestGetSelected_NothingSelected(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{})

	f, err := s.GetSelected(time.Second)
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestDumpFrame(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{
		"frameData": map[string]any{
			"blocks": map[string]any{
				"atoms": map[string]any{"x": []float64{1}, "y": []float64{2}, "z": []float64{3}},
			},
			"metadata": map[string]any{"name": "dumped"},
		},
	})

	f, err := s.DumpFrame(time.Second)
	require.NoError(t, err)
	assert.Contains(t, f.Blocks, "atoms")
	assert.Equal(t, "dumped", f.Metadata["name"])
}

func TestDumpFrame_LenientOnBadShape(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{"unexpected": true})

	f, err := s.DumpFrame(time.Second)
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestSnapshot(t *testing.T) {
	s, lb := newTestScene(t)
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	answerCalls(lb, map[string]any{
		"data": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})

	img, err := s.Snapshot(time.Second)
	require.NoError(t, err)
	assert.Equal(t, png, img)
}

func TestSnapshot_BareBase64(t *testing.T) {
	s, lb := newTestScene(t)
	png := []byte("snapshot-bytes")
	answerCalls(lb, map[string]any{"data": base64.StdEncoding.EncodeToString(png)})

	img, err := s.Snapshot(time.Second)
	require.NoError(t, err)
	assert.Equal(t, png, img)
}

func TestSnapshot_BadPayload(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{"data": "%%% not base64 %%%"})

	_, err := s.Snapshot(time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsShape(err))
}

func TestSnapshot_MissingData(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{})

	_, err := s.Snapshot(time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsShape(err))
}

func TestFrameInfo(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{"atomCount": 42, "bondCount": 41})

	info, err := s.FrameInfo(time.Second)
	require.NoError(t, err)
	assert.Contains(t, info, "atomCount")
}

func TestFrontendInstanceCount(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{"count": 3})

	n, err := s.FrontendInstanceCount(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFrontendInstanceCount_MissingCount(t *testing.T) {
	s, lb := newTestScene(t)
	answerCalls(lb, map[string]any{})

	n, err := s.FrontendInstanceCount(time.Second)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBroadcastFires(t *testing.T) {
	s, lb := newTestScene(t)
	require.NoError(t, s.ClearAllInstances())
	require.NoError(t, s.ClearAllContent())

	sent := lb.Sent()
	assert.Equal(t, "clear_all_instances", decodeSent(t, sent[0]).Method)
	assert.Equal(t, "clear_all_content", decodeSent(t, sent[1]).Method)
}
