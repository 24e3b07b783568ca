package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/scene"
	"github.com/Roy-Kid/molvis/transport"
	"github.com/Roy-Kid/molvis/wire"
)

func newScene(t *testing.T, name string) (*scene.Scene, *transport.Loopback) {
	t.Helper()
	lb := transport.NewLoopback()
	s, err := scene.New(name, lb)
	require.NoError(t, err)
	return s, lb
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	main, _ := newScene(t, "main")
	side, _ := newScene(t, "side")

	require.NoError(t, r.Register(main))
	require.NoError(t, r.Register(side))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"main", "side"}, r.List())

	got, err := r.Lookup("main")
	require.NoError(t, err)
	assert.Same(t, main, got)
}

func TestLookup_NotFound(t *testing.T) {
	r := NewRegistry()
	main, _ := newScene(t, "main")
	require.NoError(t, r.Register(main))

	_, err := r.Lookup("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), `"ghost"`)
	assert.Contains(t, err.Error(), "main")
}

func TestRegister_NilScene(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(nil))
}

func TestRegister_LastWriterWins(t *testing.T) {
	r := NewRegistry()
	first, _ := newScene(t, "main")
	second, _ := newScene(t, "main")

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	got, err := r.Lookup("main")
	require.NoError(t, err)
	assert.Same(t, second, got)

	// The superseded scene stays alive as an instance.
	assert.Equal(t, 2, r.Len())
	assert.False(t, first.Closed())
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	main, _ := newScene(t, "main")
	require.NoError(t, r.Register(main))

	r.Unregister("main")
	_, err := r.Lookup("main")
	assert.Error(t, err)
	assert.Equal(t, 1, r.Len(), "instance set unaffected by unregister")
	assert.False(t, main.Closed())

	r.Unregister("never-registered")
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	main, _ := newScene(t, "main")
	require.NoError(t, r.Register(main))

	r.Remove(main)
	assert.Zero(t, r.Len())
	_, err := r.Lookup("main")
	assert.Error(t, err)

	r.Remove(nil)
}

func TestRemove_SupersededKeepsDirectoryEntry(t *testing.T) {
	r := NewRegistry()
	first, _ := newScene(t, "main")
	second, _ := newScene(t, "main")
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	// Removing the superseded instance must not evict the current owner.
	r.Remove(first)
	got, err := r.Lookup("main")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestCloseScene(t *testing.T) {
	r := NewRegistry()
	main, lb := newScene(t, "main")
	require.NoError(t, r.Register(main))

	require.NoError(t, r.CloseScene("main"))
	assert.True(t, main.Closed())
	assert.Zero(t, r.Len())

	// The close issued a final clear.
	sent := lb.Sent()
	require.NotEmpty(t, sent)
	var req wire.Request
	require.NoError(t, json.Unmarshal(sent[len(sent)-1].Payload, &req))
	assert.Equal(t, "clear", req.Method)

	err := r.CloseScene("main")
	assert.True(t, errors.IsNotFound(err))
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry()
	main, _ := newScene(t, "main")
	side, _ := newScene(t, "side")
	require.NoError(t, r.Register(main))
	require.NoError(t, r.Register(side))

	r.CloseAll()
	assert.Zero(t, r.Len())
	assert.Empty(t, r.List())
	assert.True(t, main.Closed())
	assert.True(t, side.Closed())
}

func TestBroadcast_NoInstances(t *testing.T) {
	r := NewRegistry()
	assert.Zero(t, r.FrontendInstanceCount(time.Second))
	assert.NoError(t, r.ClearAllInstances())
	assert.NoError(t, r.ClearAllContent())
}

func TestBroadcast_ThroughAnyScene(t *testing.T) {
	r := NewRegistry()
	main, lb := newScene(t, "main")
	require.NoError(t, r.Register(main))

	lb.SetSendHook(func(m transport.SentMessage) {
		var req wire.Request
		require.NoError(t, json.Unmarshal(m.Payload, &req))
		resp, _ := json.Marshal(map[string]any{
			"id":     req.ID,
			"result": map[string]any{"count": 2},
		})
		lb.Inject(resp, nil)
	})

	assert.Equal(t, 2, r.FrontendInstanceCount(time.Second))
	require.NoError(t, r.ClearAllContent())
}

func TestBroadcast_DegradesOnTimeout(t *testing.T) {
	r := NewRegistry()
	main, _ := newScene(t, "main")
	require.NoError(t, r.Register(main))

	assert.Zero(t, r.FrontendInstanceCount(20*time.Millisecond))
}
