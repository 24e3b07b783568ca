// Package scene implements the bridge core: named visualization sessions
// that issue draw and query commands to a rendering peer over a send-only
// transport, with blocking request/response correlation layered on top.
//
// Fire-style operations (drawing, styling, playback control) return as soon
// as the command is on the wire. Call-style operations (selection query,
// frame dump, snapshot) block until the peer's correlated response arrives or
// a timeout elapses. All molecular inputs are normalized and validated
// before anything is sent, so a failed operation never leaves a partially
// sent command.
package scene

import (
	"encoding/binary"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/metric"
	"github.com/Roy-Kid/molvis/transport"
	"github.com/Roy-Kid/molvis/wire"
)

// DefaultTimeout is the deadline applied to blocking calls when the caller
// passes a non-positive timeout.
const DefaultTimeout = 5 * time.Second

// readyEvent is the reserved notification the peer emits once its renderer
// for this scene is initialized. It arrives response-shaped with id 0, which
// request ids never use.
const readyEvent = "scene_ready"

// Scene is one named, independently addressable visualization session. A
// Scene is safe for concurrent use: multiple goroutines may issue commands
// and the transport may deliver responses from its own goroutine.
type Scene struct {
	name            string
	sessionID       int64
	tr              transport.Transport
	log             *slog.Logger
	metrics         *metric.Metrics
	timeout         time.Duration
	bufferThreshold int

	// mu guards the request counter and the slot table together: issue and
	// deliver race and must agree on which ids are outstanding.
	mu      sync.Mutex
	counter uint64
	slots   map[uint64]chan *wire.Response

	readyOnce sync.Once
	readyCh   chan struct{}
	closed    atomic.Bool
}

// Option is a functional option for configuring a Scene
type Option func(*Scene)

// WithLogger sets the logger for the scene
func WithLogger(log *slog.Logger) Option {
	return func(s *Scene) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTimeout sets the default deadline for blocking calls
func WithTimeout(d time.Duration) Option {
	return func(s *Scene) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics attaches bridge metrics to the scene
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Scene) {
		s.metrics = m
	}
}

// WithBufferThreshold enables the binary buffer side-channel: numeric
// columns whose packed size reaches n bytes are shipped as buffers instead
// of inline JSON. Zero (the default) keeps everything inline.
func WithBufferThreshold(n int) Option {
	return func(s *Scene) {
		if n > 0 {
			s.bufferThreshold = n
		}
	}
}

// New creates a scene bound to a transport. An empty name is replaced by a
// generated one derived from the session id. The scene registers itself as
// the transport's inbound handler.
func New(name string, tr transport.Transport, opts ...Option) (*Scene, error) {
	if tr == nil {
		return nil, errors.ErrNoTransport
	}

	s := &Scene{
		sessionID: newSessionID(),
		tr:        tr,
		log:       slog.Default(),
		timeout:   DefaultTimeout,
		slots:     make(map[uint64]chan *wire.Response),
		readyCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if name == "" {
		name = defaultName(s.sessionID)
	}
	s.name = name

	tr.OnMessage(s.handleMessage)
	s.log.Debug("scene created", "scene", s.name, "session_id", s.sessionID)
	return s, nil
}

// newSessionID derives a stable positive session identifier from a random
// UUID, disambiguating peer-side instances of the same named scene.
func newSessionID() int64 {
	u := uuid.New()
	return int64(binary.BigEndian.Uint32(u[:4]) & 0x7fffffff)
}

func defaultName(sessionID int64) string {
	return "scene_" + strconv.FormatInt(sessionID, 10)
}

// Name returns the scene's unique name
func (s *Scene) Name() string { return s.name }

// SessionID returns the opaque session identifier generated at creation
func (s *Scene) SessionID() int64 { return s.sessionID }

// RequestCount returns the number of requests issued so far
func (s *Scene) RequestCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Ready reports whether the peer has acknowledged initialization
func (s *Scene) Ready() bool {
	select {
	case <-s.readyCh:
		return true
	default:
		return false
	}
}

// WaitForReady blocks until the peer acknowledges initialization or the
// timeout elapses, reporting whether the scene became ready.
func (s *Scene) WaitForReady(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = s.timeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.readyCh:
		return true
	case <-timer.C:
		return false
	}
}

// Closed reports whether Close has been called
func (s *Scene) Closed() bool { return s.closed.Load() }

// Close marks the scene closed after a best-effort clear of the peer-side
// content. Removal from any registry is the registry owner's job; the scene
// object stays usable for reads but rejects further commands.
func (s *Scene) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.fireRaw("clear", map[string]any{}); err != nil {
		s.log.Warn("clear on close failed", "scene", s.name, "error", err)
	}
	s.log.Debug("scene closed", "scene", s.name)
	return nil
}

// handleMessage is the transport's inbound path. It must never panic or
// block: decode failures are logged and dropped, unmatched responses are
// dropped, and slot handoff is non-blocking.
func (s *Scene) handleMessage(payload []byte, buffers [][]byte) {
	resp, err := wire.DecodeResponse(payload)
	if err != nil {
		s.log.Debug("dropping undecodable inbound message",
			"scene", s.name, "error", errors.Decode(s.name, err))
		s.metrics.RecordDropped(s.name, "decode")
		return
	}
	if len(buffers) > 0 {
		s.log.Debug("inbound message carried unexpected buffers",
			"scene", s.name, "count", len(buffers))
	}

	if resp.ID == 0 {
		if ev, _ := resp.Result["event"].(string); ev == readyEvent {
			s.markReady()
			return
		}
		s.log.Debug("dropping unaddressed notification", "scene", s.name)
		s.metrics.RecordDropped(s.name, "unmatched")
		return
	}

	s.deliver(resp)
}

func (s *Scene) markReady() {
	s.readyOnce.Do(func() {
		close(s.readyCh)
		s.log.Debug("scene ready", "scene", s.name)
	})
}

// sendable checks the preconditions shared by every outbound command
func (s *Scene) sendable() error {
	if s.closed.Load() {
		return errors.ErrSceneClosed
	}
	if s.tr == nil {
		return errors.ErrNoTransport
	}
	return nil
}
