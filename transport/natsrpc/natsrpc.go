// Package natsrpc provides the NATS transport: commands are published to a
// per-scene command subject and responses arrive on a per-scene response
// subject. It suits deployments where the rendering peer lives behind a
// message broker instead of a direct WebSocket.
package natsrpc

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Roy-Kid/molvis/transport"
)

// DefaultSubjectPrefix namespaces the per-scene subjects
const DefaultSubjectPrefix = "molvis"

// Errors returned by the NATS transport
var (
	ErrClosed = errors.New("nats transport closed")
)

// Transport bridges one scene over a NATS connection. Outbound frames go to
// "<prefix>.<scene>.cmd"; inbound frames are consumed from
// "<prefix>.<scene>.resp".
type Transport struct {
	conn   *nats.Conn
	scene  string
	prefix string
	log    *slog.Logger

	mu      sync.RWMutex
	sub     *nats.Subscription
	handler transport.Handler
	closed  bool

	// Connection options
	name          string
	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
}

// Option is a functional option for configuring the transport
type Option func(*Transport)

// WithLogger sets the logger for the transport
func WithLogger(log *slog.Logger) Option {
	return func(t *Transport) {
		if log != nil {
			t.log = log
		}
	}
}

// WithSubjectPrefix overrides the subject namespace
func WithSubjectPrefix(prefix string) Option {
	return func(t *Transport) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// WithName sets the NATS client name for server-side observability
func WithName(name string) Option {
	return func(t *Transport) {
		t.name = name
	}
}

// WithMaxReconnects sets the reconnection attempt limit (-1 for infinite)
func WithMaxReconnects(n int) Option {
	return func(t *Transport) {
		t.maxReconnects = n
	}
}

// WithReconnectWait sets the wait time between reconnection attempts
func WithReconnectWait(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.reconnectWait = d
		}
	}
}

// WithConnectTimeout bounds the initial connection attempt
func WithConnectTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// Connect dials NATS and subscribes to the scene's response subject
func Connect(url, sceneName string, opts ...Option) (*Transport, error) {
	if sceneName == "" {
		return nil, fmt.Errorf("scene name cannot be empty")
	}

	t := &Transport{
		scene:         sceneName,
		prefix:        DefaultSubjectPrefix,
		log:           slog.Default(),
		name:          "molvis-bridge",
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}

	conn, err := nats.Connect(url,
		nats.Name(t.name),
		nats.MaxReconnects(t.maxReconnects),
		nats.ReconnectWait(t.reconnectWait),
		nats.Timeout(t.timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			t.log.Warn("nats disconnected", "scene", t.scene, "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			t.log.Info("nats reconnected", "scene", t.scene, "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			t.log.Debug("nats connection closed", "scene", t.scene)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	t.conn = conn

	sub, err := conn.Subscribe(t.ResponseSubject(), t.onInbound)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", t.ResponseSubject(), err)
	}
	t.sub = sub

	t.log.Info("nats transport connected",
		"scene", t.scene, "cmd", t.CommandSubject(), "resp", t.ResponseSubject())
	return t, nil
}

// CommandSubject returns the subject outbound commands are published to
func (t *Transport) CommandSubject() string {
	return t.prefix + "." + t.scene + ".cmd"
}

// ResponseSubject returns the subject inbound responses arrive on
func (t *Transport) ResponseSubject() string {
	return t.prefix + "." + t.scene + ".resp"
}

// Send frames the payload and buffers and publishes them to the command
// subject.
func (t *Transport) Send(payload []byte, buffers [][]byte) error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	data, err := transport.EncodeFrame(payload, buffers)
	if err != nil {
		return err
	}
	return t.conn.Publish(t.CommandSubject(), data)
}

// OnMessage registers the inbound handler
func (t *Transport) OnMessage(h transport.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Close drains the subscription and closes the connection
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	sub := t.sub
	t.mu.Unlock()

	if sub != nil {
		if err := sub.Drain(); err != nil {
			t.log.Warn("drain subscription failed", "scene", t.scene, "error", err)
		}
	}
	t.conn.Close()
	return nil
}

func (t *Transport) onInbound(msg *nats.Msg) {
	payload, buffers, err := transport.DecodeFrame(msg.Data)
	if err != nil {
		t.log.Warn("dropping malformed frame", "scene", t.scene, "error", err)
		return
	}

	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()
	if handler != nil {
		handler(payload, buffers)
	}
}
