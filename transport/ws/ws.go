// Package ws provides the WebSocket transport: an HTTP server upgrading one
// endpoint to a WebSocket over which the rendering peer exchanges framed
// messages. The host side stays send-only with a callback for inbound
// traffic, matching the bridge's transport contract.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Roy-Kid/molvis/transport"
)

// DefaultReadLimit caps a single inbound message. Responses are small; the
// limit mainly guards against a hostile peer streaming one giant message.
const DefaultReadLimit = 64 << 20

// Errors returned by the WebSocket transport
var (
	ErrNotConnected   = errors.New("no rendering peer connected")
	ErrAlreadyStarted = errors.New("transport already started")
	ErrNotStarted     = errors.New("transport not started")
)

// Transport is a WebSocket server endpoint for a single rendering peer. A
// newly connecting peer supersedes the previous connection: the browser tab
// that reconnects after a reload wins.
type Transport struct {
	addr      string
	path      string
	log       *slog.Logger
	readLimit int64

	upgrader websocket.Upgrader
	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener

	// mu guards conn and handler; writeMu serializes writes to the peer
	mu      sync.RWMutex
	conn    *websocket.Conn
	handler transport.Handler
	writeMu sync.Mutex

	// Lifecycle management
	lifecycleMu sync.Mutex
	running     bool
	shutdown    chan struct{}
	done        chan struct{}
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

// WithCheckOrigin overrides the upgrade origin check. The default accepts
// any origin, which fits notebook frontends served from arbitrary hosts.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(t *Transport) {
		t.upgrader.CheckOrigin = fn
	}
}

// WithReadLimit caps the size of a single inbound message in bytes; a peer
// exceeding it is disconnected.
func WithReadLimit(n int64) Option {
	return func(t *Transport) {
		if n > 0 {
			t.readLimit = n
		}
	}
}

// WithHandshakeTimeout bounds the WebSocket upgrade handshake
func WithHandshakeTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.upgrader.HandshakeTimeout = d
	}
}

// New creates a WebSocket transport serving path on addr. Call Start to
// begin accepting peers.
func New(addr, path string, opts ...Option) *Transport {
	t := &Transport{
		addr:      addr,
		path:      path,
		log:       slog.Default(),
		readLimit: DefaultReadLimit,
		mux:       http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.mux.HandleFunc(path, t.serveWS)
	return t
}

// RegisterHandler mounts an additional HTTP handler (e.g. metrics) on the
// transport's server. Must be called before Start.
func (t *Transport) RegisterHandler(pattern string, h http.Handler) {
	t.mux.Handle(pattern, h)
}

// Start begins listening and serving. It returns once the listener is
// bound; serving continues in the background until Stop.
func (t *Transport) Start(ctx context.Context) error {
	t.lifecycleMu.Lock()
	defer t.lifecycleMu.Unlock()
	if t.running {
		return ErrAlreadyStarted
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", t.addr)
	if err != nil {
		return err
	}
	t.listener = listener
	t.server = &http.Server{
		Handler:           t.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(t.done)
		err := t.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.log.Error("websocket server stopped", "error", err)
		}
	}()

	t.running = true
	t.log.Info("websocket transport listening", "addr", listener.Addr().String(), "path", t.path)
	return nil
}

// Addr returns the bound listen address, useful with a ":0" configuration
func (t *Transport) Addr() string {
	t.lifecycleMu.Lock()
	defer t.lifecycleMu.Unlock()
	if t.listener == nil {
		return t.addr
	}
	return t.listener.Addr().String()
}

// Stop shuts the server down and closes the peer connection
func (t *Transport) Stop(ctx context.Context) error {
	t.lifecycleMu.Lock()
	defer t.lifecycleMu.Unlock()
	if !t.running {
		return ErrNotStarted
	}
	t.running = false
	close(t.shutdown)

	t.mu.Lock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()

	err := t.server.Shutdown(ctx)
	select {
	case <-t.done:
	case <-ctx.Done():
	}
	return err
}

// Close implements transport.Transport
func (t *Transport) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := t.Stop(ctx)
	if errors.Is(err, ErrNotStarted) {
		return nil
	}
	return err
}

// Send frames the payload and buffers and writes them to the connected peer
func (t *Transport) Send(payload []byte, buffers [][]byte) error {
	data, err := transport.EncodeFrame(payload, buffers)
	if err != nil {
		return err
	}

	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// OnMessage registers the inbound handler
func (t *Transport) OnMessage(h transport.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Connected reports whether a peer is currently attached
func (t *Transport) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn != nil
}

func (t *Transport) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(t.readLimit)

	t.mu.Lock()
	if t.conn != nil {
		t.log.Info("new peer supersedes existing connection",
			"old", t.conn.RemoteAddr().String(), "new", conn.RemoteAddr().String())
		_ = t.conn.Close()
	}
	t.conn = conn
	t.mu.Unlock()

	t.log.Debug("peer connected", "remote", conn.RemoteAddr().String())
	go t.readLoop(conn)
}

// readLoop decodes inbound frames and dispatches them to the handler.
// Decode failures are logged and dropped; they never stop the loop.
func (t *Transport) readLoop(conn *websocket.Conn) {
	defer func() {
		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
		}
		t.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		select {
		case <-t.shutdown:
			return
		default:
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.Warn("peer read failed", "error", err)
			} else {
				t.log.Debug("peer disconnected", "remote", conn.RemoteAddr().String())
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			t.log.Debug("ignoring non-binary message", "type", messageType)
			continue
		}

		payload, buffers, err := transport.DecodeFrame(data)
		if err != nil {
			t.log.Warn("dropping malformed frame", "error", err)
			continue
		}

		t.mu.RLock()
		handler := t.handler
		t.mu.RUnlock()
		if handler != nil {
			handler(payload, buffers)
		}
	}
}
