// Package transport defines the one-way channel primitive the bridge is
// layered on: send a payload plus ordered binary buffers, and receive inbound
// messages through a registered handler. Concrete transports live in the
// subpackages (ws for WebSocket peers, natsrpc for NATS subjects); Loopback
// is the in-process transport used by tests.
package transport

// Handler consumes one inbound message: the raw payload and its positionally
// attached binary buffers. Handlers must not panic; the transport's read
// path depends on them returning.
type Handler func(payload []byte, buffers [][]byte)

// Transport is the send-only, callback-only channel the bridge core uses.
// Implementations deliver payloads and their buffer lists atomically: buffers
// stay positionally associated with the payload that references them.
type Transport interface {
	// Send transmits a payload and its ordered binary buffers to the peer
	Send(payload []byte, buffers [][]byte) error

	// OnMessage registers the handler invoked for each inbound message.
	// Registering replaces any previous handler.
	OnMessage(h Handler)

	// Close releases the transport. Sends after Close fail.
	Close() error
}
