package transport

import (
	"fmt"
	"sync"
)

// SentMessage records one outbound Send observed by a Loopback
type SentMessage struct {
	Payload []byte
	Buffers [][]byte
}

// Loopback is an in-process Transport for tests: it records every Send and
// lets the test play the rendering peer by injecting inbound messages. An
// optional send hook runs synchronously after each Send, which is how tests
// script correlated replies.
type Loopback struct {
	mu      sync.Mutex
	handler Handler
	sent    []SentMessage
	onSend  func(SentMessage)
	closed  bool
}

// NewLoopback creates an unconnected in-process transport
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Send records the outbound message and invokes the send hook, if any
func (l *Loopback) Send(payload []byte, buffers [][]byte) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("loopback transport is closed")
	}
	msg := SentMessage{Payload: payload, Buffers: buffers}
	l.sent = append(l.sent, msg)
	hook := l.onSend
	l.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
	return nil
}

// OnMessage registers the inbound handler
func (l *Loopback) OnMessage(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

// Close marks the transport closed; subsequent sends fail
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// SetSendHook installs a function invoked synchronously after every Send.
// Tests use it to answer call-style requests in-line.
func (l *Loopback) SetSendHook(fn func(SentMessage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSend = fn
}

// Inject delivers an inbound message to the registered handler, as if the
// peer had sent it. A missing handler is a silent no-op.
func (l *Loopback) Inject(payload []byte, buffers [][]byte) {
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()
	if h != nil {
		h(payload, buffers)
	}
}

// Sent returns a snapshot of all recorded outbound messages
func (l *Loopback) Sent() []SentMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SentMessage, len(l.sent))
	copy(out, l.sent)
	return out
}

// SendCount returns the number of outbound messages recorded so far
func (l *Loopback) SendCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}
