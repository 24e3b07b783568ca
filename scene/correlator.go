package scene

import (
	"time"

	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/wire"
)

// Request correlation. Each blocking call owns one slot: a single-entry
// buffered channel keyed by request id. The buffer makes handoff from the
// transport's inbound goroutine non-blocking, and deleting the slot before
// sending into it guarantees at most one deliver ever wins an id.

// issue atomically advances the scene-local request counter. Ids are
// strictly increasing and never reused for the scene's lifetime.
func (s *Scene) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter
}

// issueSlot issues a new id and registers its waiting slot in one critical
// section, so deliver can never observe an issued id without a slot.
func (s *Scene) issueSlot() (uint64, chan *wire.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	ch := make(chan *wire.Response, 1)
	s.slots[s.counter] = ch
	return s.counter, ch
}

func (s *Scene) removeSlot(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, id)
}

// deliver hands an inbound response to the waiting slot for its id. A
// response with no slot (already timed out, or an id this scene never
// issued) is dropped at debug level: that is the normal outcome of a timeout
// racing a late reply, not an error.
func (s *Scene) deliver(resp *wire.Response) {
	s.mu.Lock()
	ch, ok := s.slots[resp.ID]
	if ok {
		delete(s.slots, resp.ID)
	}
	s.mu.Unlock()

	if !ok {
		s.log.Debug("dropping response with no waiting slot",
			"scene", s.name, "id", resp.ID)
		s.metrics.RecordDropped(s.name, "unmatched")
		return
	}
	ch <- resp
	s.metrics.RecordDelivered(s.name)
}

// await blocks until the slot receives its response or the timeout elapses.
// The slot is removed on every exit path. A deliver that wins the race just
// as the timer fires is still honored: the buffered slot is drained once
// before the timeout is reported.
func (s *Scene) await(id uint64, ch chan *wire.Response, method string, timeout time.Duration) (*wire.Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		s.removeSlot(id)
		select {
		case resp := <-ch:
			return resp, nil
		default:
		}
		s.metrics.RecordTimeout(s.name, method)
		return nil, errors.Timeout(s.name, id, timeout)
	}
}

// fire sends a command without registering a slot: no reply is expected and
// the caller never blocks beyond the transport handoff.
func (s *Scene) fire(method string, params map[string]any, buffers ...[]byte) error {
	if err := s.sendable(); err != nil {
		return errors.Wrap(err, s.name, method, "send")
	}
	return s.fireRaw(method, params, buffers...)
}

// fireRaw is fire without the closed-scene check, used by Close itself for
// the final best-effort clear.
func (s *Scene) fireRaw(method string, params map[string]any, buffers ...[]byte) error {
	id := s.issue()
	payload, err := wire.EncodeRequest(id, method, params, len(buffers))
	if err != nil {
		return errors.Shapef(s.name, method, "encode request: %v", err)
	}
	if err := s.tr.Send(payload, buffers); err != nil {
		return errors.Wrap(err, s.name, method, "transport send")
	}
	s.metrics.RecordRequest(s.name, method, "fire")
	s.recordBuffers(buffers)
	return nil
}

// call sends a command and blocks until the correlated response arrives or
// the timeout elapses. A peer-reported error payload surfaces as a peer
// error; a timeout leaves the scene fully usable for subsequent requests.
func (s *Scene) call(method string, params map[string]any, timeout time.Duration, buffers ...[]byte) (map[string]any, error) {
	if err := s.sendable(); err != nil {
		return nil, errors.Wrap(err, s.name, method, "send")
	}
	if timeout <= 0 {
		timeout = s.timeout
	}

	id, ch := s.issueSlot()
	payload, err := wire.EncodeRequest(id, method, params, len(buffers))
	if err != nil {
		s.removeSlot(id)
		return nil, errors.Shapef(s.name, method, "encode request: %v", err)
	}

	start := time.Now()
	if err := s.tr.Send(payload, buffers); err != nil {
		s.removeSlot(id)
		return nil, errors.Wrap(err, s.name, method, "transport send")
	}
	s.metrics.RecordRequest(s.name, method, "call")
	s.recordBuffers(buffers)

	resp, err := s.await(id, ch, method, timeout)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRoundTrip(s.name, method, time.Since(start))

	if resp.Error != nil {
		return nil, errors.Peer(s.name, method, resp.Error.Message)
	}
	return resp.Result, nil
}

func (s *Scene) recordBuffers(buffers [][]byte) {
	if len(buffers) == 0 {
		return
	}
	total := 0
	for _, b := range buffers {
		total += len(b)
	}
	s.metrics.RecordBufferBytes(s.name, total)
}
