package transport

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire framing shared by the concrete transports. A message is one
// length-prefixed binary blob so the payload and its buffers travel as a
// single unit and can never interleave with another message:
//
//	u32 payload length | payload | u32 buffer count | (u32 length | bytes)*
//
// All integers are big-endian.

const maxFrameSection = math.MaxUint32

// EncodeFrame packs a payload and its ordered binary buffers into a single
// framed message.
func EncodeFrame(payload []byte, buffers [][]byte) ([]byte, error) {
	if len(payload) > maxFrameSection {
		return nil, fmt.Errorf("payload of %d bytes exceeds frame limit", len(payload))
	}

	size := 4 + len(payload) + 4
	for i, b := range buffers {
		if len(b) > maxFrameSection {
			return nil, fmt.Errorf("buffer %d of %d bytes exceeds frame limit", i, len(b))
		}
		size += 4 + len(b)
	}

	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(buffers)))
	for _, b := range buffers {
		out = binary.BigEndian.AppendUint32(out, uint32(len(b)))
		out = append(out, b...)
	}
	return out, nil
}

// DecodeFrame unpacks a framed message back into its payload and buffers.
// Truncated or trailing bytes are an error; a decode failure must be logged
// and dropped by the caller, never propagated into the read loop.
func DecodeFrame(data []byte) (payload []byte, buffers [][]byte, err error) {
	payload, rest, err := readSection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("payload: %w", err)
	}

	if len(rest) < 4 {
		return nil, nil, fmt.Errorf("buffer count: truncated frame")
	}
	count := binary.BigEndian.Uint32(rest)
	rest = rest[4:]

	// The count comes from the untrusted frame; each declared buffer needs
	// at least its 4-byte length prefix, so anything beyond that bound must
	// fail before it sizes an allocation.
	if uint64(count)*4 > uint64(len(rest)) {
		return nil, nil, fmt.Errorf("declared %d buffers, %d bytes remain", count, len(rest))
	}

	buffers = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		var buf []byte
		buf, rest, err = readSection(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("buffer %d: %w", i, err)
		}
		buffers = append(buffers, buf)
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("%d trailing bytes after frame", len(rest))
	}
	return payload, buffers, nil
}

func readSection(data []byte) (section, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("truncated frame")
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, fmt.Errorf("declared %d bytes, %d remain", n, len(data))
	}
	return data[:n], data[n:], nil
}
