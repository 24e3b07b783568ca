// Package bufcodec encodes named data columns into the binary buffers that
// ride alongside a request. Columns are packed with msgpack; columns past a
// size threshold are additionally zstd-compressed. A one-byte header tags
// the compression so the peer (and tests) can decode without out-of-band
// state.
package bufcodec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	flagRaw  = 0x00
	flagZstd = 0x01
)

// column is the msgpack envelope for one packed column
type column struct {
	Name   string `msgpack:"name"`
	Values any    `msgpack:"values"`
}

var (
	// Encoder/decoder handles are stateless in EncodeAll/DecodeAll mode and
	// safe for concurrent use.
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("bufcodec: init zstd encoder: %v", err))
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("bufcodec: init zstd decoder: %v", err))
	}
}

// EncodeColumn packs one named column into a buffer payload. When
// compressThreshold is positive and the packed form reaches it, the payload
// is zstd-compressed. A zero or negative threshold disables compression.
func EncodeColumn(name string, values any, compressThreshold int) ([]byte, error) {
	packed, err := msgpack.Marshal(column{Name: name, Values: values})
	if err != nil {
		return nil, fmt.Errorf("pack column %q: %w", name, err)
	}

	if compressThreshold > 0 && len(packed) >= compressThreshold {
		out := make([]byte, 1, len(packed)/2+1)
		out[0] = flagZstd
		return zstdEncoder.EncodeAll(packed, out), nil
	}

	out := make([]byte, 1+len(packed))
	out[0] = flagRaw
	copy(out[1:], packed)
	return out, nil
}

// DecodeColumn unpacks a buffer payload produced by EncodeColumn
func DecodeColumn(buf []byte) (name string, values any, err error) {
	if len(buf) < 1 {
		return "", nil, fmt.Errorf("empty column buffer")
	}

	body := buf[1:]
	switch buf[0] {
	case flagRaw:
	case flagZstd:
		body, err = zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return "", nil, fmt.Errorf("decompress column: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("unknown column flag 0x%02x", buf[0])
	}

	var col column
	if err := msgpack.Unmarshal(body, &col); err != nil {
		return "", nil, fmt.Errorf("unpack column: %w", err)
	}
	return col.Name, col.Values, nil
}
