package scene

import (
	"sort"

	"github.com/Roy-Kid/molvis/bufcodec"
	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/frame"
	"github.com/Roy-Kid/molvis/wire"
)

// packFrame builds the frameData params value for a normalized frame. With
// a buffer threshold configured, large float64 columns leave the JSON body
// and ride the binary side-channel: the column value becomes a positional
// placeholder and the packed column is appended to the buffer list. Blocks
// and columns are visited in sorted order so placeholder indices are
// deterministic for a given frame.
func (s *Scene) packFrame(f *frame.Frame, includeMetadata bool) (map[string]any, [][]byte, error) {
	data := f.Data()
	if !includeMetadata {
		delete(data, "metadata")
	}
	if s.bufferThreshold <= 0 {
		return data, nil, nil
	}

	blocks, ok := data["blocks"].(map[string]any)
	if !ok {
		return data, nil, nil
	}

	var buffers [][]byte
	packed := make(map[string]any, len(blocks))

	for _, blockName := range sortedKeys(blocks) {
		block, ok := blocks[blockName].(map[string]any)
		if !ok {
			packed[blockName] = blocks[blockName]
			continue
		}

		// Copy-on-write: the normalized frame may still alias caller maps.
		out := make(map[string]any, len(block))
		for k, v := range block {
			out[k] = v
		}

		for _, col := range sortedKeys(out) {
			values, ok := out[col].([]float64)
			if !ok || len(values)*8 < s.bufferThreshold {
				continue
			}
			buf, err := bufcodec.EncodeColumn(col, values, s.bufferThreshold)
			if err != nil {
				return nil, nil, errors.Wrap(err, s.name, "packFrame", "encode column "+col)
			}
			out[col] = wire.BufferRef(len(buffers))
			buffers = append(buffers, buf)
		}
		packed[blockName] = out
	}

	data["blocks"] = packed
	return data, buffers, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
