package scene

import (
	"encoding/base64"
	"reflect"
	"strings"
	"time"

	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/frame"
)

// GetSelected queries the peer for the current selection and returns it as a
// canonical frame. A category (atoms, bonds) is included only when the peer
// reports at least one selected entity in it; an empty selection is an empty
// frame, not an error.
func (s *Scene) GetSelected(timeout time.Duration) (*frame.Frame, error) {
	result, err := s.call("get_selected", map[string]any{}, timeout)
	if err != nil {
		return nil, err
	}

	out := frame.New()
	if atoms, ok := result["atoms"].(map[string]any); ok && countIn(atoms, "x") > 0 {
		out.Blocks["atoms"] = frame.Block(atoms)
	}
	if bonds, ok := result["bonds"].(map[string]any); ok && countIn(bonds, "bondId") > 0 {
		out.Blocks["bonds"] = frame.Block(bonds)
	}
	return out, nil
}

// DumpFrame retrieves the peer's current full frame state. A malformed or
// absent reply shape degrades to an empty frame with a warning rather than
// failing: the peer owns that data and a stale renderer should not break the
// host session.
func (s *Scene) DumpFrame(timeout time.Duration) (*frame.Frame, error) {
	result, err := s.call("dump_frame", map[string]any{}, timeout)
	if err != nil {
		return nil, err
	}

	frameData, ok := result["frameData"].(map[string]any)
	if !ok {
		s.log.Warn("unexpected dump_frame reply shape, returning empty frame",
			"scene", s.name)
		return frame.New(), nil
	}

	out := frame.New()
	if blocks, ok := frameData["blocks"].(map[string]any); ok {
		for name, raw := range blocks {
			if b, ok := raw.(map[string]any); ok {
				out.Blocks[name] = frame.Block(b)
			}
		}
	}
	if meta, ok := frameData["metadata"].(map[string]any); ok {
		out.Metadata = meta
	}
	return out, nil
}

// Snapshot captures the current view as PNG bytes. The peer replies with a
// base64 payload, optionally carrying a data-URI prefix that is stripped
// before decoding.
func (s *Scene) Snapshot(timeout time.Duration) ([]byte, error) {
	result, err := s.call("take_snapshot", map[string]any{}, timeout)
	if err != nil {
		return nil, err
	}

	encoded, ok := result["data"].(string)
	if !ok {
		return nil, errors.Shapef(s.name, "take_snapshot",
			"reply missing image data payload")
	}
	if idx := strings.Index(encoded, ","); idx >= 0 {
		encoded = encoded[idx+1:]
	}

	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Shapef(s.name, "take_snapshot",
			"image payload is not valid base64: %v", err)
	}
	return img, nil
}

// FrameInfo retrieves peer-side statistics about the current frame. A
// malformed reply degrades to an empty map with a warning.
func (s *Scene) FrameInfo(timeout time.Duration) (map[string]any, error) {
	result, err := s.call("get_frame_info", map[string]any{}, timeout)
	if err != nil {
		return nil, err
	}
	if result == nil {
		s.log.Warn("unexpected get_frame_info reply shape, returning empty info",
			"scene", s.name)
		return map[string]any{}, nil
	}
	return result, nil
}

// countIn returns the length of the named column in a reply block, or 0
// when the column is absent or not a sequence.
func countIn(block map[string]any, key string) int {
	v, ok := block[key]
	if !ok || v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len()
	}
	return 0
}
