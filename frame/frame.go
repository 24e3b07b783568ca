// Package frame converts host-side molecular objects into the canonical
// nested-mapping wire shape and validates them before anything touches the
// transport. The canonical shape is a set of named blocks of equal-length
// columns, with a mandatory atoms block exposing x, y and z coordinates.
//
// The package depends only on capability interfaces: anything that can
// convert itself to a nested mapping can be drawn. Concrete molecular-data
// types never appear here.
package frame

import (
	"github.com/Roy-Kid/molvis/errors"
)

// Block is one named set of equal-length columns, e.g. the atoms block with
// x, y, z, element columns.
type Block map[string]any

// Frame is the canonical wire representation of molecular data
type Frame struct {
	Blocks   map[string]Block
	Metadata map[string]any
}

// New returns an empty canonical frame
func New() *Frame {
	return &Frame{Blocks: map[string]Block{}}
}

// Data returns the frame as the nested mapping sent on the wire
func (f *Frame) Data() map[string]any {
	blocks := make(map[string]any, len(f.Blocks))
	for name, b := range f.Blocks {
		blocks[name] = map[string]any(b)
	}
	data := map[string]any{"blocks": blocks}
	if len(f.Metadata) > 0 {
		data["metadata"] = f.Metadata
	}
	return data
}

// Empty reports whether the frame carries no blocks
func (f *Frame) Empty() bool {
	return len(f.Blocks) == 0
}

// AtomCount returns the number of atoms, taken from the length of the x
// column of the atoms block, or 0 if there is none.
func (f *Frame) AtomCount() int {
	atoms, ok := f.Blocks["atoms"]
	if !ok {
		return 0
	}
	if n := seqLen(atoms["x"]); n >= 0 {
		return n
	}
	return 0
}

// Convertible is the capability a frame-like object must implement: a
// conversion to a nested mapping with a "blocks" entry containing "atoms".
type Convertible interface {
	FrameData() (map[string]any, error)
}

// BoxConvertible is the capability a box-like object must implement: a
// conversion to a mapping with matrix, pbc and origin fields.
type BoxConvertible interface {
	BoxData() (map[string]any, error)
}

// AtomLike is the capability an atom-like object must implement: keyed field
// access reporting presence. Plain map[string]any values are accepted
// everywhere AtomLike is.
type AtomLike interface {
	Get(key string) (any, bool)
}

// asMapping resolves a frame-like input to its nested mapping form
func asMapping(src any, op string) (map[string]any, error) {
	switch v := src.(type) {
	case nil:
		return nil, errors.Shapef("Frame", op, "input cannot be nil")
	case *Frame:
		return v.Data(), nil
	case Frame:
		return v.Data(), nil
	case map[string]any:
		return v, nil
	case Convertible:
		m, err := v.FrameData()
		if err != nil {
			return nil, errors.Shapef("Frame", op, "conversion failed: %v", err)
		}
		if m == nil {
			return nil, errors.Shapef("Frame", op, "conversion yielded no mapping")
		}
		return m, nil
	default:
		return nil, errors.Shapef("Frame", op, "cannot convert %T to a nested mapping", src)
	}
}
