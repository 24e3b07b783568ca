package frame

import (
	"github.com/Roy-Kid/molvis/errors"
)

// Normalize converts a frame-like input into the canonical frame shape.
//
// The input must resolve to a nested mapping with a "blocks" entry containing
// an "atoms" block. The atoms block must expose either x, y, z columns of
// equal length or a packed xyz column of shape N×3; a packed column is
// expanded into x, y, z and removed. Any other block is passed through
// verbatim when it is a mapping and skipped silently otherwise. All failures
// are shape errors raised strictly before anything is sent on the wire.
func Normalize(src any) (*Frame, error) {
	const op = "Normalize"

	m, err := asMapping(src, op)
	if err != nil {
		return nil, err
	}

	rawBlocks, ok := m["blocks"]
	if !ok {
		return nil, errors.Shapef("Frame", op, "frame must contain a blocks entry")
	}
	blocks, ok := rawBlocks.(map[string]any)
	if !ok {
		return nil, errors.Shapef("Frame", op, "blocks must be a mapping, got %T", rawBlocks)
	}

	rawAtoms, ok := blocks["atoms"]
	if !ok {
		return nil, errors.Shapef("Frame", op, "frame must contain an atoms block")
	}
	atomsMap, ok := toBlock(rawAtoms)
	if !ok {
		return nil, errors.Shapef("Frame", op, "atoms block must be a mapping, got %T", rawAtoms)
	}

	atoms, err := normalizeAtomsBlock(atomsMap, op)
	if err != nil {
		return nil, err
	}

	out := New()
	out.Blocks["atoms"] = atoms
	for name, raw := range blocks {
		if name == "atoms" {
			continue
		}
		// Non-mapping blocks are skipped, not rejected.
		if b, ok := toBlock(raw); ok {
			out.Blocks[name] = b
		}
	}
	if meta, ok := m["metadata"].(map[string]any); ok {
		out.Metadata = meta
	}
	return out, nil
}

// normalizeAtomsBlock ensures coordinates are exposed as x, y, z columns,
// expanding a packed xyz column when needed.
func normalizeAtomsBlock(atoms Block, op string) (Block, error) {
	_, hasX := atoms["x"]
	_, hasY := atoms["y"]
	_, hasZ := atoms["z"]
	if hasX && hasY && hasZ {
		nx, ny, nz := seqLen(atoms["x"]), seqLen(atoms["y"]), seqLen(atoms["z"])
		if nx < 0 || ny < 0 || nz < 0 {
			return nil, errors.Shapef("Frame", op, "atom coordinate columns must be sequences")
		}
		if nx != ny || nx != nz {
			return nil, errors.Shapef("Frame", op,
				"atom coordinate columns must have equal length, got x=%d y=%d z=%d", nx, ny, nz)
		}
		return atoms, nil
	}

	rawXYZ, ok := atoms["xyz"]
	if !ok {
		return nil, errors.Shapef("Frame", op,
			"atoms block must contain x, y, z columns or a packed xyz column")
	}

	coords, err := toCoordMatrix(rawXYZ)
	if err != nil {
		return nil, errors.Shapef("Frame", op, "atoms xyz must be an N×3 numeric matrix: %v", err)
	}

	n, _ := coords.Dims()
	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = coords.At(i, 0)
		y[i] = coords.At(i, 1)
		z[i] = coords.At(i, 2)
	}

	out := make(Block, len(atoms)+2)
	for k, v := range atoms {
		if k == "xyz" {
			continue
		}
		out[k] = v
	}
	out["x"] = x
	out["y"] = y
	out["z"] = z
	return out, nil
}

func toBlock(raw any) (Block, bool) {
	switch b := raw.(type) {
	case Block:
		return b, true
	case map[string]any:
		return Block(b), true
	default:
		return nil, false
	}
}
