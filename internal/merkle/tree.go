package merkle

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"ghost-backend/internal/types"
)

// BuildRoot deterministically folds an ordered commitment sequence into
// a root. It is pure and stateless: any two parties given the same
// sequence compute the same root, which is what makes the root
// submitter trusted only for timeliness. Unpopulated siblings come from
// the zero table.
func BuildRoot(commitments []types.Hash) (types.Hash, error) {
	if len(commitments) > types.Capacity {
		return types.Hash{}, types.ErrCapacityExceeded
	}

	// Level 0 holds leaf hashes keyed by leaf index; each fold halves
	// the indices. Only populated nodes are stored.
	level := make(map[uint64]fr.Element, len(commitments))
	for i, c := range commitments {
		if !ValidElement(c) {
			return types.Hash{}, types.ErrInvalidInput
		}
		level[uint64(i)] = LeafHash(ToElement(c))
	}

	for height := 0; height < types.TreeDepth; height++ {
		next := make(map[uint64]fr.Element, (len(level)+1)/2)
		for idx, node := range level {
			parent := idx / 2
			if _, done := next[parent]; done {
				continue
			}
			var l, r fr.Element
			if idx%2 == 0 {
				l = node
				r = siblingOr(level, idx+1, height)
			} else {
				l = siblingOr(level, idx-1, height)
				r = node
			}
			next[parent] = NodeHash(l, r)
		}
		level = next
	}

	if len(level) == 0 {
		return EmptyRoot(), nil
	}
	return ToHash(level[0]), nil
}

func siblingOr(level map[uint64]fr.Element, idx uint64, height int) fr.Element {
	if n, ok := level[idx]; ok {
		return n
	}
	return Zero(height)
}

// ProofPath computes the Merkle authentication path for the leaf at
// index: the sibling hash at each height plus the path bit (0 = leaf's
// node is the left child). The ledger never checks such paths itself;
// this exists so wallets can feed the proof system.
func ProofPath(commitments []types.Hash, index uint64) ([]types.Hash, []uint32, error) {
	if index >= uint64(len(commitments)) {
		return nil, nil, types.ErrOutOfRange
	}

	level := make(map[uint64]fr.Element, len(commitments))
	for i, c := range commitments {
		if !ValidElement(c) {
			return nil, nil, types.ErrInvalidInput
		}
		level[uint64(i)] = LeafHash(ToElement(c))
	}

	path := make([]types.Hash, types.TreeDepth)
	bits := make([]uint32, types.TreeDepth)
	pos := index

	for height := 0; height < types.TreeDepth; height++ {
		sibling := pos ^ 1
		path[height] = ToHash(siblingOr(level, sibling, height))
		bits[height] = uint32(pos % 2)

		next := make(map[uint64]fr.Element, (len(level)+1)/2)
		for idx, node := range level {
			parent := idx / 2
			if _, done := next[parent]; done {
				continue
			}
			var l, r fr.Element
			if idx%2 == 0 {
				l = node
				r = siblingOr(level, idx+1, height)
			} else {
				l = siblingOr(level, idx-1, height)
				r = node
			}
			next[parent] = NodeHash(l, r)
		}
		level = next
		pos /= 2
	}

	return path, bits, nil
}
