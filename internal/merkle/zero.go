package merkle

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"ghost-backend/internal/types"
)

// zeros[i] is the hash of an empty subtree of height i:
// zeros[0] = LeafHash(0), zeros[i] = NodeHash(zeros[i-1], zeros[i-1]).
// The table is computed once at package load; the ledger, the builder
// and the circuit all have to agree on it, so there is exactly one copy.
var zeros [types.TreeDepth]fr.Element

func init() {
	var zero fr.Element
	zeros[0] = LeafHash(zero)
	for i := 1; i < types.TreeDepth; i++ {
		zeros[i] = NodeHash(zeros[i-1], zeros[i-1])
	}
}

// Zero returns the empty-subtree hash at height i.
func Zero(i int) fr.Element {
	return zeros[i]
}

// EmptyRoot returns the root of a ledger with no commitments.
func EmptyRoot() types.Hash {
	return ToHash(NodeHash(zeros[types.TreeDepth-1], zeros[types.TreeDepth-1]))
}
