package merkle

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"ghost-backend/internal/types"
)

func hashNum(i uint64) types.Hash {
	var e fr.Element
	e.SetUint64(i)
	return ToHash(e)
}

func TestZeroTable(t *testing.T) {
	var zero fr.Element
	require.Equal(t, LeafHash(zero), Zero(0))
	for i := 1; i < types.TreeDepth; i++ {
		require.Equal(t, NodeHash(Zero(i-1), Zero(i-1)), Zero(i), "height %d", i)
	}
	require.Equal(t, ToHash(NodeHash(Zero(types.TreeDepth-1), Zero(types.TreeDepth-1))), EmptyRoot())
}

func TestDomainSeparation(t *testing.T) {
	v := ToElement(hashNum(7))
	require.NotEqual(t, LeafHash(v), NodeHash(v, v))

	// A leaf hash must never equal the raw two-input hash of the same
	// value pair, or leaves could be forged from internal nodes.
	require.NotEqual(t, LeafHash(v), Hash2(v, v))
	require.NotEqual(t, LeafHash(ToElement(hashNum(1))), LeafHash(ToElement(hashNum(2))))
}

func TestHash2Deterministic(t *testing.T) {
	a, b := ToElement(hashNum(3)), ToElement(hashNum(4))
	require.Equal(t, Hash2(a, b), Hash2(a, b))
	require.NotEqual(t, Hash2(a, b), Hash2(b, a))
}

func TestValidElement(t *testing.T) {
	require.True(t, ValidElement(types.Hash{}))
	require.True(t, ValidElement(hashNum(42)))

	var overflow types.Hash
	for i := range overflow {
		overflow[i] = 0xff
	}
	require.False(t, ValidElement(overflow))

	// The modulus itself is the smallest non-canonical value.
	mod := types.Hash{}
	fr.Modulus().FillBytes(mod[:])
	require.False(t, ValidElement(mod))
}

func TestBuildRootEmpty(t *testing.T) {
	root, err := BuildRoot(nil)
	require.NoError(t, err)
	require.Equal(t, EmptyRoot(), root)
}

func TestBuildRootDeterministic(t *testing.T) {
	leaves := []types.Hash{hashNum(1), hashNum(2), hashNum(3)}

	r1, err := BuildRoot(leaves)
	require.NoError(t, err)
	r2, err := BuildRoot(leaves)
	require.NoError(t, err)
	require.Equal(t, r1, r2)

	swapped := []types.Hash{hashNum(2), hashNum(1), hashNum(3)}
	r3, err := BuildRoot(swapped)
	require.NoError(t, err)
	require.NotEqual(t, r1, r3, "leaf order must be significant")
}

func TestBuildRootGrowsWithLedger(t *testing.T) {
	var leaves []types.Hash
	seen := make(map[types.Hash]bool)
	for i := uint64(1); i <= 8; i++ {
		leaves = append(leaves, hashNum(i))
		root, err := BuildRoot(leaves)
		require.NoError(t, err)
		require.False(t, seen[root], "every append must change the root")
		seen[root] = true
	}
}

func TestBuildRootRejectsNonCanonical(t *testing.T) {
	var bad types.Hash
	for i := range bad {
		bad[i] = 0xff
	}
	_, err := BuildRoot([]types.Hash{bad})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

// foldPath recomputes the root from a leaf and its authentication
// path, the way the proving circuit does.
func foldPath(leaf types.Hash, path []types.Hash, bits []uint32) types.Hash {
	node := LeafHash(ToElement(leaf))
	for h := 0; h < len(path); h++ {
		sibling := ToElement(path[h])
		if bits[h] == 0 {
			node = NodeHash(node, sibling)
		} else {
			node = NodeHash(sibling, node)
		}
	}
	return ToHash(node)
}

func TestProofPathRecomputesRoot(t *testing.T) {
	leaves := []types.Hash{hashNum(10), hashNum(20), hashNum(30), hashNum(40), hashNum(50)}
	root, err := BuildRoot(leaves)
	require.NoError(t, err)

	for index := range leaves {
		path, bits, err := ProofPath(leaves, uint64(index))
		require.NoError(t, err)
		require.Len(t, path, types.TreeDepth)
		require.Len(t, bits, types.TreeDepth)
		require.Equal(t, root, foldPath(leaves[index], path, bits), "leaf %d", index)
	}
}

func TestProofPathSingleLeaf(t *testing.T) {
	leaves := []types.Hash{hashNum(99)}
	root, err := BuildRoot(leaves)
	require.NoError(t, err)

	path, bits, err := ProofPath(leaves, 0)
	require.NoError(t, err)
	require.Equal(t, root, foldPath(leaves[0], path, bits))

	// Every sibling of a lone leaf is an empty subtree.
	for h, p := range path {
		require.Equal(t, ToHash(Zero(h)), p, "height %d", h)
	}
}

func TestProofPathOutOfRange(t *testing.T) {
	_, _, err := ProofPath([]types.Hash{hashNum(1)}, 1)
	require.ErrorIs(t, err, types.ErrOutOfRange)

	_, _, err = ProofPath(nil, 0)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}
