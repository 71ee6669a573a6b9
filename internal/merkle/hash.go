// Package merkle holds the hash and tree primitives shared by the
// commitment ledger, the off-chain tree builder and the voucher
// tooling. All hashing is MiMC over the BN254 scalar field; leaves and
// internal nodes are domain separated so one can never be confused for
// the other.
package merkle

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"ghost-backend/internal/types"
)

// Domain tags. A leaf is H(0, v); a node is H(H(1, l), r). The leading
// tag is what keeps leaf hashes and node hashes in disjoint ranges.
var (
	tagLeaf fr.Element // 0
	tagNode fr.Element // 1
)

func init() {
	tagNode.SetOne()
}

// Hash2 computes the two-input protocol hash H(a, b).
func Hash2(a, b fr.Element) fr.Element {
	h := mimc.NewMiMC()
	ab := a.Bytes()
	bb := b.Bytes()
	h.Write(ab[:])
	h.Write(bb[:])
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// LeafHash computes H(0, v), the hash of a single commitment leaf.
func LeafHash(v fr.Element) fr.Element {
	return Hash2(tagLeaf, v)
}

// NodeHash computes H(H(1, l), r), the hash of an internal node.
func NodeHash(l, r fr.Element) fr.Element {
	return Hash2(Hash2(tagNode, l), r)
}

// ValidElement reports whether h is a canonical field element. Callers
// must reject non-canonical 256-bit values at the boundary; silently
// reducing them would let two distinct wire values alias one leaf.
func ValidElement(h types.Hash) bool {
	v := new(big.Int).SetBytes(h[:])
	return v.Cmp(fr.Modulus()) < 0
}

// ToElement converts a canonical 256-bit value to a field element.
func ToElement(h types.Hash) fr.Element {
	var e fr.Element
	e.SetBytes(h[:])
	return e
}

// ToHash converts a field element back to its 256-bit wire form.
func ToHash(e fr.Element) types.Hash {
	return types.Hash(e.Bytes())
}
