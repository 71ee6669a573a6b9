package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol constants shared by the ledger core, the tree builder and
// the voucher tooling. TreeDepth is fixed; every consumer of the zero
// table must agree on it or roots stop being comparable.
const (
	// TreeDepth is the depth of the commitment tree.
	TreeDepth = 20

	// Capacity is the maximum number of commitments one ledger can hold.
	Capacity = 1 << TreeDepth

	// RootHistorySize is the size of the bounded recency buffer of roots.
	// Membership in the known-root set is permanent and independent of
	// this buffer; the buffer only serves indexed lookups of recent roots.
	RootHistorySize = 30
)

// Hash is an opaque 256-bit protocol value: a commitment, a nullifier,
// a tree root or an asset identifier. Values are big-endian and must be
// canonical field elements of the proving curve's scalar field.
type Hash = common.Hash

// Address identifies a principal: a caller, a recipient or an
// allow-listed role holder.
type Address = common.Address

// ZeroHash is the reserved zero value. It is forbidden as a nullifier
// and used as the "no previous root" marker in events.
var ZeroHash = common.Hash{}

// ParseAmount parses a 256-bit unsigned decimal amount string.
// Returns ErrInvalidInput for malformed, negative or oversized values.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, ErrInvalidInput
	}
	return v, nil
}

// RedemptionInputs is the public-input tuple of a full redemption
// proof. Field order is contractual with the circuit and must never be
// reordered.
type RedemptionInputs struct {
	Root      Hash
	Nullifier Hash
	Amount    *big.Int
	AssetID   Hash
	Recipient Address
}

// PartialRedemptionInputs is the public-input tuple of a partial
// redemption proof. RedeemAmount appears twice because the circuit
// binds it both as the minted amount and as part of the change
// commitment opening; the duplication is part of the contract.
type PartialRedemptionInputs struct {
	Root           Hash
	OldNullifier   Hash
	RedeemAmount   *big.Int
	AssetID        Hash
	Recipient      Address
	OriginalAmount *big.Int
	NewCommitment  Hash
}
