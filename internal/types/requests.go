package types

import "math/big"

// RedeemRequest carries the public arguments of a full redemption.
// MerklePath and PathIndices are forwarded to the proof system only;
// the ledger never inspects them.
type RedeemRequest struct {
	AssetID     Hash
	Amount      *big.Int
	Recipient   Address
	Nullifier   Hash
	Root        Hash
	MerklePath  []Hash
	PathIndices []uint32
	Proof       []byte
}

// RedeemPartialRequest carries the public arguments of a partial
// redemption. The remainder OriginalAmount-RedeemAmount, when positive,
// is carried forward as NewCommitment — a fresh, independently
// redeemable voucher.
type RedeemPartialRequest struct {
	AssetID        Hash
	RedeemAmount   *big.Int
	OriginalAmount *big.Int
	Recipient      Address
	OldNullifier   Hash
	NewCommitment  Hash
	Root           Hash
	MerklePath     []Hash
	PathIndices    []uint32
	Proof          []byte
}
