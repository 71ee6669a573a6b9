// Package voucher derives the client-side secrets behind a shielded
// commitment. The ledger core treats commitments and nullifiers as
// opaque; this derivation is the wallet-facing convention the proving
// circuit commits to.
package voucher

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"ghost-backend/internal/merkle"
	"ghost-backend/internal/types"
)

// Voucher is one redeemable note: the private opening (Secret, Rho)
// plus the public values bound into the commitment.
type Voucher struct {
	Secret  types.Hash
	Rho     types.Hash
	Amount  *big.Int
	AssetID types.Hash

	Nullifier  types.Hash
	Commitment types.Hash
}

// New draws fresh randomness and derives a voucher for amount of
// asset.
func New(amount *big.Int, assetID types.Hash) (*Voucher, error) {
	if amount == nil || amount.Sign() <= 0 || amount.BitLen() > 256 {
		return nil, types.ErrInvalidInput
	}
	if !merkle.ValidElement(assetID) {
		return nil, types.ErrInvalidInput
	}

	var secret, rho fr.Element
	if _, err := secret.SetRandom(); err != nil {
		return nil, err
	}
	if _, err := rho.SetRandom(); err != nil {
		return nil, err
	}

	return Derive(merkle.ToHash(secret), merkle.ToHash(rho), amount, assetID)
}

// Derive computes nullifier and commitment from a known opening.
//
//	nullifier  = MiMC(secret, rho)
//	commitment = MiMC(secret, nullifier, amount, assetId)
func Derive(secret, rho types.Hash, amount *big.Int, assetID types.Hash) (*Voucher, error) {
	if !merkle.ValidElement(secret) || !merkle.ValidElement(rho) || !merkle.ValidElement(assetID) {
		return nil, types.ErrInvalidInput
	}
	if amount == nil || amount.Sign() <= 0 || amount.BitLen() > 256 {
		return nil, types.ErrInvalidInput
	}

	nullifier := absorb(secret, rho)

	var amountEl fr.Element
	amountEl.SetBigInt(amount)
	commitment := absorb(secret, nullifier, merkle.ToHash(amountEl), assetID)

	return &Voucher{
		Secret:     secret,
		Rho:        rho,
		Amount:     new(big.Int).Set(amount),
		AssetID:    assetID,
		Nullifier:  nullifier,
		Commitment: commitment,
	}, nil
}

func absorb(inputs ...types.Hash) types.Hash {
	h := mimc.NewMiMC()
	for _, in := range inputs {
		el := merkle.ToElement(in)
		b := el.Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return merkle.ToHash(out)
}
