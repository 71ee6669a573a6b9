package core

import (
	"math/big"

	"ghost-backend/internal/types"
)

// Vault holds per-asset transferable balances and the protocol
// accounting counters. Ghosting debits a balance and bumps
// totalGhosted; redeeming credits a balance and bumps totalRedeemed.
// totalGhosted >= totalRedeemed holds at all times; the difference is
// the value bound in outstanding vouchers.
type Vault struct {
	balances      map[types.Hash]map[types.Address]*big.Int
	totalGhosted  *big.Int
	totalRedeemed *big.Int
}

// NewVault returns an empty vault.
func NewVault() *Vault {
	return &Vault{
		balances:      make(map[types.Hash]map[types.Address]*big.Int),
		totalGhosted:  new(big.Int),
		totalRedeemed: new(big.Int),
	}
}

// Balance returns a copy of the principal's balance for the asset.
func (v *Vault) Balance(asset types.Hash, principal types.Address) *big.Int {
	if m, ok := v.balances[asset]; ok {
		if b, ok := m[principal]; ok {
			return new(big.Int).Set(b)
		}
	}
	return new(big.Int)
}

// Credit adds amount to the principal's balance.
func (v *Vault) Credit(asset types.Hash, principal types.Address, amount *big.Int) {
	m, ok := v.balances[asset]
	if !ok {
		m = make(map[types.Address]*big.Int)
		v.balances[asset] = m
	}
	b, ok := m[principal]
	if !ok {
		b = new(big.Int)
		m[principal] = b
	}
	b.Add(b, amount)
}

// Debit removes amount from the principal's balance, failing if the
// balance does not cover it.
func (v *Vault) Debit(asset types.Hash, principal types.Address, amount *big.Int) error {
	m, ok := v.balances[asset]
	if !ok {
		return types.ErrInsufficientBalance
	}
	b, ok := m[principal]
	if !ok || b.Cmp(amount) < 0 {
		return types.ErrInsufficientBalance
	}
	b.Sub(b, amount)
	return nil
}

// AddGhosted bumps totalGhosted.
func (v *Vault) AddGhosted(amount *big.Int) {
	v.totalGhosted.Add(v.totalGhosted, amount)
}

// AddRedeemed bumps totalRedeemed, refusing to cross totalGhosted.
// A sound proof system never trips this; it is the accounting backstop.
func (v *Vault) AddRedeemed(amount *big.Int) error {
	next := new(big.Int).Add(v.totalRedeemed, amount)
	if next.Cmp(v.totalGhosted) > 0 {
		return types.ErrAmountInvariant
	}
	v.totalRedeemed = next
	return nil
}

// Totals returns copies of (totalGhosted, totalRedeemed).
func (v *Vault) Totals() (*big.Int, *big.Int) {
	return new(big.Int).Set(v.totalGhosted), new(big.Int).Set(v.totalRedeemed)
}

// Outstanding returns totalGhosted - totalRedeemed, the value bound in
// unredeemed vouchers.
func (v *Vault) Outstanding() *big.Int {
	return new(big.Int).Sub(v.totalGhosted, v.totalRedeemed)
}

func (v *Vault) restore(balances map[types.Hash]map[types.Address]*big.Int, ghosted, redeemed *big.Int) {
	for asset, m := range balances {
		for principal, b := range m {
			v.Credit(asset, principal, b)
		}
	}
	v.totalGhosted.Set(ghosted)
	v.totalRedeemed.Set(redeemed)
}
