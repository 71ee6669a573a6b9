package core

import (
	"math/big"

	"ghost-backend/internal/types"
)

// Snapshot is the persisted protocol state loaded at boot. Roots are in
// submission order so the recency buffer and cursor rebuild exactly.
type Snapshot struct {
	Commitments   []types.Hash
	Roots         []types.Hash
	Nullifiers    []types.Hash
	Balances      map[types.Hash]map[types.Address]*big.Int
	TotalGhosted  *big.Int
	TotalRedeemed *big.Int
	Owner         types.Address
	Inserters     []types.Address
	Spenders      []types.Address
	Submitter     types.Address
}

// Restore replays a snapshot into a freshly constructed engine. Not an
// entry point: it bypasses authorization and must only run before the
// engine is serving.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger.restore(snap.Commitments, snap.Roots)
	e.nullifiers.restore(snap.Nullifiers)

	ghosted := snap.TotalGhosted
	if ghosted == nil {
		ghosted = new(big.Int)
	}
	redeemed := snap.TotalRedeemed
	if redeemed == nil {
		redeemed = new(big.Int)
	}
	e.vault.restore(snap.Balances, ghosted, redeemed)

	if snap.Owner != (types.Address{}) {
		e.access.owner = snap.Owner
	}
	for _, p := range snap.Inserters {
		e.access.grants[RoleInserter][p] = struct{}{}
	}
	for _, p := range snap.Spenders {
		e.access.grants[RoleSpender][p] = struct{}{}
	}
	e.access.submitter = snap.Submitter
}
