package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/repository"
	"ghost-backend/internal/types"
)

// Reload rebuilds the in-memory engine from the persisted journal.
// Called once at boot, before the engine starts serving.
func Reload(
	ctx context.Context,
	engine *core.Engine,
	ledgerRepo repository.LedgerRepository,
	nullRepo repository.NullifierRepository,
	vaultRepo repository.VaultRepository,
	principalRepo repository.PrincipalRepository,
	logger *logrus.Logger,
) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var snap core.Snapshot

	commitments, err := ledgerRepo.ListCommitments(ctx)
	if err != nil {
		return fmt.Errorf("load commitments: %w", err)
	}
	for i, rec := range commitments {
		if rec.LeafIndex != uint64(i) {
			return fmt.Errorf("commitment journal has a gap at leaf %d", i)
		}
		snap.Commitments = append(snap.Commitments, common.HexToHash(rec.Commitment))
	}

	roots, err := ledgerRepo.ListRoots(ctx)
	if err != nil {
		return fmt.Errorf("load roots: %w", err)
	}
	for _, rec := range roots {
		snap.Roots = append(snap.Roots, common.HexToHash(rec.Root))
	}

	nullifiers, err := nullRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load nullifiers: %w", err)
	}
	for _, rec := range nullifiers {
		snap.Nullifiers = append(snap.Nullifiers, common.HexToHash(rec.Nullifier))
	}

	balances, err := vaultRepo.ListBalances(ctx)
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	snap.Balances = make(map[types.Hash]map[types.Address]*big.Int)
	for _, rec := range balances {
		asset := common.HexToHash(rec.AssetID)
		principal := common.HexToAddress(rec.Principal)
		v, ok := new(big.Int).SetString(rec.Balance, 10)
		if !ok {
			return fmt.Errorf("malformed balance for %s/%s", rec.Principal, rec.AssetID)
		}
		if snap.Balances[asset] == nil {
			snap.Balances[asset] = make(map[types.Address]*big.Int)
		}
		snap.Balances[asset][principal] = v
	}

	counters, err := vaultRepo.GetCounters(ctx)
	if err != nil {
		return fmt.Errorf("load counters: %w", err)
	}
	if counters != nil {
		g, ok := new(big.Int).SetString(counters.TotalGhosted, 10)
		if !ok {
			return fmt.Errorf("malformed totalGhosted counter")
		}
		r, ok := new(big.Int).SetString(counters.TotalRedeemed, 10)
		if !ok {
			return fmt.Errorf("malformed totalRedeemed counter")
		}
		if g.Cmp(r) < 0 {
			return fmt.Errorf("persisted counters violate totalGhosted >= totalRedeemed")
		}
		snap.TotalGhosted, snap.TotalRedeemed = g, r
	}

	principals, err := principalRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load principals: %w", err)
	}
	for _, rec := range principals {
		addr := common.HexToAddress(rec.Address)
		switch core.Role(rec.Role) {
		case core.RoleOwner:
			snap.Owner = addr
		case core.RoleInserter:
			snap.Inserters = append(snap.Inserters, addr)
		case core.RoleSpender:
			snap.Spenders = append(snap.Spenders, addr)
		case core.RoleSubmitter:
			snap.Submitter = addr
		default:
			logger.WithField("role", rec.Role).Warn("skipping unknown persisted role")
		}
	}

	engine.Restore(snap)

	logger.WithFields(logrus.Fields{
		"commitments": len(snap.Commitments),
		"roots":       len(snap.Roots),
		"nullifiers":  len(snap.Nullifiers),
	}).Info("protocol state reloaded")

	return nil
}
