package services

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/events"
	"ghost-backend/internal/metrics"
	"ghost-backend/internal/models"
	"ghost-backend/internal/repository"
	"ghost-backend/internal/types"
)

// RedemptionService exposes the ghost/redeem/redeemPartial state
// machine. The journal write order on redemption is deliberate:
// nullifier first, then balances and counters — after a crash the
// reload can at worst under-credit, never double-mint.
type RedemptionService struct {
	engine     *core.Engine
	ledgerRepo repository.LedgerRepository
	nullRepo   repository.NullifierRepository
	vaultRepo  repository.VaultRepository
	eventRepo  repository.EventRepository
	pub        *events.Publisher
	logger     *logrus.Logger
}

// NewRedemptionService creates a redemption service. Repositories and
// publisher may be nil.
func NewRedemptionService(
	engine *core.Engine,
	ledgerRepo repository.LedgerRepository,
	nullRepo repository.NullifierRepository,
	vaultRepo repository.VaultRepository,
	eventRepo repository.EventRepository,
	pub *events.Publisher,
	logger *logrus.Logger,
) *RedemptionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedemptionService{
		engine:     engine,
		ledgerRepo: ledgerRepo,
		nullRepo:   nullRepo,
		vaultRepo:  vaultRepo,
		eventRepo:  eventRepo,
		pub:        pub,
		logger:     logger,
	}
}

// Deposit credits transferable balance (owner-only bridge boundary).
func (s *RedemptionService) Deposit(ctx context.Context, caller types.Address, asset types.Hash, principal types.Address, amount *big.Int) error {
	if err := s.engine.Deposit(caller, asset, principal, amount); err != nil {
		return err
	}
	s.journalBalance(ctx, asset, principal)
	s.logger.WithFields(logrus.Fields{
		"principal": principal.Hex(),
		"asset":     asset.Hex(),
		"amount":    amount.String(),
	}).Info("balance deposited")
	return nil
}

// Ghost converts balance into a hidden claim and announces
// {caller, amount, commitment, leafIndex}.
func (s *RedemptionService) Ghost(ctx context.Context, caller types.Address, asset types.Hash, amount *big.Int, commitment types.Hash) (*core.GhostResult, error) {
	res, err := s.engine.Ghost(caller, asset, amount, commitment)
	if err != nil {
		metrics.RedemptionOps.WithLabelValues("ghost", "rejected").Inc()
		return nil, err
	}

	s.journalGhost(ctx, res)
	s.updateAccountingMetrics()
	metrics.LedgerInserts.WithLabelValues("ghost").Inc()
	metrics.LedgerLeafCount.Set(float64(s.engine.LeafCount()))
	metrics.RedemptionOps.WithLabelValues("ghost", "ok").Inc()

	s.pub.Ghosted(events.GhostedEvent{
		Caller:     res.Caller.Hex(),
		AssetID:    res.AssetID.Hex(),
		Amount:     res.Amount.String(),
		Commitment: res.Commitment.Hex(),
		LeafIndex:  res.LeafIndex,
		Timestamp:  time.Now(),
	})
	s.pub.CommitmentInserted(events.CommitmentInsertedEvent{
		Commitment: res.Commitment.Hex(),
		LeafIndex:  res.LeafIndex,
		AssetID:    res.AssetID.Hex(),
		Timestamp:  time.Now(),
	})

	s.logger.WithFields(logrus.Fields{
		"caller":     res.Caller.Hex(),
		"asset":      res.AssetID.Hex(),
		"amount":     res.Amount.String(),
		"leaf_index": res.LeafIndex,
	}).Info("value ghosted")

	return res, nil
}

// Redeem runs the full redemption gate and mints to the recipient.
// The submitter need not be the depositor or the recipient; relayed
// submissions are the point of the design.
func (s *RedemptionService) Redeem(ctx context.Context, caller types.Address, req types.RedeemRequest) (*core.RedeemResult, error) {
	start := time.Now()
	res, err := s.engine.Redeem(ctx, caller, req)
	metrics.RedemptionDuration.WithLabelValues("redeem").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RedemptionOps.WithLabelValues("redeem", types.ErrorCode(err)).Inc()
		return nil, err
	}

	s.journalRedeem(ctx, res)
	s.updateAccountingMetrics()
	metrics.RedemptionOps.WithLabelValues("redeem", "ok").Inc()

	s.publishRedeem(res)

	s.logger.WithFields(logrus.Fields{
		"caller":    res.Caller.Hex(),
		"recipient": res.Recipient.Hex(),
		"amount":    res.Amount.String(),
	}).Info("redemption completed")

	return res, nil
}

// RedeemPartial runs the partial redemption gate; a positive remainder
// becomes a fresh change commitment.
func (s *RedemptionService) RedeemPartial(ctx context.Context, caller types.Address, req types.RedeemPartialRequest) (*core.RedeemResult, error) {
	start := time.Now()
	res, err := s.engine.RedeemPartial(ctx, caller, req)
	metrics.RedemptionDuration.WithLabelValues("redeem_partial").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RedemptionOps.WithLabelValues("redeem_partial", types.ErrorCode(err)).Inc()
		return nil, err
	}

	s.journalRedeem(ctx, res)
	s.updateAccountingMetrics()
	metrics.RedemptionOps.WithLabelValues("redeem_partial", "ok").Inc()
	if res.NewLeafIndex != nil {
		metrics.LedgerInserts.WithLabelValues("change").Inc()
		metrics.LedgerLeafCount.Set(float64(s.engine.LeafCount()))
	}

	s.publishRedeem(res)

	fields := logrus.Fields{
		"caller":    res.Caller.Hex(),
		"recipient": res.Recipient.Hex(),
		"amount":    res.Amount.String(),
	}
	if res.NewLeafIndex != nil {
		fields["change_leaf_index"] = *res.NewLeafIndex
	}
	s.logger.WithFields(fields).Info("partial redemption completed")

	return res, nil
}

// Balance returns the principal's transferable balance for the asset.
func (s *RedemptionService) Balance(asset types.Hash, principal types.Address) *big.Int {
	return s.engine.Balance(asset, principal)
}

// Stats returns (totalGhosted, totalRedeemed, outstanding).
func (s *RedemptionService) Stats() (*big.Int, *big.Int, *big.Int) {
	return s.engine.Totals()
}

func (s *RedemptionService) publishRedeem(res *core.RedeemResult) {
	s.pub.NullifierSpent(events.NullifierSpentEvent{
		Nullifier: res.Nullifier.Hex(),
		Timestamp: time.Now(),
	})
	s.pub.Redeemed(events.RedeemedEvent{
		Kind:      res.Kind,
		Caller:    res.Caller.Hex(),
		Recipient: res.Recipient.Hex(),
		AssetID:   res.AssetID.Hex(),
		Amount:    res.Amount.String(),
		Timestamp: time.Now(),
	})
	if res.NewCommitment != nil && res.NewLeafIndex != nil {
		s.pub.CommitmentInserted(events.CommitmentInsertedEvent{
			Commitment: res.NewCommitment.Hex(),
			LeafIndex:  *res.NewLeafIndex,
			AssetID:    res.AssetID.Hex(),
			Timestamp:  time.Now(),
		})
	}
}

func (s *RedemptionService) journalGhost(ctx context.Context, res *core.GhostResult) {
	if s.ledgerRepo != nil {
		rec := &models.LedgerCommitment{
			LeafIndex:  res.LeafIndex,
			Commitment: res.Commitment.Hex(),
			AssetID:    res.AssetID.Hex(),
			Origin:     "ghost",
			CreatedAt:  time.Now(),
		}
		if err := s.ledgerRepo.AppendCommitment(ctx, rec); err != nil {
			s.logger.WithError(err).Error("failed to journal ghost commitment")
		}
	}
	s.journalBalance(ctx, res.AssetID, res.Caller)
	s.journalCounters(ctx)
	s.journalEvent(ctx, &models.RedemptionEvent{
		ID:         uuid.New().String(),
		Kind:       "ghost",
		Caller:     res.Caller.Hex(),
		AssetID:    res.AssetID.Hex(),
		Amount:     res.Amount.String(),
		Commitment: res.Commitment.Hex(),
		LeafIndex:  &res.LeafIndex,
		CreatedAt:  time.Now(),
	})
}

func (s *RedemptionService) journalRedeem(ctx context.Context, res *core.RedeemResult) {
	// Nullifier row first: it is the double-mint barrier after a crash.
	if s.nullRepo != nil {
		rec := &models.SpentNullifier{Nullifier: res.Nullifier.Hex(), SpentAt: time.Now()}
		if err := s.nullRepo.Mark(ctx, rec); err != nil {
			s.logger.WithError(err).Error("failed to journal nullifier")
		}
	}
	if res.NewCommitment != nil && res.NewLeafIndex != nil && s.ledgerRepo != nil {
		rec := &models.LedgerCommitment{
			LeafIndex:  *res.NewLeafIndex,
			Commitment: res.NewCommitment.Hex(),
			AssetID:    res.AssetID.Hex(),
			Origin:     "change",
			CreatedAt:  time.Now(),
		}
		if err := s.ledgerRepo.AppendCommitment(ctx, rec); err != nil {
			s.logger.WithError(err).Error("failed to journal change commitment")
		}
	}
	s.journalBalance(ctx, res.AssetID, res.Recipient)
	s.journalCounters(ctx)

	ev := &models.RedemptionEvent{
		ID:        uuid.New().String(),
		Kind:      res.Kind,
		Caller:    res.Caller.Hex(),
		Recipient: res.Recipient.Hex(),
		AssetID:   res.AssetID.Hex(),
		Amount:    res.Amount.String(),
		Nullifier: res.Nullifier.Hex(),
		CreatedAt: time.Now(),
	}
	if res.NewCommitment != nil {
		ev.NewCommitment = res.NewCommitment.Hex()
		ev.LeafIndex = res.NewLeafIndex
	}
	s.journalEvent(ctx, ev)
}

func (s *RedemptionService) journalBalance(ctx context.Context, asset types.Hash, principal types.Address) {
	if s.vaultRepo == nil {
		return
	}
	balance := s.engine.Balance(asset, principal)
	if err := s.vaultRepo.UpsertBalance(ctx, principal.Hex(), asset.Hex(), balance.String()); err != nil {
		s.logger.WithError(err).Error("failed to journal balance")
	}
}

func (s *RedemptionService) journalCounters(ctx context.Context) {
	if s.vaultRepo == nil {
		return
	}
	ghosted, redeemed, _ := s.engine.Totals()
	if err := s.vaultRepo.SaveCounters(ctx, ghosted.String(), redeemed.String()); err != nil {
		s.logger.WithError(err).Error("failed to journal counters")
	}
}

func (s *RedemptionService) journalEvent(ctx context.Context, ev *models.RedemptionEvent) {
	if s.eventRepo == nil {
		return
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.logger.WithError(err).Error("failed to journal redemption event")
	}
}

func (s *RedemptionService) updateAccountingMetrics() {
	ghosted, redeemed, outstanding := s.engine.Totals()
	g, _ := new(big.Float).SetInt(ghosted).Float64()
	r, _ := new(big.Float).SetInt(redeemed).Float64()
	o, _ := new(big.Float).SetInt(outstanding).Float64()
	metrics.TotalGhosted.Set(g)
	metrics.TotalRedeemed.Set(r)
	metrics.OutstandingValue.Set(o)
	metrics.NullifiersSpent.Set(float64(s.engine.SpentCount()))
}
