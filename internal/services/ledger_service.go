// Package services wires the protocol core to persistence, eventing
// and metrics. The in-memory engine is authoritative while serving;
// each service journals committed effects to the database and fans out
// the public notifications. Journal failures are logged, never rolled
// back into the core — the database catches up from the audit trail,
// it does not gate the protocol.
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/events"
	"ghost-backend/internal/merkle"
	"ghost-backend/internal/metrics"
	"ghost-backend/internal/models"
	"ghost-backend/internal/repository"
	"ghost-backend/internal/types"
)

// LedgerService exposes the commitment ledger operations.
type LedgerService struct {
	engine *core.Engine
	repo   repository.LedgerRepository
	pub    *events.Publisher
	logger *logrus.Logger
}

// NewLedgerService creates a ledger service. repo and pub may be nil
// (tests, journal-less runs).
func NewLedgerService(engine *core.Engine, repo repository.LedgerRepository, pub *events.Publisher, logger *logrus.Logger) *LedgerService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LedgerService{engine: engine, repo: repo, pub: pub, logger: logger}
}

// Insert appends a commitment for an allow-listed inserter and
// announces {commitment, leafIndex}.
func (s *LedgerService) Insert(ctx context.Context, caller types.Address, commitment types.Hash) (uint64, error) {
	leafIndex, err := s.engine.InsertCommitment(caller, commitment)
	if err != nil {
		return 0, err
	}

	s.journalCommitment(ctx, leafIndex, commitment, types.Hash{}, "insert")
	metrics.LedgerInserts.WithLabelValues("insert").Inc()
	metrics.LedgerLeafCount.Set(float64(s.engine.LeafCount()))

	s.pub.CommitmentInserted(events.CommitmentInsertedEvent{
		Commitment: commitment.Hex(),
		LeafIndex:  leafIndex,
		Timestamp:  time.Now(),
	})

	s.logger.WithFields(logrus.Fields{
		"caller":     caller.Hex(),
		"commitment": commitment.Hex(),
		"leaf_index": leafIndex,
	}).Info("commitment inserted")

	return leafIndex, nil
}

// SubmitRoot activates a root for the current ledger length.
func (s *LedgerService) SubmitRoot(ctx context.Context, caller types.Address, newRoot types.Hash, leafCount uint64) error {
	oldRoot, err := s.engine.SubmitRoot(caller, newRoot, leafCount)
	if err != nil {
		return err
	}

	s.journalRoot(ctx, newRoot, leafCount)
	metrics.LedgerRootsSubmitted.Inc()

	s.pub.RootUpdated(events.RootUpdatedEvent{
		OldRoot:   oldRoot.Hex(),
		NewRoot:   newRoot.Hex(),
		LeafCount: leafCount,
		Timestamp: time.Now(),
	})

	s.logger.WithFields(logrus.Fields{
		"caller":     caller.Hex(),
		"old_root":   oldRoot.Hex(),
		"new_root":   newRoot.Hex(),
		"leaf_count": leafCount,
	}).Info("root submitted")

	return nil
}

// InsertAndUpdateRoot is the trusted relayer fast path.
func (s *LedgerService) InsertAndUpdateRoot(ctx context.Context, caller types.Address, commitment, newRoot types.Hash) (uint64, error) {
	leafIndex, oldRoot, err := s.engine.InsertAndUpdateRoot(caller, commitment, newRoot)
	if err != nil {
		return 0, err
	}

	s.journalCommitment(ctx, leafIndex, commitment, types.Hash{}, "insert")
	s.journalRoot(ctx, newRoot, leafIndex+1)
	metrics.LedgerInserts.WithLabelValues("insert").Inc()
	metrics.LedgerRootsSubmitted.Inc()
	metrics.LedgerLeafCount.Set(float64(s.engine.LeafCount()))

	s.pub.CommitmentInserted(events.CommitmentInsertedEvent{
		Commitment: commitment.Hex(),
		LeafIndex:  leafIndex,
		Timestamp:  time.Now(),
	})
	s.pub.RootUpdated(events.RootUpdatedEvent{
		OldRoot:   oldRoot.Hex(),
		NewRoot:   newRoot.Hex(),
		LeafCount: leafIndex + 1,
		Timestamp: time.Now(),
	})

	return leafIndex, nil
}

// Root returns the active root.
func (s *LedgerService) Root() types.Hash {
	return s.engine.Root()
}

// IsKnownRoot reports permanent known-root membership.
func (s *LedgerService) IsKnownRoot(root types.Hash) bool {
	return s.engine.IsKnownRoot(root)
}

// HistoricalRoot reads the recency buffer at i (wrapping).
func (s *LedgerService) HistoricalRoot(i uint64) types.Hash {
	return s.engine.HistoricalRoot(i)
}

// LeafCount returns the ledger length.
func (s *LedgerService) LeafCount() uint64 {
	return s.engine.LeafCount()
}

// NextLeafIndex returns the next insert's index.
func (s *LedgerService) NextLeafIndex() uint64 {
	return s.engine.NextLeafIndex()
}

// Commitment reads one commitment by index.
func (s *LedgerService) Commitment(i uint64) (types.Hash, error) {
	return s.engine.Commitment(i)
}

// Commitments reads a bounded range of commitments.
func (s *LedgerService) Commitments(start, count uint64) ([]types.Hash, error) {
	return s.engine.Commitments(start, count)
}

// ProofPath computes the Merkle path for a leaf from the full replayed
// sequence. Wallet convenience; the ledger itself never checks paths.
func (s *LedgerService) ProofPath(index uint64) ([]types.Hash, []uint32, error) {
	leaves, err := s.replay(s.engine.LeafCount())
	if err != nil {
		return nil, nil, err
	}
	return merkle.ProofPath(leaves, index)
}

// replay pages through the bounded range reads to collect the first n
// commitments. A single read clamps at core.MaxRangeRead, so anything
// replaying the full sequence must go through here.
func (s *LedgerService) replay(n uint64) ([]types.Hash, error) {
	leaves := make([]types.Hash, 0, n)
	for start := uint64(0); start < n; {
		page, err := s.engine.Commitments(start, n-start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		leaves = append(leaves, page...)
		start += uint64(len(page))
	}
	if uint64(len(leaves)) > n {
		leaves = leaves[:n]
	}
	return leaves, nil
}

func (s *LedgerService) journalCommitment(ctx context.Context, leafIndex uint64, commitment, assetID types.Hash, origin string) {
	if s.repo == nil {
		return
	}
	rec := &models.LedgerCommitment{
		LeafIndex:  leafIndex,
		Commitment: commitment.Hex(),
		Origin:     origin,
		CreatedAt:  time.Now(),
	}
	if assetID != (types.Hash{}) {
		rec.AssetID = assetID.Hex()
	}
	if err := s.repo.AppendCommitment(ctx, rec); err != nil {
		s.logger.WithFields(logrus.Fields{
			"leaf_index": leafIndex,
			"error":      err.Error(),
		}).Error("failed to journal commitment")
	}
}

func (s *LedgerService) journalRoot(ctx context.Context, root types.Hash, leafCount uint64) {
	if s.repo == nil {
		return
	}
	rec := &models.LedgerRoot{
		Root:      root.Hex(),
		LeafCount: leafCount,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AppendRoot(ctx, rec); err != nil {
		s.logger.WithFields(logrus.Fields{
			"root":  root.Hex(),
			"error": err.Error(),
		}).Error("failed to journal root")
	}
}
