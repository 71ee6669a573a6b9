package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/events"
	"ghost-backend/internal/metrics"
	"ghost-backend/internal/models"
	"ghost-backend/internal/repository"
	"ghost-backend/internal/types"
)

// NullifierService exposes the nullifier registry operations.
type NullifierService struct {
	engine *core.Engine
	repo   repository.NullifierRepository
	pub    *events.Publisher
	logger *logrus.Logger
}

// NewNullifierService creates a nullifier service. repo and pub may be
// nil.
func NewNullifierService(engine *core.Engine, repo repository.NullifierRepository, pub *events.Publisher, logger *logrus.Logger) *NullifierService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NullifierService{engine: engine, repo: repo, pub: pub, logger: logger}
}

// IsSpent reports whether n has been marked.
func (s *NullifierService) IsSpent(n types.Hash) bool {
	return s.engine.IsSpent(n)
}

// BatchIsSpent returns per-element spent flags.
func (s *NullifierService) BatchIsSpent(ns []types.Hash) []bool {
	return s.engine.BatchIsSpent(ns)
}

// SpentCount returns the monotone spent counter.
func (s *NullifierService) SpentCount() uint64 {
	return s.engine.SpentCount()
}

// MarkSpent marks n for an allow-listed spender. External asset
// instances sharing this registry go through here; redemptions mark
// internally via the coordinator.
func (s *NullifierService) MarkSpent(ctx context.Context, caller types.Address, n types.Hash) error {
	if err := s.engine.MarkSpent(caller, n); err != nil {
		return err
	}

	s.journal(ctx, n)
	metrics.NullifiersSpent.Set(float64(s.engine.SpentCount()))

	s.pub.NullifierSpent(events.NullifierSpentEvent{
		Nullifier: n.Hex(),
		Timestamp: time.Now(),
	})

	s.logger.WithFields(logrus.Fields{
		"caller":    caller.Hex(),
		"nullifier": n.Hex(),
	}).Info("nullifier marked spent")

	return nil
}

func (s *NullifierService) journal(ctx context.Context, n types.Hash) {
	if s.repo == nil {
		return
	}
	rec := &models.SpentNullifier{Nullifier: n.Hex(), SpentAt: time.Now()}
	if err := s.repo.Mark(ctx, rec); err != nil {
		s.logger.WithFields(logrus.Fields{
			"nullifier": n.Hex(),
			"error":     err.Error(),
		}).Error("failed to journal nullifier")
	}
}
