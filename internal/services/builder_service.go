package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ghost-backend/internal/merkle"
	"ghost-backend/internal/metrics"
	"ghost-backend/internal/types"
)

// BuilderService is the off-chain tree builder running in-process as
// the privileged root submitter. Each round it replays the full
// commitment sequence through the ledger's range-read interface, folds
// it into a root and submits {root, leafCount}. The builder is trusted
// for timeliness only: a correct root is reproducible by anyone from
// the same sequence, and an incorrect one would never match a
// verifier's independent replay.
type BuilderService struct {
	ledger   *LedgerService
	address  types.Address
	interval time.Duration
	logger   *logrus.Logger

	lastSubmitted uint64
	haveSubmitted bool
}

// NewBuilderService creates a builder submitting as address.
func NewBuilderService(ledger *LedgerService, address types.Address, interval time.Duration, logger *logrus.Logger) *BuilderService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &BuilderService{
		ledger:   ledger,
		address:  address,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until ctx is cancelled.
func (b *BuilderService) Run(ctx context.Context) {
	b.logger.WithFields(logrus.Fields{
		"submitter": b.address.Hex(),
		"interval":  b.interval.String(),
	}).Info("tree builder started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("tree builder stopped")
			return
		case <-ticker.C:
			if err := b.RunOnce(ctx); err != nil {
				b.logger.WithError(err).Warn("builder round failed")
			}
		}
	}
}

// RunOnce performs one replay-and-submit round. Submitting a root for
// an unchanged ledger is skipped; a DuplicateSubmission race with
// another submitter is treated as benign.
func (b *BuilderService) RunOnce(ctx context.Context) error {
	n := b.ledger.LeafCount()
	if b.haveSubmitted && n == b.lastSubmitted {
		metrics.BuilderLag.Set(0)
		metrics.BuilderRounds.WithLabelValues("noop").Inc()
		return nil
	}
	metrics.BuilderLag.Set(float64(n - b.lastSubmitted))

	leaves, err := b.ledger.replay(n)
	if err != nil {
		metrics.BuilderRounds.WithLabelValues("error").Inc()
		return err
	}

	root, err := merkle.BuildRoot(leaves)
	if err != nil {
		metrics.BuilderRounds.WithLabelValues("error").Inc()
		return err
	}

	err = b.ledger.SubmitRoot(ctx, b.address, root, n)
	switch {
	case err == nil:
		b.lastSubmitted = n
		b.haveSubmitted = true
		metrics.BuilderRounds.WithLabelValues("submitted").Inc()
		metrics.BuilderLag.Set(0)
		b.logger.WithFields(logrus.Fields{
			"root":       root.Hex(),
			"leaf_count": n,
		}).Info("builder submitted root")
		return nil
	case errors.Is(err, types.ErrDuplicateSubmission):
		b.lastSubmitted = n
		b.haveSubmitted = true
		metrics.BuilderRounds.WithLabelValues("noop").Inc()
		return nil
	case errors.Is(err, types.ErrStaleState):
		// New leaves landed between replay and submit; next round wins.
		metrics.BuilderRounds.WithLabelValues("stale").Inc()
		return nil
	default:
		metrics.BuilderRounds.WithLabelValues("error").Inc()
		return err
	}
}
