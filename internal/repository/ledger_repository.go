package repository

import (
	"context"

	"gorm.io/gorm"

	"ghost-backend/internal/models"
)

// LedgerRepository persists the append-only commitment sequence and
// the root history.
type LedgerRepository interface {
	AppendCommitment(ctx context.Context, rec *models.LedgerCommitment) error
	ListCommitments(ctx context.Context) ([]*models.LedgerCommitment, error)
	CommitmentCount(ctx context.Context) (int64, error)

	AppendRoot(ctx context.Context, rec *models.LedgerRoot) error
	ListRoots(ctx context.Context) ([]*models.LedgerRoot, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// AppendCommitment writes one commitment row.
func (r *ledgerRepository) AppendCommitment(ctx context.Context, rec *models.LedgerCommitment) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListCommitments returns all commitments in leaf-index order.
func (r *ledgerRepository) ListCommitments(ctx context.Context) ([]*models.LedgerCommitment, error) {
	var out []*models.LedgerCommitment
	err := r.db.WithContext(ctx).
		Order("leaf_index ASC").
		Find(&out).Error
	return out, err
}

// CommitmentCount returns the number of persisted commitments.
func (r *ledgerRepository) CommitmentCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.LedgerCommitment{}).Count(&n).Error
	return n, err
}

// AppendRoot writes one root row.
func (r *ledgerRepository) AppendRoot(ctx context.Context, rec *models.LedgerRoot) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListRoots returns all roots in submission order.
func (r *ledgerRepository) ListRoots(ctx context.Context) ([]*models.LedgerRoot, error) {
	var out []*models.LedgerRoot
	err := r.db.WithContext(ctx).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}
