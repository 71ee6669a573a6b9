package repository

import (
	"context"

	"gorm.io/gorm"

	"ghost-backend/internal/models"
)

// NullifierRepository persists spent nullifiers. Rows are only ever
// inserted; a nullifier row is never updated or removed.
type NullifierRepository interface {
	Mark(ctx context.Context, rec *models.SpentNullifier) error
	List(ctx context.Context) ([]*models.SpentNullifier, error)
	Count(ctx context.Context) (int64, error)
}

type nullifierRepository struct {
	db *gorm.DB
}

// NewNullifierRepository creates a new NullifierRepository instance.
func NewNullifierRepository(db *gorm.DB) NullifierRepository {
	return &nullifierRepository{db: db}
}

// Mark writes one spent-nullifier row.
func (r *nullifierRepository) Mark(ctx context.Context, rec *models.SpentNullifier) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// List returns all spent nullifiers.
func (r *nullifierRepository) List(ctx context.Context) ([]*models.SpentNullifier, error) {
	var out []*models.SpentNullifier
	err := r.db.WithContext(ctx).Find(&out).Error
	return out, err
}

// Count returns the number of spent nullifiers.
func (r *nullifierRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SpentNullifier{}).Count(&n).Error
	return n, err
}
