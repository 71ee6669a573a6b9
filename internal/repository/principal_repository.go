package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ghost-backend/internal/models"
)

// PrincipalRepository persists the authorization state: owner,
// allow-lists and the root submitter.
type PrincipalRepository interface {
	Upsert(ctx context.Context, address, role string) error
	Delete(ctx context.Context, address, role string) error
	DeleteRole(ctx context.Context, role string) error
	List(ctx context.Context) ([]*models.Principal, error)
}

type principalRepository struct {
	db *gorm.DB
}

// NewPrincipalRepository creates a new PrincipalRepository instance.
func NewPrincipalRepository(db *gorm.DB) PrincipalRepository {
	return &principalRepository{db: db}
}

// Upsert writes one grant row.
func (r *principalRepository) Upsert(ctx context.Context, address, role string) error {
	rec := &models.Principal{Address: address, Role: role, CreatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
}

// Delete removes one grant row.
func (r *principalRepository) Delete(ctx context.Context, address, role string) error {
	return r.db.WithContext(ctx).
		Where("address = ? AND role = ?", address, role).
		Delete(&models.Principal{}).Error
}

// DeleteRole removes every grant of a role. Used when the single
// submitter or the owner is replaced.
func (r *principalRepository) DeleteRole(ctx context.Context, role string) error {
	return r.db.WithContext(ctx).
		Where("role = ?", role).
		Delete(&models.Principal{}).Error
}

// List returns all grants.
func (r *principalRepository) List(ctx context.Context) ([]*models.Principal, error) {
	var out []*models.Principal
	err := r.db.WithContext(ctx).Find(&out).Error
	return out, err
}
