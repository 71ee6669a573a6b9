package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ghost-backend/internal/models"
)

// VaultRepository persists balances and the accounting counters.
type VaultRepository interface {
	UpsertBalance(ctx context.Context, principal, assetID, balance string) error
	ListBalances(ctx context.Context) ([]*models.VaultBalance, error)

	SaveCounters(ctx context.Context, totalGhosted, totalRedeemed string) error
	GetCounters(ctx context.Context) (*models.ProtocolCounters, error)
}

type vaultRepository struct {
	db *gorm.DB
}

// NewVaultRepository creates a new VaultRepository instance.
func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepository{db: db}
}

// UpsertBalance writes the current balance of (principal, asset).
func (r *vaultRepository) UpsertBalance(ctx context.Context, principal, assetID, balance string) error {
	rec := &models.VaultBalance{
		Principal: principal,
		AssetID:   assetID,
		Balance:   balance,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "principal"}, {Name: "asset_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
		}).
		Create(rec).Error
}

// ListBalances returns all persisted balances.
func (r *vaultRepository) ListBalances(ctx context.Context) ([]*models.VaultBalance, error) {
	var out []*models.VaultBalance
	err := r.db.WithContext(ctx).Find(&out).Error
	return out, err
}

// SaveCounters writes the single counters row.
func (r *vaultRepository) SaveCounters(ctx context.Context, totalGhosted, totalRedeemed string) error {
	rec := &models.ProtocolCounters{
		ID:            1,
		TotalGhosted:  totalGhosted,
		TotalRedeemed: totalRedeemed,
		UpdatedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_ghosted", "total_redeemed", "updated_at"}),
		}).
		Create(rec).Error
}

// GetCounters reads the counters row; returns nil when none exists yet.
func (r *vaultRepository) GetCounters(ctx context.Context) (*models.ProtocolCounters, error) {
	var rec models.ProtocolCounters
	err := r.db.WithContext(ctx).Where("id = ?", 1).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
