package repository

import (
	"context"

	"gorm.io/gorm"

	"ghost-backend/internal/models"
)

// EventRepository persists the audit log of ghost/redeem operations.
type EventRepository interface {
	Append(ctx context.Context, rec *models.RedemptionEvent) error
	ListRecent(ctx context.Context, limit int) ([]*models.RedemptionEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Append writes one audit row.
func (r *eventRepository) Append(ctx context.Context, rec *models.RedemptionEvent) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListRecent returns the newest events first.
func (r *eventRepository) ListRecent(ctx context.Context, limit int) ([]*models.RedemptionEvent, error) {
	var out []*models.RedemptionEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
