package repository

import (
	"context"

	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	Create(ctx context.Context, m *model.StockMovement) error
	ListByTarget(ctx context.Context, targetID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) Create(ctx context.Context, m *model.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *stockMovementRepo) ListByTarget(ctx context.Context, targetID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []model.StockMovement
	err := r.db.WithContext(ctx).Where("target_id = ?", targetID).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
