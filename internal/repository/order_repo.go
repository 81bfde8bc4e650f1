package repository

import (
	"context"

	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	// Create persists the order and its items within the caller's tx.
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	NextOrderNumber(ctx context.Context, tx *gorm.DB) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	// HasCommittedItems reports whether committed order history exists for a
	// product in the given line kind — the stock-mode switch guard.
	HasCommittedItems(ctx context.Context, productID uuid.UUID, kind string) (bool, error)
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Create(o).Error
}

// NextOrderNumber draws from a dedicated sequence so numbers stay gapless
// per assignment even when the surrounding tx retries.
func (r *orderRepo) NextOrderNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	var n int
	err := tx.WithContext(ctx).Raw("SELECT nextval('order_number_seq')").Scan(&n).Error
	return n, err
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepo) HasCommittedItems(ctx context.Context, productID uuid.UUID, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND order_items.kind = ? AND orders.status = ?", productID, kind, "committed").
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
