package repository

import (
	"context"

	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is the data access contract for products and their
// color/size variants. Services depend on this interface, not on the
// concrete GORM implementation, enabling clean unit testing via stubs.
//
// Create* returns gorm.ErrDuplicatedKey on a unique-key race; the catalog
// service retries once by re-resolving the natural key.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
	UpdateStockMode(ctx context.Context, id uuid.UUID, mode string) error

	// Color variants
	CreateColorVariant(ctx context.Context, v *model.ColorVariant) error
	FindColorVariant(ctx context.Context, productID, colorID uuid.UUID) (*model.ColorVariant, error)
	ListColorVariants(ctx context.Context, productID uuid.UUID) ([]model.ColorVariant, error)
	UpdateColorVariant(ctx context.Context, v *model.ColorVariant) error

	// Size variants
	CreateSizeVariant(ctx context.Context, v *model.SizeVariant) error
	FindSizeVariant(ctx context.Context, productID, colorVariantID, sizeID uuid.UUID) (*model.SizeVariant, error)
	ListSizeVariants(ctx context.Context, colorVariantID uuid.UUID) ([]model.SizeVariant, error)
	// SetSizeVariantStock replaces the stock value (idempotent re-import
	// semantics, not delta application).
	SetSizeVariantStock(ctx context.Context, id uuid.UUID, stock int, priceOverride interface{}) error

	// SKUExists backs auto-generated SKU collision handling.
	SKUExists(ctx context.Context, sku string) (bool, error)

	// Used inside commit transactions — callers must pass the tx instance.
	// LockSizeVariantTx takes a row lock so validation and decrement happen
	// under the same lock, closing the check-then-act window.
	LockSizeVariantTx(tx *gorm.DB, id uuid.UUID) (*model.SizeVariant, error)
	// DecrementSizeStockTx is conditional: it refuses (zero rows affected)
	// rather than clamping when stock would go negative.
	DecrementSizeStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	// AdjustSizeStockTx applies a signed delta without the floor check —
	// used by sell_without_stock fulfillment and order voids.
	AdjustSizeStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").Preload("Type").Preload("Gender").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	// Active filter: "false" = inactive, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.Code != "" {
		q = q.Where("code = ?", filter.Code)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.name_key = ?", model.NormalizeName(filter.Category))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Category").Preload("Type").Preload("Gender").
		Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", false).Error
}

func (r *productRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", true).Error
}

func (r *productRepo) UpdateStockMode(ctx context.Context, id uuid.UUID, mode string) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("stock_mode", mode).Error
}

func (r *productRepo) CreateColorVariant(ctx context.Context, v *model.ColorVariant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *productRepo) FindColorVariant(ctx context.Context, productID, colorID uuid.UUID) (*model.ColorVariant, error) {
	var v model.ColorVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND color_id = ?", productID, colorID).
		Preload("Color").First(&v).Error
	return &v, err
}

func (r *productRepo) ListColorVariants(ctx context.Context, productID uuid.UUID) ([]model.ColorVariant, error) {
	var out []model.ColorVariant
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Preload("Color").Find(&out).Error
	return out, err
}

func (r *productRepo) UpdateColorVariant(ctx context.Context, v *model.ColorVariant) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *productRepo) CreateSizeVariant(ctx context.Context, v *model.SizeVariant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *productRepo) FindSizeVariant(ctx context.Context, productID, colorVariantID, sizeID uuid.UUID) (*model.SizeVariant, error) {
	var v model.SizeVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND color_variant_id = ? AND size_id = ?", productID, colorVariantID, sizeID).
		First(&v).Error
	return &v, err
}

func (r *productRepo) ListSizeVariants(ctx context.Context, colorVariantID uuid.UUID) ([]model.SizeVariant, error) {
	var out []model.SizeVariant
	err := r.db.WithContext(ctx).Where("color_variant_id = ?", colorVariantID).
		Preload("Size").
		Joins("JOIN sizes ON sizes.id = size_variants.size_id").
		Order("sizes.display_order ASC").Find(&out).Error
	return out, err
}

func (r *productRepo) SetSizeVariantStock(ctx context.Context, id uuid.UUID, stock int, priceOverride interface{}) error {
	updates := map[string]interface{}{"stock": stock}
	if priceOverride != nil {
		updates["price_override"] = priceOverride
	}
	return r.db.WithContext(ctx).Model(&model.SizeVariant{}).Where("id = ?", id).Updates(updates).Error
}

func (r *productRepo) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ColorVariant{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&model.SizeVariant{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&model.ProductColorGrade{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepo) LockSizeVariantTx(tx *gorm.DB, id uuid.UUID) (*model.SizeVariant, error) {
	var v model.SizeVariant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *productRepo) DecrementSizeStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.SizeVariant{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepo) AdjustSizeStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.SizeVariant{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }
