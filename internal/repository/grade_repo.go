package repository

import (
	"context"

	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GradeRepository is the data access contract for grade templates and the
// product-color-grade associations, including the transactional kit-counter
// operations used by the commit engine.
type GradeRepository interface {
	// Templates
	CreateTemplate(ctx context.Context, t *model.GradeTemplate) error
	FindTemplateByID(ctx context.Context, id uuid.UUID) (*model.GradeTemplate, error)
	FindTemplateByName(ctx context.Context, name string) (*model.GradeTemplate, error)
	ListTemplates(ctx context.Context) ([]model.GradeTemplate, error)

	// Associations
	CreateAssociation(ctx context.Context, a *model.ProductColorGrade) error
	FindAssociation(ctx context.Context, productID, colorVariantID, templateID uuid.UUID) (*model.ProductColorGrade, error)
	FindAssociationByID(ctx context.Context, id uuid.UUID) (*model.ProductColorGrade, error)
	ListAssociations(ctx context.Context, productID, colorVariantID uuid.UUID) ([]model.ProductColorGrade, error)
	ProductHasAssociations(ctx context.Context, productID uuid.UUID) (bool, error)
	// SetKitStock replaces the kit counter (idempotent re-import semantics).
	SetKitStock(ctx context.Context, id uuid.UUID, kits int) error

	// Transactional — callers pass the live tx.
	LockAssociationTx(tx *gorm.DB, id uuid.UUID) (*model.ProductColorGrade, error)
	// DecrementKitStockTx refuses (zero rows affected) rather than clamping.
	DecrementKitStockTx(tx *gorm.DB, id uuid.UUID, kits int) (bool, error)
	AdjustKitStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	DB() *gorm.DB
}

type gradeRepo struct{ db *gorm.DB }

func NewGradeRepository(db *gorm.DB) GradeRepository { return &gradeRepo{db: db} }

func (r *gradeRepo) CreateTemplate(ctx context.Context, t *model.GradeTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *gradeRepo) FindTemplateByID(ctx context.Context, id uuid.UUID) (*model.GradeTemplate, error) {
	var t model.GradeTemplate
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Size").
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *gradeRepo) FindTemplateByName(ctx context.Context, name string) (*model.GradeTemplate, error) {
	var t model.GradeTemplate
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Size").
		Where("name = ?", name).First(&t).Error
	return &t, err
}

func (r *gradeRepo) ListTemplates(ctx context.Context) ([]model.GradeTemplate, error) {
	var out []model.GradeTemplate
	err := r.db.WithContext(ctx).Where("active = true").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Size").
		Order("name ASC").Find(&out).Error
	return out, err
}

func (r *gradeRepo) CreateAssociation(ctx context.Context, a *model.ProductColorGrade) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *gradeRepo) FindAssociation(ctx context.Context, productID, colorVariantID, templateID uuid.UUID) (*model.ProductColorGrade, error) {
	var a model.ProductColorGrade
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND color_variant_id = ? AND grade_template_id = ?", productID, colorVariantID, templateID).
		First(&a).Error
	return &a, err
}

func (r *gradeRepo) FindAssociationByID(ctx context.Context, id uuid.UUID) (*model.ProductColorGrade, error) {
	var a model.ProductColorGrade
	err := r.db.WithContext(ctx).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Template.Items.Size").
		First(&a, "id = ?", id).Error
	return &a, err
}

func (r *gradeRepo) ListAssociations(ctx context.Context, productID, colorVariantID uuid.UUID) ([]model.ProductColorGrade, error) {
	var out []model.ProductColorGrade
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND color_variant_id = ?", productID, colorVariantID).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Template.Items.Size").
		Find(&out).Error
	return out, err
}

func (r *gradeRepo) ProductHasAssociations(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProductColorGrade{}).
		Where("product_id = ?", productID).Count(&count).Error
	return count > 0, err
}

func (r *gradeRepo) SetKitStock(ctx context.Context, id uuid.UUID, kits int) error {
	return r.db.WithContext(ctx).Model(&model.ProductColorGrade{}).
		Where("id = ?", id).Update("kit_stock", kits).Error
}

func (r *gradeRepo) LockAssociationTx(tx *gorm.DB, id uuid.UUID) (*model.ProductColorGrade, error) {
	var a model.ProductColorGrade
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *gradeRepo) DecrementKitStockTx(tx *gorm.DB, id uuid.UUID, kits int) (bool, error) {
	res := tx.Model(&model.ProductColorGrade{}).
		Where("id = ? AND kit_stock >= ?", id, kits).
		Update("kit_stock", gorm.Expr("kit_stock - ?", kits))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gradeRepo) AdjustKitStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.ProductColorGrade{}).Where("id = ?", id).
		Update("kit_stock", gorm.Expr("kit_stock + ?", delta)).Error
}

func (r *gradeRepo) DB() *gorm.DB { return r.db }
