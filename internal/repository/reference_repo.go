package repository

import (
	"context"
	"errors"

	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceRepository resolves the shared lookup tables by case-normalized
// name, creating missing rows on first use. Ensure* is the atomic
// insert-or-return-existing primitive: the unique index on name_key decides
// create-if-missing races — the losing insert re-reads and reuses whatever
// the winner created, never producing a duplicate row.
type ReferenceRepository interface {
	EnsureCategory(ctx context.Context, name string) (*model.Category, bool, error)
	EnsureType(ctx context.Context, name string) (*model.ProductType, bool, error)
	EnsureGender(ctx context.Context, name string) (*model.Gender, bool, error)
	EnsureColor(ctx context.Context, name string, hex *string) (*model.Color, bool, error)
	// EnsureSize appends auto-created sizes at the end of the display order.
	EnsureSize(ctx context.Context, name string) (*model.Size, bool, error)

	// Find* never auto-create — they back existence checks.
	FindColorByName(ctx context.Context, name string) (*model.Color, error)
	FindSizeByName(ctx context.Context, name string) (*model.Size, error)
	FindSizeByID(ctx context.Context, id uuid.UUID) (*model.Size, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListTypes(ctx context.Context) ([]model.ProductType, error)
	ListGenders(ctx context.Context) ([]model.Gender, error)
	ListColors(ctx context.Context) ([]model.Color, error)
	ListSizes(ctx context.Context) ([]model.Size, error)
}

type referenceRepo struct{ db *gorm.DB }

func NewReferenceRepository(db *gorm.DB) ReferenceRepository { return &referenceRepo{db: db} }

// isDuplicate matches a unique-constraint violation. Requires the gorm
// error translator (enabled in infra.NewDatabase).
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (r *referenceRepo) EnsureCategory(ctx context.Context, name string) (*model.Category, bool, error) {
	key := model.NormalizeName(name)
	var c model.Category
	err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&c).Error
	if err == nil {
		return &c, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	c = model.Category{Name: name, NameKey: key, Active: true}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isDuplicate(err) {
			// Lost the race — the winner's row is authoritative.
			var existing model.Category
			if rerr := r.db.WithContext(ctx).Where("name_key = ?", key).First(&existing).Error; rerr != nil {
				return nil, false, rerr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &c, true, nil
}

func (r *referenceRepo) EnsureType(ctx context.Context, name string) (*model.ProductType, bool, error) {
	key := model.NormalizeName(name)
	var t model.ProductType
	err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&t).Error
	if err == nil {
		return &t, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	t = model.ProductType{Name: name, NameKey: key, Active: true}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		if isDuplicate(err) {
			var existing model.ProductType
			if rerr := r.db.WithContext(ctx).Where("name_key = ?", key).First(&existing).Error; rerr != nil {
				return nil, false, rerr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &t, true, nil
}

func (r *referenceRepo) EnsureGender(ctx context.Context, name string) (*model.Gender, bool, error) {
	key := model.NormalizeName(name)
	var g model.Gender
	err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&g).Error
	if err == nil {
		return &g, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	g = model.Gender{Name: name, NameKey: key, Active: true}
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		if isDuplicate(err) {
			var existing model.Gender
			if rerr := r.db.WithContext(ctx).Where("name_key = ?", key).First(&existing).Error; rerr != nil {
				return nil, false, rerr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &g, true, nil
}

func (r *referenceRepo) EnsureColor(ctx context.Context, name string, hex *string) (*model.Color, bool, error) {
	key := model.NormalizeName(name)
	var c model.Color
	err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&c).Error
	if err == nil {
		// Backfill the swatch if the row was auto-created without one.
		if c.Hex == nil && hex != nil {
			c.Hex = hex
			if uerr := r.db.WithContext(ctx).Model(&model.Color{}).Where("id = ?", c.ID).Update("hex", hex).Error; uerr != nil {
				return nil, false, uerr
			}
		}
		return &c, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	c = model.Color{Name: name, NameKey: key, Hex: hex, Active: true}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isDuplicate(err) {
			var existing model.Color
			if rerr := r.db.WithContext(ctx).Where("name_key = ?", key).First(&existing).Error; rerr != nil {
				return nil, false, rerr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &c, true, nil
}

func (r *referenceRepo) EnsureSize(ctx context.Context, name string) (*model.Size, bool, error) {
	key := model.NormalizeName(name)
	var s model.Size
	err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&s).Error
	if err == nil {
		return &s, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	var maxOrder int
	if err := r.db.WithContext(ctx).Model(&model.Size{}).
		Select("COALESCE(MAX(display_order), 0)").Scan(&maxOrder).Error; err != nil {
		return nil, false, err
	}

	s = model.Size{Name: name, NameKey: key, DisplayOrder: maxOrder + 1, Active: true}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		if isDuplicate(err) {
			var existing model.Size
			if rerr := r.db.WithContext(ctx).Where("name_key = ?", key).First(&existing).Error; rerr != nil {
				return nil, false, rerr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &s, true, nil
}

func (r *referenceRepo) FindColorByName(ctx context.Context, name string) (*model.Color, error) {
	var c model.Color
	err := r.db.WithContext(ctx).Where("name_key = ?", model.NormalizeName(name)).First(&c).Error
	return &c, err
}

func (r *referenceRepo) FindSizeByName(ctx context.Context, name string) (*model.Size, error) {
	var s model.Size
	err := r.db.WithContext(ctx).Where("name_key = ?", model.NormalizeName(name)).First(&s).Error
	return &s, err
}

func (r *referenceRepo) FindSizeByID(ctx context.Context, id uuid.UUID) (*model.Size, error) {
	var s model.Size
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *referenceRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&out).Error
	return out, err
}

func (r *referenceRepo) ListTypes(ctx context.Context) ([]model.ProductType, error) {
	var out []model.ProductType
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&out).Error
	return out, err
}

func (r *referenceRepo) ListGenders(ctx context.Context) ([]model.Gender, error) {
	var out []model.Gender
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&out).Error
	return out, err
}

func (r *referenceRepo) ListColors(ctx context.Context) ([]model.Color, error) {
	var out []model.Color
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&out).Error
	return out, err
}

func (r *referenceRepo) ListSizes(ctx context.Context) ([]model.Size, error) {
	var out []model.Size
	err := r.db.WithContext(ctx).Where("active = true").Order("display_order ASC").Find(&out).Error
	return out, err
}
