package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ColorVariant is one color of a product. (product_id, color_id) is unique;
// the SKU is either supplied by the import or auto-generated from the
// product code and color name.
type ColorVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color;not null"`
	ColorID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color;not null"`
	SKU       string    `gorm:"uniqueIndex;not null"`
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
	Color   *Color   `gorm:"foreignKey:ColorID"`
}

func (ColorVariant) TableName() string { return "color_variants" }

// SizeVariant carries per-size stock for unit-mode products.
// (product_id, color_variant_id, size_id) is unique.
type SizeVariant struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color_size;not null"`
	ColorVariantID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color_size;not null"`
	SizeID         uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color_size;not null"`
	SKU            string    `gorm:"uniqueIndex;not null"`
	Stock          int       `gorm:"not null;default:0"`
	// PriceOverride, when set, replaces the product base price for this size.
	PriceOverride *decimal.Decimal `gorm:"type:decimal(10,2)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	ColorVariant *ColorVariant `gorm:"foreignKey:ColorVariantID"`
	Size         *Size         `gorm:"foreignKey:SizeID"`
}

func (SizeVariant) TableName() string { return "size_variants" }
