package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock accounting modes. A product tracks stock either per individual
// (color, size) variant or per grade kit — never both at once.
const (
	StockModeUnit  = "unit"
	StockModeGrade = "grade"
)

// Product is the catalog root. Code is the natural key used by upserts and
// bulk imports. Products referenced by order history are deactivated, never
// hard-deleted.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	BasePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// SuggestedPrice is the optional resale price shown to wholesale buyers.
	SuggestedPrice *decimal.Decimal `gorm:"type:decimal(10,2)"`
	StockMode      string           `gorm:"not null;default:'unit'"` // "unit" | "grade"
	// SellWithoutStock bypasses the stock check at availability and commit
	// time. It never bypasses the existence check.
	SellWithoutStock bool      `gorm:"not null;default:false"`
	CategoryID       uuid.UUID `gorm:"type:uuid;not null;index"`
	TypeID           uuid.UUID `gorm:"type:uuid;not null;index"`
	GenderID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Active           bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Category *Category    `gorm:"foreignKey:CategoryID"`
	Type     *ProductType `gorm:"foreignKey:TypeID"`
	Gender   *Gender      `gorm:"foreignKey:GenderID"`
}

func (Product) TableName() string { return "products" }
