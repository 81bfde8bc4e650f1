package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order line kinds — which stock representation the line consumed.
const (
	OrderLineUnit  = "unit"
	OrderLineGrade = "grade"
)

// Order is a committed multi-line purchase. Commit is all-or-nothing: the
// row only exists if every line passed its availability check inside the
// same transaction that decremented stock.
type Order struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number    int             `gorm:"uniqueIndex;not null"`
	Status    string          `gorm:"not null;default:'committed'"` // "committed" | "voided"
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots everything needed to read the line historically:
// the kind, the quantity, and the unit price captured from the
// then-current catalog at commit time. Later template or price edits never
// rewrite these rows.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ColorVariantID uuid.UUID  `gorm:"type:uuid;not null"`
	SizeVariantID  *uuid.UUID `gorm:"type:uuid"` // set for unit lines
	GradeID        *uuid.UUID `gorm:"type:uuid"` // ProductColorGrade, set for grade lines
	Kind           string     `gorm:"not null"`  // "unit" | "grade"
	Quantity       int        `gorm:"not null"`  // units, or whole kits for grade lines
	// UnitPrice is per unit for unit lines and per kit for grade lines
	// (base price × template total quantity at commit time).
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (OrderItem) TableName() string { return "order_items" }
