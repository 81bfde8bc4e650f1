package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement target kinds.
const (
	MovementTargetSize  = "size_variant"
	MovementTargetGrade = "grade"
)

// StockMovement records every stock change with its before/after values.
// Created automatically on order commit, order void, import replace and
// manual adjustment.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TargetKind  string    `gorm:"not null"` // "size_variant" | "grade"
	TargetID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Type        string    `gorm:"not null"` // "order" | "order_void" | "adjustment"
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string
	OrderID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
