package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reference entities are globally shared lookup tables (categories, types,
// genders, colors, sizes). They are resolved by case-normalized name and
// auto-created on first use during imports — never duplicated.
//
// NameKey holds the normalized form and carries the unique index, so that
// "Preto" and "preto" resolve to the same row even under concurrent
// create-if-missing races (the losing insert hits the constraint and
// re-reads).

// NormalizeName produces the lookup key for a reference entity name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	NameKey   string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Category) TableName() string { return "categories" }

// ProductType classifies products (e.g. "Chinelo", "Sandália").
type ProductType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	NameKey   string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductType) TableName() string { return "product_types" }

type Gender struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	NameKey   string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Gender) TableName() string { return "genders" }

type Color struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name    string    `gorm:"not null"`
	NameKey string    `gorm:"uniqueIndex;not null"`
	// Hex is the display swatch, e.g. "#000000". Optional on auto-created rows.
	Hex       *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Color) TableName() string { return "colors" }

type Size struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name    string    `gorm:"not null"`
	NameKey string    `gorm:"uniqueIndex;not null"`
	// DisplayOrder positions the size in storefront listings. Sizes
	// auto-created during import or template resolution are appended at the
	// end (max+1).
	DisplayOrder int  `gorm:"not null;default:0"`
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Size) TableName() string { return "sizes" }
