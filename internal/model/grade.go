package model

import (
	"time"

	"github.com/google/uuid"
)

// GradeTemplate is a named size composition sold as one kit, e.g.
// "2549" = 2×37, 3×38, 2×39. Templates are catalog-level and shared across
// products. Stored names are unique: when the same name is requested with a
// differing composition, a new template is created under a disambiguated
// name instead of mutating this one (orders already placed keep their
// semantics).
type GradeTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []GradeTemplateItem `gorm:"foreignKey:GradeTemplateID"`
}

func (GradeTemplate) TableName() string { return "grade_templates" }

// TotalQuantity is the unit count of one whole kit. Grade pricing is
// base_price × TotalQuantity.
func (t *GradeTemplate) TotalQuantity() int {
	total := 0
	for _, it := range t.Items {
		total += it.Quantity
	}
	return total
}

// GradeTemplateItem is one (size, required quantity) row of a template.
// No duplicate size within one template; quantity is always > 0.
type GradeTemplateItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GradeTemplateID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_template_size;not null"`
	SizeID          uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_template_size;not null"`
	Quantity        int       `gorm:"not null"`
	Position        int       `gorm:"not null;default:0"`

	Size *Size `gorm:"foreignKey:SizeID"`
}

func (GradeTemplateItem) TableName() string { return "grade_template_items" }

// Grade stock accounting models. Chosen when the association is created and
// never switched implicitly.
const (
	// GradeStockCounter: an explicit integer counter of whole kits.
	GradeStockCounter = "counter"
	// GradeStockDerived: kit availability is derived from the SizeVariant
	// stocks of the composition sizes.
	GradeStockDerived = "derived"
)

// ProductColorGrade says "this color of this product may be sold as this
// grade". (product_id, color_variant_id, grade_template_id) is unique. A
// color may map to several templates (small box, full box, ...).
type ProductColorGrade struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color_grade;not null"`
	ColorVariantID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color_grade;not null"`
	GradeTemplateID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_product_color_grade;not null"`
	SKU             string    `gorm:"uniqueIndex;not null"`
	// KitStock is the whole-kit counter, meaningful under GradeStockCounter.
	KitStock   int    `gorm:"not null;default:0"`
	StockModel string `gorm:"not null;default:'counter'"` // "counter" | "derived"
	CreatedAt  time.Time
	UpdatedAt  time.Time

	ColorVariant *ColorVariant  `gorm:"foreignKey:ColorVariantID"`
	Template     *GradeTemplate `gorm:"foreignKey:GradeTemplateID"`
}

func (ProductColorGrade) TableName() string { return "product_color_grades" }
