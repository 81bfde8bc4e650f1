package service

import (
	"context"
	"testing"
	"time"

	"tropicalstore/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture wires the full service graph over the in-memory stubs, the way
// the router wires it over Postgres. Redis and the job queue are nil —
// every service tolerates that and runs synchronously.
type fixture struct {
	refs      *stubRefRepo
	products  *stubProductRepo
	grades    *stubGradeRepo
	orders    *stubOrderRepo
	movements *stubMovementRepo
	jobs      *stubImportJobRepo

	gradeSvc     GradeService
	catalog      CatalogService
	availability AvailabilityService
	orderSvc     OrderService
	importSvc    ImportService
}

func newFixture() *fixture {
	refs := newStubRefRepo()
	products := newStubProductRepo()
	grades := newStubGradeRepo()
	products.grades = grades
	orders := newStubOrderRepo()
	movements := &stubMovementRepo{}
	jobs := newStubImportJobRepo()

	gradeSvc := NewGradeService(grades, refs)
	availability := NewAvailabilityService(products, grades, refs, nil)
	catalog := NewCatalogService(products, grades, refs, orders, movements, gradeSvc, availability)
	orderSvc := NewOrderService(orders, products, grades, refs, movements, availability, nil)
	importSvc := NewImportService(jobs, refs, products, catalog, availability, nil, nil, time.Second)

	return &fixture{
		refs:         refs,
		products:     products,
		grades:       grades,
		orders:       orders,
		movements:    movements,
		jobs:         jobs,
		gradeSvc:     gradeSvc,
		catalog:      catalog,
		availability: availability,
		orderSvc:     orderSvc,
		importSvc:    importSvc,
	}
}

// attachRefs mimics GORM preloading on the stub rows: color and size
// pointers are resolved so read models can render names.
func (f *fixture) attachRefs() {
	for _, v := range f.products.colorVariants {
		for _, c := range f.refs.colors {
			if c.ID == v.ColorID {
				v.Color = c
			}
		}
	}
	for _, sv := range f.products.sizeVariants {
		for _, s := range f.refs.sizes {
			if s.ID == sv.SizeID {
				sv.Size = s
			}
		}
	}
	for _, t := range f.grades.templates {
		for i := range t.Items {
			for _, s := range f.refs.sizes {
				if s.ID == t.Items[i].SizeID {
					t.Items[i].Size = s
				}
			}
		}
	}
}

func price(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// seedUnitProduct creates a unit-mode product with one color and the given
// size → stock map, all through the catalog upsert path.
func (f *fixture) seedUnitProduct(t *testing.T, code, name, basePrice, color string, sizes map[string]int, sellWithoutStock bool) {
	t.Helper()
	ctx := context.Background()
	_, err := f.catalog.UpsertProduct(ctx, dto.UpsertProductRequest{
		Code:             code,
		Name:             name,
		Category:         "Footwear",
		Type:             "Sneaker",
		Gender:           "Unisex",
		BasePrice:        price(t, basePrice),
		StockMode:        "unit",
		SellWithoutStock: sellWithoutStock,
	})
	require.NoError(t, err)
	for size, stock := range sizes {
		_, err := f.catalog.UpsertSizeVariant(ctx, code, dto.UpsertSizeVariantRequest{
			Color: color,
			Size:  size,
			Stock: stock,
		})
		require.NoError(t, err)
	}
	f.attachRefs()
}

// seedGradeProduct creates a grade-mode product with one color and one
// association under the given stock model.
func (f *fixture) seedGradeProduct(t *testing.T, code, name, basePrice, color, template string, composition []dto.CompositionEntry, kitStock int, stockModel string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.catalog.UpsertProduct(ctx, dto.UpsertProductRequest{
		Code:      code,
		Name:      name,
		Category:  "Footwear",
		Type:      "Flip-flop",
		Gender:    "Unisex",
		BasePrice: price(t, basePrice),
		StockMode: "grade",
	})
	require.NoError(t, err)
	_, err = f.catalog.UpsertGradeAssociation(ctx, code, dto.UpsertGradeAssociationRequest{
		Color:       color,
		Template:    template,
		Composition: composition,
		KitStock:    &kitStock,
		StockModel:  stockModel,
	})
	require.NoError(t, err)
	f.attachRefs()
}

func strPtr(s string) *string { return &s }
