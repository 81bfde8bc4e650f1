package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tropicalstore/internal/apperr"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const availabilityCacheTTL = 60 * time.Second

// AvailabilityService computes the storefront read model: what can be
// bought right now. It branches deterministically on the product's stock
// mode — a unit product never exposes grades and a grade product never
// exposes unit sizes. sell_without_stock bypasses the stock check, never
// the existence check.
type AvailabilityService interface {
	// Availability returns every color of the product; colorFilter narrows
	// to one color when non-empty.
	Availability(ctx context.Context, productCode, colorFilter string) (*dto.AvailabilityResponse, error)
	// Invalidate drops the cached read model after a write touches the
	// product's stock. Best effort.
	Invalidate(ctx context.Context, productCode string)
}

type availabilityService struct {
	products repository.ProductRepository
	grades   repository.GradeRepository
	refs     repository.ReferenceRepository
	rdb      *redis.Client
}

func NewAvailabilityService(
	products repository.ProductRepository,
	grades repository.GradeRepository,
	refs repository.ReferenceRepository,
	rdb *redis.Client,
) AvailabilityService {
	return &availabilityService{products: products, grades: grades, refs: refs, rdb: rdb}
}

func availabilityCacheKey(code string) string { return "avail:" + code }

func (s *availabilityService) Availability(ctx context.Context, productCode, colorFilter string) (*dto.AvailabilityResponse, error) {
	// Whole-product reads go through the cache; filtered reads are served
	// from the cached full object too.
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, availabilityCacheKey(productCode)).Bytes(); err == nil {
			var resp dto.AvailabilityResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return filterColors(&resp, colorFilter), nil
			}
		}
	}

	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", productCode)
		}
		return nil, err
	}
	if !product.Active {
		return nil, apperr.NotFound("product %s not found", productCode)
	}

	variants, err := s.products.ListColorVariants(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AvailabilityResponse{
		ProductCode: product.Code,
		StockMode:   product.StockMode,
		Colors:      make([]dto.ColorAvailability, 0, len(variants)),
	}

	for i := range variants {
		variant := &variants[i]
		entry := dto.ColorAvailability{SKU: variant.SKU}
		if variant.Color != nil {
			entry.Color = variant.Color.Name
			entry.Hex = variant.Color.Hex
		}

		switch product.StockMode {
		case model.StockModeGrade:
			grades, gerr := s.gradeAvailability(ctx, product, variant)
			if gerr != nil {
				return nil, gerr
			}
			entry.Grades = grades
		default:
			sizes, serr := s.unitAvailability(ctx, product, variant)
			if serr != nil {
				return nil, serr
			}
			entry.Sizes = sizes
		}
		resp.Colors = append(resp.Colors, entry)
	}

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, availabilityCacheKey(productCode), b, availabilityCacheTTL).Err()
		}
	}

	return filterColors(resp, colorFilter), nil
}

func (s *availabilityService) unitAvailability(ctx context.Context, product *model.Product, variant *model.ColorVariant) ([]dto.SizeAvailability, error) {
	sizeVariants, err := s.products.ListSizeVariants(ctx, variant.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SizeAvailability, 0, len(sizeVariants))
	for _, sv := range sizeVariants {
		if sv.Stock <= 0 && !product.SellWithoutStock {
			continue
		}
		price := product.BasePrice
		if sv.PriceOverride != nil {
			price = *sv.PriceOverride
		}
		sizeName := ""
		if sv.Size != nil {
			sizeName = sv.Size.Name
		}
		out = append(out, dto.SizeAvailability{Size: sizeName, Stock: sv.Stock, Price: price})
	}
	return out, nil
}

func (s *availabilityService) gradeAvailability(ctx context.Context, product *model.Product, variant *model.ColorVariant) ([]dto.GradeAvailability, error) {
	associations, err := s.grades.ListAssociations(ctx, product.ID, variant.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GradeAvailability, 0, len(associations))
	for i := range associations {
		assoc := &associations[i]
		if assoc.Template == nil {
			continue
		}
		totalQty := assoc.Template.TotalQuantity()

		hasFull, hasAny, err := s.gradeStockSignals(ctx, product, variant, assoc)
		if err != nil {
			return nil, err
		}

		out = append(out, dto.GradeAvailability{
			Template:      assoc.Template.Name,
			SKU:           assoc.SKU,
			TotalQuantity: totalQty,
			HasFullStock:  hasFull,
			HasAnyStock:   hasAny,
			KitPrice:      product.BasePrice.Mul(decimal.NewFromInt(int64(totalQty))),
		})
	}
	return out, nil
}

// gradeStockSignals computes (has_full_stock, has_any_stock) under the
// association's accounting model. The two representations are never mixed:
// a counter association only reads its kit counter, a derived association
// only reads the composition's size stocks.
func (s *availabilityService) gradeStockSignals(ctx context.Context, product *model.Product, variant *model.ColorVariant, assoc *model.ProductColorGrade) (bool, bool, error) {
	if product.SellWithoutStock {
		return true, true, nil
	}

	if assoc.StockModel == model.GradeStockCounter {
		return assoc.KitStock >= 1, assoc.KitStock > 0, nil
	}

	hasFull := true
	hasAny := false
	for _, item := range assoc.Template.Items {
		sv, err := s.products.FindSizeVariant(ctx, product.ID, variant.ID, item.SizeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// A size that was never created for this color cannot
				// contribute a kit.
				hasFull = false
				continue
			}
			return false, false, err
		}
		if sv.Stock < item.Quantity {
			hasFull = false
		}
		if sv.Stock > 0 {
			hasAny = true
		}
	}
	return hasFull, hasAny, nil
}

func (s *availabilityService) Invalidate(ctx context.Context, productCode string) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, availabilityCacheKey(productCode)).Err()
}

func filterColors(resp *dto.AvailabilityResponse, colorFilter string) *dto.AvailabilityResponse {
	if colorFilter == "" {
		return resp
	}
	key := model.NormalizeName(colorFilter)
	filtered := *resp
	filtered.Colors = nil
	for _, c := range resp.Colors {
		if model.NormalizeName(c.Color) == key {
			filtered.Colors = append(filtered.Colors, c)
		}
	}
	return &filtered
}
