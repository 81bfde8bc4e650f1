package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"tropicalstore/internal/apperr"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CatalogService is the catalog graph: idempotent natural-key upserts over
// products, color variants, size variants and grade associations. Calling
// an upsert twice with identical input produces no additional rows and
// returns the same ID. Unique-key races surface as ConflictError after one
// internal re-resolve retry.
type CatalogService interface {
	UpsertProduct(ctx context.Context, req dto.UpsertProductRequest) (*dto.UpsertResult, error)
	UpsertColorVariant(ctx context.Context, productCode string, req dto.UpsertColorVariantRequest) (*dto.UpsertResult, error)
	UpsertSizeVariant(ctx context.Context, productCode string, req dto.UpsertSizeVariantRequest) (*dto.UpsertResult, error)
	UpsertGradeAssociation(ctx context.Context, productCode string, req dto.UpsertGradeAssociationRequest) (*dto.UpsertResult, error)

	// SwitchStockMode flips how future availability is computed. It refuses
	// while committed order history exists under the current mode — history
	// is never rewritten.
	SwitchStockMode(ctx context.Context, productID uuid.UUID, mode string) error

	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	products     repository.ProductRepository
	grades       repository.GradeRepository
	refs         repository.ReferenceRepository
	orders       repository.OrderRepository
	movements    repository.StockMovementRepository
	gradeSvc     GradeService
	availability AvailabilityService
}

func NewCatalogService(
	products repository.ProductRepository,
	grades repository.GradeRepository,
	refs repository.ReferenceRepository,
	orders repository.OrderRepository,
	movements repository.StockMovementRepository,
	gradeSvc GradeService,
	availability AvailabilityService,
) CatalogService {
	return &catalogService{
		products:     products,
		grades:       grades,
		refs:         refs,
		orders:       orders,
		movements:    movements,
		gradeSvc:     gradeSvc,
		availability: availability,
	}
}

// recordStockReplace ledgers an absolute stock replacement (catalog upsert
// or re-import) against an existing row. First creation is not a stock
// change, so it writes no row. The stock write has already landed, so a
// ledger failure is logged rather than failing the request after the fact.
func (s *catalogService) recordStockReplace(ctx context.Context, targetKind string, targetID uuid.UUID, before, after int) {
	if before == after || s.movements == nil {
		return
	}
	m := &model.StockMovement{
		TargetKind:  targetKind,
		TargetID:    targetID,
		Type:        "adjustment",
		Quantity:    after - before,
		StockBefore: before,
		StockAfter:  after,
		Reason:      "Stock replaced by catalog upsert",
	}
	if err := s.movements.Create(ctx, m); err != nil {
		log.Warn().Err(err).Str("target_id", targetID.String()).Msg("stock movement not recorded")
	}
}

// invalidate drops the cached availability read model for a product after
// a catalog write. Nil availability (seeder, tests) is a no-op.
func (s *catalogService) invalidate(ctx context.Context, productCode string) {
	if s.availability != nil {
		s.availability.Invalidate(ctx, productCode)
	}
}

// resolveProduct translates a product code into its row. Inactive products
// still accept catalog writes — deactivation hides a product from
// availability, it does not freeze its data.
func (s *catalogService) resolveProduct(ctx context.Context, code string) (*model.Product, error) {
	p, err := s.products.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", code)
		}
		return nil, err
	}
	return p, nil
}

// ── Product ──────────────────────────────────────────────────────────────────

func (s *catalogService) UpsertProduct(ctx context.Context, req dto.UpsertProductRequest) (*dto.UpsertResult, error) {
	category, _, err := s.refs.EnsureCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	ptype, _, err := s.refs.EnsureType(ctx, req.Type)
	if err != nil {
		return nil, err
	}
	gender, _, err := s.refs.EnsureGender(ctx, req.Gender)
	if err != nil {
		return nil, err
	}

	existing, err := s.products.FindByCode(ctx, req.Code)
	if err == nil {
		if req.StockMode != "" && req.StockMode != existing.StockMode {
			return nil, apperr.Conflict("product %s is in %s mode; use the stock-mode switch to change it", req.Code, existing.StockMode)
		}
		// Later writes win mutable fields; code and stock mode stay.
		existing.Name = req.Name
		existing.Description = req.Description
		existing.BasePrice = req.BasePrice
		existing.SuggestedPrice = req.SuggestedPrice
		existing.SellWithoutStock = req.SellWithoutStock
		existing.CategoryID = category.ID
		existing.TypeID = ptype.ID
		existing.GenderID = gender.ID
		if uerr := s.products.Update(ctx, existing); uerr != nil {
			return nil, uerr
		}
		s.invalidate(ctx, existing.Code)
		return &dto.UpsertResult{ID: existing.ID.String(), Created: false}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	mode := req.StockMode
	if mode == "" {
		mode = model.StockModeUnit
	}
	p := &model.Product{
		Code:             req.Code,
		Name:             req.Name,
		Description:      req.Description,
		BasePrice:        req.BasePrice,
		SuggestedPrice:   req.SuggestedPrice,
		StockMode:        mode,
		SellWithoutStock: req.SellWithoutStock,
		CategoryID:       category.ID,
		TypeID:           ptype.ID,
		GenderID:         gender.ID,
		Active:           true,
	}
	if cerr := s.products.Create(ctx, p); cerr != nil {
		if errors.Is(cerr, gorm.ErrDuplicatedKey) {
			// Concurrent create-if-missing on the same code — reuse the winner.
			winner, rerr := s.products.FindByCode(ctx, req.Code)
			if rerr != nil {
				return nil, apperr.Wrap(apperr.KindConflict, rerr, fmt.Sprintf("product %s: create race could not be resolved", req.Code))
			}
			return &dto.UpsertResult{ID: winner.ID.String(), Created: false}, nil
		}
		return nil, cerr
	}
	return &dto.UpsertResult{ID: p.ID.String(), Created: true}, nil
}

// ── Color variant ────────────────────────────────────────────────────────────

func (s *catalogService) UpsertColorVariant(ctx context.Context, productCode string, req dto.UpsertColorVariantRequest) (*dto.UpsertResult, error) {
	product, err := s.resolveProduct(ctx, productCode)
	if err != nil {
		return nil, err
	}
	variant, created, err := s.ensureColorVariant(ctx, product, req.Color, req.ColorHex, req.SKU, req.Image)
	if err != nil {
		return nil, err
	}
	return &dto.UpsertResult{ID: variant.ID.String(), Created: created, SKU: variant.SKU}, nil
}

// ensureColorVariant is the shared create-or-reuse used by the color, size
// and grade upserts (variants are auto-created parents, reference entities
// are never orphaned).
func (s *catalogService) ensureColorVariant(ctx context.Context, product *model.Product, colorName string, hex, sku, image *string) (*model.ColorVariant, bool, error) {
	color, _, err := s.refs.EnsureColor(ctx, colorName, hex)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.products.FindColorVariant(ctx, product.ID, color.ID)
	if err == nil {
		if image != nil && (existing.Image == nil || *existing.Image != *image) {
			existing.Image = image
			if uerr := s.products.UpdateColorVariant(ctx, existing); uerr != nil {
				return nil, false, uerr
			}
		}
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	variantSKU := ""
	if sku != nil && *sku != "" {
		variantSKU = *sku
	} else {
		variantSKU, err = s.generateSKU(ctx, product.Code, color.Name, false)
		if err != nil {
			return nil, false, err
		}
	}

	v := &model.ColorVariant{
		ProductID: product.ID,
		ColorID:   color.ID,
		SKU:       variantSKU,
		Image:     image,
	}
	if cerr := s.products.CreateColorVariant(ctx, v); cerr != nil {
		if errors.Is(cerr, gorm.ErrDuplicatedKey) {
			winner, rerr := s.products.FindColorVariant(ctx, product.ID, color.ID)
			if rerr == nil {
				return winner, false, nil
			}
			// The duplicate was the SKU, not the (product, color) pair:
			// regenerate with a numeric suffix and try once more.
			v.SKU, rerr = s.generateSKU(ctx, product.Code, color.Name, false)
			if rerr != nil {
				return nil, false, rerr
			}
			if cerr2 := s.products.CreateColorVariant(ctx, v); cerr2 != nil {
				return nil, false, apperr.Wrap(apperr.KindConflict, cerr2, "color variant create race could not be resolved")
			}
			return v, true, nil
		}
		return nil, false, cerr
	}
	return v, true, nil
}

// ── Size variant ─────────────────────────────────────────────────────────────

func (s *catalogService) UpsertSizeVariant(ctx context.Context, productCode string, req dto.UpsertSizeVariantRequest) (*dto.UpsertResult, error) {
	if req.Stock < 0 {
		return nil, apperr.Validation("stock must be >= 0, got %d", req.Stock)
	}
	product, err := s.resolveProduct(ctx, productCode)
	if err != nil {
		return nil, err
	}
	colorVariant, _, err := s.ensureColorVariant(ctx, product, req.Color, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	size, _, err := s.refs.EnsureSize(ctx, req.Size)
	if err != nil {
		return nil, err
	}

	existing, err := s.products.FindSizeVariant(ctx, product.ID, colorVariant.ID, size.ID)
	if err == nil {
		// Replace, not add — reconciliation is idempotent re-import.
		var override interface{}
		if req.PriceOverride != nil {
			override = *req.PriceOverride
		}
		before := existing.Stock
		if uerr := s.products.SetSizeVariantStock(ctx, existing.ID, req.Stock, override); uerr != nil {
			return nil, uerr
		}
		s.recordStockReplace(ctx, model.MovementTargetSize, existing.ID, before, req.Stock)
		s.invalidate(ctx, product.Code)
		return &dto.UpsertResult{ID: existing.ID.String(), Created: false, SKU: existing.SKU}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	variantSKU := ""
	if req.SKU != nil && *req.SKU != "" {
		variantSKU = *req.SKU
	} else {
		variantSKU, err = s.generateSKU(ctx, product.Code, req.Color+"-"+size.Name, false)
		if err != nil {
			return nil, err
		}
	}

	v := &model.SizeVariant{
		ProductID:      product.ID,
		ColorVariantID: colorVariant.ID,
		SizeID:         size.ID,
		SKU:            variantSKU,
		Stock:          req.Stock,
		PriceOverride:  req.PriceOverride,
	}
	if cerr := s.products.CreateSizeVariant(ctx, v); cerr != nil {
		if errors.Is(cerr, gorm.ErrDuplicatedKey) {
			winner, rerr := s.products.FindSizeVariant(ctx, product.ID, colorVariant.ID, size.ID)
			if rerr != nil {
				return nil, apperr.Wrap(apperr.KindConflict, cerr, fmt.Sprintf("size variant %s/%s/%s: create race could not be resolved", productCode, req.Color, req.Size))
			}
			var override interface{}
			if req.PriceOverride != nil {
				override = *req.PriceOverride
			}
			before := winner.Stock
			if uerr := s.products.SetSizeVariantStock(ctx, winner.ID, req.Stock, override); uerr != nil {
				return nil, uerr
			}
			s.recordStockReplace(ctx, model.MovementTargetSize, winner.ID, before, req.Stock)
			s.invalidate(ctx, product.Code)
			return &dto.UpsertResult{ID: winner.ID.String(), Created: false, SKU: winner.SKU}, nil
		}
		return nil, cerr
	}
	s.invalidate(ctx, product.Code)
	return &dto.UpsertResult{ID: v.ID.String(), Created: true, SKU: v.SKU}, nil
}

// ── Grade association ────────────────────────────────────────────────────────

func (s *catalogService) UpsertGradeAssociation(ctx context.Context, productCode string, req dto.UpsertGradeAssociationRequest) (*dto.UpsertResult, error) {
	if req.KitStock != nil && *req.KitStock < 0 {
		return nil, apperr.Validation("kit_stock must be >= 0, got %d", *req.KitStock)
	}
	product, err := s.resolveProduct(ctx, productCode)
	if err != nil {
		return nil, err
	}
	colorVariant, _, err := s.ensureColorVariant(ctx, product, req.Color, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	var template *model.GradeTemplate
	variantCreated := false
	if len(req.Composition) > 0 {
		result, rerr := s.gradeSvc.ResolveOrCreateTemplate(ctx, req.Template, req.Composition)
		if rerr != nil {
			return nil, rerr
		}
		template = result.Template
		variantCreated = result.VariantCreated
	} else {
		template, err = s.grades.FindTemplateByName(ctx, req.Template)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("grade template %q does not exist and no composition was supplied", req.Template)
			}
			return nil, err
		}
	}

	existing, err := s.grades.FindAssociation(ctx, product.ID, colorVariant.ID, template.ID)
	if err == nil {
		if req.KitStock != nil {
			before := existing.KitStock
			if uerr := s.grades.SetKitStock(ctx, existing.ID, *req.KitStock); uerr != nil {
				return nil, uerr
			}
			s.recordStockReplace(ctx, model.MovementTargetGrade, existing.ID, before, *req.KitStock)
			s.invalidate(ctx, product.Code)
		}
		return &dto.UpsertResult{ID: existing.ID.String(), Created: false, VariantCreated: variantCreated, SKU: existing.SKU}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	gradeSKU := ""
	if req.SKU != nil && *req.SKU != "" {
		gradeSKU = *req.SKU
	} else {
		gradeSKU, err = s.generateSKU(ctx, product.Code, req.Color, true)
		if err != nil {
			return nil, err
		}
	}

	stockModel := req.StockModel
	if stockModel == "" {
		stockModel = model.GradeStockCounter
	}
	kits := 0
	if req.KitStock != nil {
		kits = *req.KitStock
	}

	a := &model.ProductColorGrade{
		ProductID:       product.ID,
		ColorVariantID:  colorVariant.ID,
		GradeTemplateID: template.ID,
		SKU:             gradeSKU,
		KitStock:        kits,
		StockModel:      stockModel,
	}
	if cerr := s.grades.CreateAssociation(ctx, a); cerr != nil {
		if errors.Is(cerr, gorm.ErrDuplicatedKey) {
			winner, rerr := s.grades.FindAssociation(ctx, product.ID, colorVariant.ID, template.ID)
			if rerr != nil {
				return nil, apperr.Wrap(apperr.KindConflict, cerr, fmt.Sprintf("grade association %s/%s/%s: create race could not be resolved", productCode, req.Color, template.Name))
			}
			if req.KitStock != nil {
				before := winner.KitStock
				if uerr := s.grades.SetKitStock(ctx, winner.ID, *req.KitStock); uerr != nil {
					return nil, uerr
				}
				s.recordStockReplace(ctx, model.MovementTargetGrade, winner.ID, before, *req.KitStock)
				s.invalidate(ctx, product.Code)
			}
			return &dto.UpsertResult{ID: winner.ID.String(), Created: false, VariantCreated: variantCreated, SKU: winner.SKU}, nil
		}
		return nil, cerr
	}
	s.invalidate(ctx, product.Code)
	return &dto.UpsertResult{ID: a.ID.String(), Created: true, VariantCreated: variantCreated, SKU: a.SKU}, nil
}

// ── Stock-mode switch ────────────────────────────────────────────────────────

func (s *catalogService) SwitchStockMode(ctx context.Context, productID uuid.UUID, mode string) error {
	if mode != model.StockModeUnit && mode != model.StockModeGrade {
		return apperr.Validation("unknown stock mode %q", mode)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return err
	}
	if product.StockMode == mode {
		return nil
	}

	// Committed orders carry the line kind of the mode they were placed
	// under. Switching while such history exists would make the product's
	// stock accounting disagree with its own ledger, so the switch is
	// refused until that history is voided or archived.
	currentKind := model.OrderLineUnit
	if product.StockMode == model.StockModeGrade {
		currentKind = model.OrderLineGrade
	}
	has, err := s.orders.HasCommittedItems(ctx, productID, currentKind)
	if err != nil {
		return err
	}
	if has {
		return apperr.Conflict("product %s has committed %s-mode orders; stock mode cannot be switched", product.Code, product.StockMode)
	}

	if err := s.products.UpdateStockMode(ctx, productID, mode); err != nil {
		return err
	}
	s.invalidate(ctx, product.Code)
	return nil
}

// ── Reads / lifecycle ────────────────────────────────────────────────────────

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *catalogService) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return err
	}
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, p.Code)
	return nil
}

func (s *catalogService) Reactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return err
	}
	if err := s.products.Reactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, p.Code)
	return nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:               p.ID.String(),
		Code:             p.Code,
		Name:             p.Name,
		Description:      p.Description,
		BasePrice:        p.BasePrice,
		SuggestedPrice:   p.SuggestedPrice,
		StockMode:        p.StockMode,
		SellWithoutStock: p.SellWithoutStock,
		Active:           p.Active,
	}
	if p.Category != nil {
		resp.Category = p.Category.Name
	}
	if p.Type != nil {
		resp.Type = p.Type.Name
	}
	if p.Gender != nil {
		resp.Gender = p.Gender.Name
	}
	return resp
}

// ── SKU generation ───────────────────────────────────────────────────────────

// skuPart strips a name down to uppercase alphanumerics for SKU embedding:
// "Azul Céu" → "AZULCEU" is not attempted (no transliteration), non-ASCII
// runes are dropped.
func skuPart(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r == '-' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// generateSKU builds the deterministic {code}-{COLOR}[-GRADE] SKU. A
// collision increments a numeric suffix instead of failing.
func (s *catalogService) generateSKU(ctx context.Context, productCode, colorName string, grade bool) (string, error) {
	base := fmt.Sprintf("%s-%s", strings.ToUpper(productCode), skuPart(colorName))
	if grade {
		base += "-GRADE"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.products.SKUExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
