package service

import (
	"context"
	"errors"
	"fmt"

	"tropicalstore/internal/apperr"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/repository"
	"tropicalstore/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService is the fulfillment/commit engine. A multi-line commit is one
// atomic unit: every line re-validates availability inside the same
// transaction that decrements stock, so two concurrent buyers can never
// both take the last kit. Any line failure aborts the whole order and every
// offending line is reported.
type OrderService interface {
	Commit(ctx context.Context, req dto.CommitRequest) (*dto.CommitResponse, error)
	VoidOrder(ctx context.Context, id uuid.UUID, reason string) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

// CommitError carries every rejected line of an aborted commit.
type CommitError struct {
	Lines []dto.LineFailure
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit rejected: %d line(s) failed", len(e.Lines))
}

type orderService struct {
	repo         repository.OrderRepository
	products     repository.ProductRepository
	grades       repository.GradeRepository
	refs         repository.ReferenceRepository
	movements    repository.StockMovementRepository
	availability AvailabilityService
	dispatcher   *worker.Dispatcher
}

func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductRepository,
	grades repository.GradeRepository,
	refs repository.ReferenceRepository,
	movements repository.StockMovementRepository,
	availability AvailabilityService,
	dispatcher *worker.Dispatcher,
) OrderService {
	return &orderService{
		repo:         repo,
		products:     products,
		grades:       grades,
		refs:         refs,
		movements:    movements,
		availability: availability,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// resolvedLine is a commit line with every natural key translated to rows.
// Resolution happens outside the transaction; stock values are re-read
// under row locks inside it.
type resolvedLine struct {
	index       int
	kind        string // model.OrderLineUnit | model.OrderLineGrade
	product     *model.Product
	variant     *model.ColorVariant
	sizeVariant *model.SizeVariant
	assoc       *model.ProductColorGrade
	// derivedSizes maps template items to this color's size variants for
	// derived-model grade lines, in template order.
	derivedSizes []derivedSize
	quantity     int
}

type derivedSize struct {
	item        model.GradeTemplateItem
	sizeVariant *model.SizeVariant
}

// ── Commit ───────────────────────────────────────────────────────────────────
//
//  1. Resolve every line by natural key (product code, color, size/grade)
//  2. BEGIN TX: lock the touched rows, re-validate every line, capture
//     prices from the then-current catalog
//  3. Any failure → rollback, report all offending lines
//  4. Create order + items, apply decrements, write stock movements
//  5. COMMIT, invalidate availability caches, enqueue the receipt PDF

func (s *orderService) Commit(ctx context.Context, req dto.CommitRequest) (*dto.CommitResponse, error) {
	if len(req.Lines) == 0 {
		return nil, apperr.Validation("commit requires at least one line")
	}

	resolved := make([]*resolvedLine, 0, len(req.Lines))
	var failures []dto.LineFailure
	for i, line := range req.Lines {
		rl, err := s.resolveLine(ctx, i, line)
		if err != nil {
			failures = append(failures, lineFailure(i, err))
			continue
		}
		resolved = append(resolved, rl)
	}
	if len(failures) > 0 {
		return nil, &CommitError{Lines: failures}
	}

	var resp *dto.CommitResponse
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		type pricedLine struct {
			*resolvedLine
			unitPrice decimal.Decimal
			subtotal  decimal.Decimal
			newStock  int
		}

		// Phase 1: lock + validate + capture prices. No writes yet, so a
		// rejected commit leaves nothing to roll back besides the locks.
		priced := make([]pricedLine, 0, len(resolved))
		for _, rl := range resolved {
			pl := pricedLine{resolvedLine: rl}
			switch rl.kind {
			case model.OrderLineUnit:
				sv, err := s.products.LockSizeVariantTx(tx, rl.sizeVariant.ID)
				if err != nil {
					return err
				}
				rl.sizeVariant = sv
				if sv.Stock < rl.quantity && !rl.product.SellWithoutStock {
					failures = append(failures, dto.LineFailure{
						Index:  rl.index,
						Reason: apperr.KindInsufficientStock.String(),
						Detail: fmt.Sprintf("requested %d, available %d", rl.quantity, sv.Stock),
					})
					continue
				}
				pl.unitPrice = rl.product.BasePrice
				if sv.PriceOverride != nil {
					pl.unitPrice = *sv.PriceOverride
				}
				pl.newStock = sv.Stock - rl.quantity

			case model.OrderLineGrade:
				assoc, err := s.grades.LockAssociationTx(tx, rl.assoc.ID)
				if err != nil {
					return err
				}
				rl.assoc.KitStock = assoc.KitStock
				if assoc.StockModel == model.GradeStockCounter {
					if assoc.KitStock < rl.quantity && !rl.product.SellWithoutStock {
						failures = append(failures, dto.LineFailure{
							Index:  rl.index,
							Reason: apperr.KindInsufficientStock.String(),
							Detail: fmt.Sprintf("requested %d kit(s), available %d", rl.quantity, assoc.KitStock),
						})
						continue
					}
					pl.newStock = assoc.KitStock - rl.quantity
				} else {
					short := false
					minKits := -1
					for di := range rl.derivedSizes {
						ds := &rl.derivedSizes[di]
						sv, err := s.products.LockSizeVariantTx(tx, ds.sizeVariant.ID)
						if err != nil {
							return err
						}
						ds.sizeVariant = sv
						need := ds.item.Quantity * rl.quantity
						if sv.Stock < need && !rl.product.SellWithoutStock {
							short = true
						}
						if kits := (sv.Stock - need) / ds.item.Quantity; minKits == -1 || kits < minKits {
							minKits = kits
						}
					}
					if short {
						failures = append(failures, dto.LineFailure{
							Index:  rl.index,
							Reason: apperr.KindInsufficientStock.String(),
							Detail: fmt.Sprintf("not enough size stock for %d kit(s)", rl.quantity),
						})
						continue
					}
					if minKits < 0 {
						minKits = 0
					}
					pl.newStock = minKits
				}
				// Kit price is captured here, from the template as it stands
				// at commit time — a template edited between browse and
				// checkout never leaks a stale price into the order.
				totalQty := rl.assoc.Template.TotalQuantity()
				pl.unitPrice = rl.product.BasePrice.Mul(decimal.NewFromInt(int64(totalQty)))
			}

			pl.subtotal = pl.unitPrice.Mul(decimal.NewFromInt(int64(rl.quantity)))
			priced = append(priced, pl)
		}
		if len(failures) > 0 {
			return &CommitError{Lines: failures}
		}

		// Phase 2: persist the order.
		number, err := s.repo.NextOrderNumber(ctx, tx)
		if err != nil {
			return err
		}
		total := decimal.Zero
		order := &model.Order{Number: number, Status: "committed"}
		for _, pl := range priced {
			total = total.Add(pl.subtotal)
			item := model.OrderItem{
				ProductID:      pl.product.ID,
				ColorVariantID: pl.variant.ID,
				Kind:           pl.kind,
				Quantity:       pl.quantity,
				UnitPrice:      pl.unitPrice,
				Subtotal:       pl.subtotal,
			}
			if pl.kind == model.OrderLineUnit {
				id := pl.sizeVariant.ID
				item.SizeVariantID = &id
			} else {
				id := pl.assoc.ID
				item.GradeID = &id
			}
			order.Items = append(order.Items, item)
		}
		order.Total = total
		if err := s.repo.Create(ctx, tx, order); err != nil {
			return err
		}

		// Phase 3: decrement stock and write the movement ledger. The
		// conditional updates are a second line of defense behind the row
		// locks — zero rows affected means another writer got there first.
		for _, pl := range priced {
			switch pl.kind {
			case model.OrderLineUnit:
				if err := s.decrementSize(tx, pl.product, pl.sizeVariant, pl.quantity, order, &failures, pl.index); err != nil {
					return err
				}
			case model.OrderLineGrade:
				if pl.assoc.StockModel == model.GradeStockCounter {
					if err := s.decrementKits(tx, pl.product, pl.assoc, pl.quantity, order, &failures, pl.index); err != nil {
						return err
					}
				} else {
					for _, ds := range pl.derivedSizes {
						need := ds.item.Quantity * pl.quantity
						if err := s.decrementSize(tx, pl.product, ds.sizeVariant, need, order, &failures, pl.index); err != nil {
							return err
						}
					}
				}
			}
		}
		if len(failures) > 0 {
			return &CommitError{Lines: failures}
		}

		resp = &dto.CommitResponse{
			OrderID: order.ID.String(),
			Number:  order.Number,
			Total:   order.Total,
		}
		for _, pl := range priced {
			resp.Lines = append(resp.Lines, dto.CommittedLine{
				Index:     pl.index,
				Kind:      pl.kind,
				UnitPrice: pl.unitPrice,
				Subtotal:  pl.subtotal,
				NewStock:  pl.newStock,
			})
		}
		return nil
	})
	if txErr != nil {
		var ce *CommitError
		if errors.As(txErr, &ce) {
			return nil, ce
		}
		return nil, txErr
	}

	for _, code := range distinctCodes(resolved) {
		s.availability.Invalidate(ctx, code)
	}

	// Receipt rendering is async, best effort.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, map[string]interface{}{"order_id": resp.OrderID})
	}

	return resp, nil
}

func (s *orderService) decrementSize(tx *gorm.DB, product *model.Product, sv *model.SizeVariant, qty int, order *model.Order, failures *[]dto.LineFailure, index int) error {
	if sv.Stock < qty {
		// Only reachable with sell_without_stock — the unconditional path.
		if err := s.products.AdjustSizeStockTx(tx, sv.ID, -qty); err != nil {
			return err
		}
	} else {
		ok, err := s.products.DecrementSizeStockTx(tx, sv.ID, qty)
		if err != nil {
			return err
		}
		if !ok {
			*failures = append(*failures, dto.LineFailure{
				Index:  index,
				Reason: apperr.KindInsufficientStock.String(),
				Detail: "stock changed while committing",
			})
			return nil
		}
	}
	orderRef := order.ID
	return s.movements.CreateTx(tx, &model.StockMovement{
		TargetKind:  model.MovementTargetSize,
		TargetID:    sv.ID,
		Type:        "order",
		Quantity:    -qty,
		StockBefore: sv.Stock,
		StockAfter:  sv.Stock - qty,
		Reason:      fmt.Sprintf("Order #%d", order.Number),
		OrderID:     &orderRef,
	})
}

func (s *orderService) decrementKits(tx *gorm.DB, product *model.Product, assoc *model.ProductColorGrade, kits int, order *model.Order, failures *[]dto.LineFailure, index int) error {
	if assoc.KitStock < kits {
		if err := s.grades.AdjustKitStockTx(tx, assoc.ID, -kits); err != nil {
			return err
		}
	} else {
		ok, err := s.grades.DecrementKitStockTx(tx, assoc.ID, kits)
		if err != nil {
			return err
		}
		if !ok {
			*failures = append(*failures, dto.LineFailure{
				Index:  index,
				Reason: apperr.KindInsufficientStock.String(),
				Detail: "kit stock changed while committing",
			})
			return nil
		}
	}
	orderRef := order.ID
	return s.movements.CreateTx(tx, &model.StockMovement{
		TargetKind:  model.MovementTargetGrade,
		TargetID:    assoc.ID,
		Type:        "order",
		Quantity:    -kits,
		StockBefore: assoc.KitStock,
		StockAfter:  assoc.KitStock - kits,
		Reason:      fmt.Sprintf("Order #%d", order.Number),
		OrderID:     &orderRef,
	})
}

// resolveLine validates the tagged shape of a commit line and translates
// its natural keys. sell_without_stock never rescues a missing entity.
func (s *orderService) resolveLine(ctx context.Context, index int, line dto.CommitLine) (*resolvedLine, error) {
	hasSize := line.Size != nil && *line.Size != ""
	hasGrade := line.Grade != nil && *line.Grade != ""
	if hasSize == hasGrade {
		return nil, apperr.Validation("line must reference exactly one of size or grade")
	}
	if line.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive, got %d", line.Quantity)
	}

	product, err := s.products.FindByCode(ctx, line.ProductCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", line.ProductCode)
		}
		return nil, err
	}
	if !product.Active {
		return nil, apperr.NotFound("product %s is inactive", line.ProductCode)
	}

	color, err := s.refs.FindColorByName(ctx, line.Color)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("color %q not found", line.Color)
		}
		return nil, err
	}
	variant, err := s.products.FindColorVariant(ctx, product.ID, color.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s has no color %q", line.ProductCode, line.Color)
		}
		return nil, err
	}

	rl := &resolvedLine{index: index, product: product, variant: variant, quantity: line.Quantity}

	if hasSize {
		if product.StockMode != model.StockModeUnit {
			return nil, apperr.Validation("product %s is sold in grade mode, not by size", line.ProductCode)
		}
		rl.kind = model.OrderLineUnit
		size, err := s.refs.FindSizeByName(ctx, *line.Size)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("size %q not found", *line.Size)
			}
			return nil, err
		}
		sv, err := s.products.FindSizeVariant(ctx, product.ID, variant.ID, size.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("product %s has no size %q in color %q", line.ProductCode, *line.Size, line.Color)
			}
			return nil, err
		}
		rl.sizeVariant = sv
		return rl, nil
	}

	if product.StockMode != model.StockModeGrade {
		return nil, apperr.Validation("product %s is sold by unit, not by grade", line.ProductCode)
	}
	rl.kind = model.OrderLineGrade
	template, err := s.grades.FindTemplateByName(ctx, *line.Grade)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("grade template %q not found", *line.Grade)
		}
		return nil, err
	}
	assoc, err := s.grades.FindAssociation(ctx, product.ID, variant.ID, template.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s color %q is not sold as grade %q", line.ProductCode, line.Color, *line.Grade)
		}
		return nil, err
	}
	assoc.Template = template
	rl.assoc = assoc

	if assoc.StockModel == model.GradeStockDerived {
		for _, item := range template.Items {
			sv, err := s.products.FindSizeVariant(ctx, product.ID, variant.ID, item.SizeID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFound("grade %q references a size missing for color %q", *line.Grade, line.Color)
				}
				return nil, err
			}
			rl.derivedSizes = append(rl.derivedSizes, derivedSize{item: item, sizeVariant: sv})
		}
	}
	return rl, nil
}

// ── Void ─────────────────────────────────────────────────────────────────────

func (s *orderService) VoidOrder(ctx context.Context, id uuid.UUID, reason string) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order not found")
		}
		return err
	}
	if order.Status == "voided" {
		return apperr.Conflict("order #%d is already voided", order.Number)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, item := range order.Items {
			orderRef := order.ID
			switch item.Kind {
			case model.OrderLineUnit:
				if item.SizeVariantID == nil {
					continue
				}
				sv, lerr := s.products.LockSizeVariantTx(tx, *item.SizeVariantID)
				if lerr != nil {
					return lerr
				}
				before := sv.Stock
				if aerr := s.products.AdjustSizeStockTx(tx, sv.ID, item.Quantity); aerr != nil {
					return aerr
				}
				if merr := s.movements.CreateTx(tx, &model.StockMovement{
					TargetKind:  model.MovementTargetSize,
					TargetID:    sv.ID,
					Type:        "order_void",
					Quantity:    item.Quantity,
					StockBefore: before,
					StockAfter:  before + item.Quantity,
					Reason:      fmt.Sprintf("Void order #%d — %s", order.Number, reason),
					OrderID:     &orderRef,
				}); merr != nil {
					return merr
				}
			case model.OrderLineGrade:
				if item.GradeID == nil {
					continue
				}
				assoc, lerr := s.grades.LockAssociationTx(tx, *item.GradeID)
				if lerr != nil {
					return lerr
				}
				if assoc.StockModel == model.GradeStockCounter {
					before := assoc.KitStock
					if aerr := s.grades.AdjustKitStockTx(tx, assoc.ID, item.Quantity); aerr != nil {
						return aerr
					}
					if merr := s.movements.CreateTx(tx, &model.StockMovement{
						TargetKind:  model.MovementTargetGrade,
						TargetID:    assoc.ID,
						Type:        "order_void",
						Quantity:    item.Quantity,
						StockBefore: before,
						StockAfter:  before + item.Quantity,
						Reason:      fmt.Sprintf("Void order #%d — %s", order.Number, reason),
						OrderID:     &orderRef,
					}); merr != nil {
						return merr
					}
				} else {
					// Derived accounting restores through the composition as
					// it stands today. A composition size whose variant no
					// longer exists aborts the void — a partial restore would
					// leave the ledger and the stocks disagreeing.
					full, ferr := s.grades.FindAssociationByID(ctx, assoc.ID)
					if ferr != nil {
						return ferr
					}
					for _, ti := range full.Template.Items {
						sv, serr := s.products.FindSizeVariant(ctx, item.ProductID, item.ColorVariantID, ti.SizeID)
						if serr != nil {
							if errors.Is(serr, gorm.ErrRecordNotFound) {
								return apperr.NotFound("order #%d: composition size %s has no size variant to restore", order.Number, ti.SizeID)
							}
							return serr
						}
						qty := ti.Quantity * item.Quantity
						before := sv.Stock
						if aerr := s.products.AdjustSizeStockTx(tx, sv.ID, qty); aerr != nil {
							return aerr
						}
						if merr := s.movements.CreateTx(tx, &model.StockMovement{
							TargetKind:  model.MovementTargetSize,
							TargetID:    sv.ID,
							Type:        "order_void",
							Quantity:    qty,
							StockBefore: before,
							StockAfter:  before + qty,
							Reason:      fmt.Sprintf("Void order #%d — %s", order.Number, reason),
							OrderID:     &orderRef,
						}); merr != nil {
							return merr
						}
					}
				}
			}
		}
		return s.repo.UpdateStatusTx(tx, id, "voided")
	})
	if txErr != nil {
		return txErr
	}

	// Invalidate every touched product's availability cache.
	seen := map[uuid.UUID]bool{}
	for _, item := range order.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			if p, perr := s.products.FindByID(ctx, item.ProductID); perr == nil {
				s.availability.Invalidate(ctx, p.Code)
			}
		}
	}
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, err
	}
	return o, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderListItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, dto.OrderListItem{
			ID:        o.ID.String(),
			Number:    o.Number,
			Status:    o.Status,
			Total:     o.Total,
			LineCount: len(o.Items),
			CreatedAt: o.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return &dto.OrderListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func lineFailure(index int, err error) dto.LineFailure {
	return dto.LineFailure{
		Index:  index,
		Reason: apperr.KindOf(err).String(),
		Detail: err.Error(),
	}
}

func distinctCodes(lines []*resolvedLine) []string {
	seen := map[string]bool{}
	var out []string
	for _, rl := range lines {
		if !seen[rl.product.Code] {
			seen[rl.product.Code] = true
			out = append(out, rl.product.Code)
		}
	}
	return out
}
