package service

import (
	"context"
	"strings"
	"sync"

	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Reference repo stub ───────────────────────────────────────────────────────

type stubRefRepo struct {
	mu         sync.Mutex
	categories map[string]*model.Category
	types      map[string]*model.ProductType
	genders    map[string]*model.Gender
	colors     map[string]*model.Color
	sizes      map[string]*model.Size
	sizeOrder  int
}

func newStubRefRepo() *stubRefRepo {
	return &stubRefRepo{
		categories: make(map[string]*model.Category),
		types:      make(map[string]*model.ProductType),
		genders:    make(map[string]*model.Gender),
		colors:     make(map[string]*model.Color),
		sizes:      make(map[string]*model.Size),
	}
}

func (r *stubRefRepo) EnsureCategory(_ context.Context, name string) (*model.Category, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeName(name)
	if c, ok := r.categories[key]; ok {
		return c, false, nil
	}
	c := &model.Category{ID: uuid.New(), Name: strings.TrimSpace(name), NameKey: key, Active: true}
	r.categories[key] = c
	return c, true, nil
}

func (r *stubRefRepo) EnsureType(_ context.Context, name string) (*model.ProductType, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeName(name)
	if t, ok := r.types[key]; ok {
		return t, false, nil
	}
	t := &model.ProductType{ID: uuid.New(), Name: strings.TrimSpace(name), NameKey: key, Active: true}
	r.types[key] = t
	return t, true, nil
}

func (r *stubRefRepo) EnsureGender(_ context.Context, name string) (*model.Gender, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeName(name)
	if g, ok := r.genders[key]; ok {
		return g, false, nil
	}
	g := &model.Gender{ID: uuid.New(), Name: strings.TrimSpace(name), NameKey: key, Active: true}
	r.genders[key] = g
	return g, true, nil
}

func (r *stubRefRepo) EnsureColor(_ context.Context, name string, hex *string) (*model.Color, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeName(name)
	if c, ok := r.colors[key]; ok {
		if c.Hex == nil && hex != nil {
			c.Hex = hex
		}
		return c, false, nil
	}
	c := &model.Color{ID: uuid.New(), Name: strings.TrimSpace(name), NameKey: key, Hex: hex, Active: true}
	r.colors[key] = c
	return c, true, nil
}

func (r *stubRefRepo) EnsureSize(_ context.Context, name string) (*model.Size, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := model.NormalizeName(name)
	if s, ok := r.sizes[key]; ok {
		return s, false, nil
	}
	r.sizeOrder++
	s := &model.Size{ID: uuid.New(), Name: strings.TrimSpace(name), NameKey: key, DisplayOrder: r.sizeOrder, Active: true}
	r.sizes[key] = s
	return s, true, nil
}

func (r *stubRefRepo) FindColorByName(_ context.Context, name string) (*model.Color, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.colors[model.NormalizeName(name)]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRefRepo) FindSizeByName(_ context.Context, name string) (*model.Size, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sizes[model.NormalizeName(name)]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRefRepo) FindSizeByID(_ context.Context, id uuid.UUID) (*model.Size, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sizes {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRefRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubRefRepo) ListTypes(_ context.Context) ([]model.ProductType, error) {
	out := make([]model.ProductType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubRefRepo) ListGenders(_ context.Context) ([]model.Gender, error) {
	out := make([]model.Gender, 0, len(r.genders))
	for _, g := range r.genders {
		out = append(out, *g)
	}
	return out, nil
}

func (r *stubRefRepo) ListColors(_ context.Context) ([]model.Color, error) {
	out := make([]model.Color, 0, len(r.colors))
	for _, c := range r.colors {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubRefRepo) ListSizes(_ context.Context) ([]model.Size, error) {
	out := make([]model.Size, 0, len(r.sizes))
	for _, s := range r.sizes {
		out = append(out, *s)
	}
	return out, nil
}

var _ repository.ReferenceRepository = (*stubRefRepo)(nil)

// ── Product repo stub ─────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu            sync.Mutex
	products      map[uuid.UUID]*model.Product
	colorVariants []*model.ColorVariant
	sizeVariants  []*model.SizeVariant
	grades        *stubGradeRepo // for SKUExists across tables
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Code == p.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if filter.Active != "all" {
			wantActive := filter.Active != "false"
			if p.Active != wantActive {
				continue
			}
		}
		if filter.Code != "" && p.Code != filter.Code {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) UpdateStockMode(_ context.Context, id uuid.UUID, mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.StockMode = mode
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) CreateColorVariant(_ context.Context, v *model.ColorVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.colorVariants {
		if existing.ProductID == v.ProductID && existing.ColorID == v.ColorID {
			return gorm.ErrDuplicatedKey
		}
		if existing.SKU == v.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.colorVariants = append(r.colorVariants, v)
	return nil
}

func (r *stubProductRepo) FindColorVariant(_ context.Context, productID, colorID uuid.UUID) (*model.ColorVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.colorVariants {
		if v.ProductID == productID && v.ColorID == colorID {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) ListColorVariants(_ context.Context, productID uuid.UUID) ([]model.ColorVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ColorVariant
	for _, v := range r.colorVariants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubProductRepo) UpdateColorVariant(_ context.Context, v *model.ColorVariant) error {
	return nil // stored by pointer, already updated
}

func (r *stubProductRepo) CreateSizeVariant(_ context.Context, v *model.SizeVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sizeVariants {
		if existing.ProductID == v.ProductID && existing.ColorVariantID == v.ColorVariantID && existing.SizeID == v.SizeID {
			return gorm.ErrDuplicatedKey
		}
		if existing.SKU == v.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.sizeVariants = append(r.sizeVariants, v)
	return nil
}

func (r *stubProductRepo) FindSizeVariant(_ context.Context, productID, colorVariantID, sizeID uuid.UUID) (*model.SizeVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sizeVariants {
		if v.ProductID == productID && v.ColorVariantID == colorVariantID && v.SizeID == sizeID {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) ListSizeVariants(_ context.Context, colorVariantID uuid.UUID) ([]model.SizeVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SizeVariant
	for _, v := range r.sizeVariants {
		if v.ColorVariantID == colorVariantID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubProductRepo) SetSizeVariantStock(_ context.Context, id uuid.UUID, stock int, priceOverride interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sizeVariants {
		if v.ID == id {
			v.Stock = stock
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) SKUExists(_ context.Context, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.colorVariants {
		if v.SKU == sku {
			return true, nil
		}
	}
	for _, v := range r.sizeVariants {
		if v.SKU == sku {
			return true, nil
		}
	}
	if r.grades != nil {
		for _, a := range r.grades.associations {
			if a.SKU == sku {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *stubProductRepo) LockSizeVariantTx(_ *gorm.DB, id uuid.UUID) (*model.SizeVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sizeVariants {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) DecrementSizeStockTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sizeVariants {
		if v.ID == id {
			if v.Stock < qty {
				return false, nil
			}
			v.Stock -= qty
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductRepo) AdjustSizeStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sizeVariants {
		if v.ID == id {
			v.Stock += delta
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Grade repo stub ───────────────────────────────────────────────────────────

type stubGradeRepo struct {
	mu           sync.Mutex
	templates    []*model.GradeTemplate
	associations []*model.ProductColorGrade
}

func newStubGradeRepo() *stubGradeRepo { return &stubGradeRepo{} }

func (r *stubGradeRepo) CreateTemplate(_ context.Context, t *model.GradeTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.templates {
		if existing.Name == t.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	for i := range t.Items {
		if t.Items[i].ID == uuid.Nil {
			t.Items[i].ID = uuid.New()
		}
		t.Items[i].GradeTemplateID = t.ID
	}
	r.templates = append(r.templates, t)
	return nil
}

func (r *stubGradeRepo) FindTemplateByID(_ context.Context, id uuid.UUID) (*model.GradeTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) FindTemplateByName(_ context.Context, name string) (*model.GradeTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) ListTemplates(_ context.Context) ([]model.GradeTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.GradeTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubGradeRepo) CreateAssociation(_ context.Context, a *model.ProductColorGrade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.associations {
		if existing.ProductID == a.ProductID && existing.ColorVariantID == a.ColorVariantID && existing.GradeTemplateID == a.GradeTemplateID {
			return gorm.ErrDuplicatedKey
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.associations = append(r.associations, a)
	return nil
}

func (r *stubGradeRepo) FindAssociation(_ context.Context, productID, colorVariantID, templateID uuid.UUID) (*model.ProductColorGrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ProductID == productID && a.ColorVariantID == colorVariantID && a.GradeTemplateID == templateID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) FindAssociationByID(_ context.Context, id uuid.UUID) (*model.ProductColorGrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ID == id {
			if a.Template == nil {
				for _, t := range r.templates {
					if t.ID == a.GradeTemplateID {
						a.Template = t
					}
				}
			}
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) ListAssociations(_ context.Context, productID, colorVariantID uuid.UUID) ([]model.ProductColorGrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductColorGrade
	for _, a := range r.associations {
		if a.ProductID == productID && a.ColorVariantID == colorVariantID {
			cp := *a
			if cp.Template == nil {
				for _, t := range r.templates {
					if t.ID == cp.GradeTemplateID {
						cp.Template = t
					}
				}
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *stubGradeRepo) ProductHasAssociations(_ context.Context, productID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubGradeRepo) SetKitStock(_ context.Context, id uuid.UUID, kits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ID == id {
			a.KitStock = kits
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) LockAssociationTx(_ *gorm.DB, id uuid.UUID) (*model.ProductColorGrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) DecrementKitStockTx(_ *gorm.DB, id uuid.UUID, kits int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ID == id {
			if a.KitStock < kits {
				return false, nil
			}
			a.KitStock -= kits
			return true, nil
		}
	}
	return false, nil
}

func (r *stubGradeRepo) AdjustKitStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.associations {
		if a.ID == id {
			a.KitStock += delta
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubGradeRepo) DB() *gorm.DB { return nil }

var _ repository.GradeRepository = (*stubGradeRepo)(nil)

// ── Order repo stub ───────────────────────────────────────────────────────────

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
	seq    int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order), seq: 999}
}

func (r *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) NextOrderNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) HasCommittedItems(_ context.Context, productID uuid.UUID, kind string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Status != "committed" {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID && it.Kind == kind {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── Stock movement repo stub ──────────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	return r.CreateTx(nil, m)
}

func (r *stubMovementRepo) ListByTarget(_ context.Context, targetID uuid.UUID, _ int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.TargetID == targetID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Import job repo stub ──────────────────────────────────────────────────────

type stubImportJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.ImportJob
}

func newStubImportJobRepo() *stubImportJobRepo {
	return &stubImportJobRepo{jobs: make(map[uuid.UUID]*model.ImportJob)}
}

func (r *stubImportJobRepo) Create(_ context.Context, j *model.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	r.jobs[j.ID] = j
	return nil
}

func (r *stubImportJobRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		return j, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubImportJobRepo) Update(_ context.Context, j *model.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	return nil
}

var _ repository.ImportJobRepository = (*stubImportJobRepo)(nil)
