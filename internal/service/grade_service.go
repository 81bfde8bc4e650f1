package service

import (
	"context"
	"errors"
	"fmt"

	"tropicalstore/internal/apperr"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxNameVariants bounds the disambiguation loop so a pathological batch
// cannot spin forever on one template name.
const maxNameVariants = 50

// GradeService is the grade template engine: it materializes named size
// compositions and guards their integrity. A template that orders were
// placed against is never mutated — a same-name request with a differing
// composition yields a NEW template under a disambiguated name.
type GradeService interface {
	ResolveOrCreateTemplate(ctx context.Context, name string, composition []dto.CompositionEntry) (*TemplateResult, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*dto.TemplateResponse, error)
	ListTemplates(ctx context.Context) ([]dto.TemplateResponse, error)
}

// TemplateResult reports what ResolveOrCreateTemplate did. VariantCreated
// flags that the requested name was taken by a differing composition and
// the returned template lives under a disambiguated name.
type TemplateResult struct {
	Template       *model.GradeTemplate
	Created        bool
	VariantCreated bool
	RequestedName  string
}

type gradeService struct {
	repo repository.GradeRepository
	refs repository.ReferenceRepository
}

func NewGradeService(repo repository.GradeRepository, refs repository.ReferenceRepository) GradeService {
	return &gradeService{repo: repo, refs: refs}
}

func (s *gradeService) ResolveOrCreateTemplate(ctx context.Context, name string, composition []dto.CompositionEntry) (*TemplateResult, error) {
	if name == "" {
		return nil, apperr.Validation("template name is required")
	}
	if len(composition) == 0 {
		return nil, apperr.Validation("template %q has an empty composition", name)
	}

	seen := make(map[string]bool, len(composition))
	for _, entry := range composition {
		if entry.Quantity <= 0 {
			return nil, apperr.Validation("template %q: size %q has non-positive quantity %d", name, entry.Size, entry.Quantity)
		}
		key := model.NormalizeName(entry.Size)
		if key == "" {
			return nil, apperr.Validation("template %q has a composition row with an empty size name", name)
		}
		if seen[key] {
			return nil, apperr.Validation("template %q: duplicate size %q in composition", name, entry.Size)
		}
		seen[key] = true
	}

	// Resolve sizes in composition order, auto-creating unknown ones at the
	// end of the display order.
	want := make(map[uuid.UUID]int, len(composition))
	items := make([]model.GradeTemplateItem, 0, len(composition))
	for i, entry := range composition {
		size, _, err := s.refs.EnsureSize(ctx, entry.Size)
		if err != nil {
			return nil, err
		}
		want[size.ID] = entry.Quantity
		items = append(items, model.GradeTemplateItem{
			SizeID:   size.ID,
			Quantity: entry.Quantity,
			Position: i,
		})
	}

	// Walk name, "name (2)", "name (3)", ... — reuse the first candidate
	// whose composition matches, create under the first free name otherwise.
	for attempt := 1; attempt <= maxNameVariants; attempt++ {
		candidate := name
		if attempt > 1 {
			candidate = fmt.Sprintf("%s (%d)", name, attempt)
		}

		existing, err := s.repo.FindTemplateByName(ctx, candidate)
		if err == nil {
			if compositionMatches(existing, want) {
				return &TemplateResult{
					Template:       existing,
					Created:        false,
					VariantCreated: candidate != name,
					RequestedName:  name,
				}, nil
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		t := &model.GradeTemplate{Name: candidate, Active: true, Items: items}
		if cerr := s.repo.CreateTemplate(ctx, t); cerr != nil {
			if errors.Is(cerr, gorm.ErrDuplicatedKey) {
				// Concurrent create under the same name — re-evaluate this
				// candidate on the next pass.
				attempt--
				continue
			}
			return nil, cerr
		}
		created, ferr := s.repo.FindTemplateByID(ctx, t.ID)
		if ferr != nil {
			return nil, ferr
		}
		return &TemplateResult{
			Template:       created,
			Created:        true,
			VariantCreated: candidate != name,
			RequestedName:  name,
		}, nil
	}

	return nil, apperr.Conflict("template %q: too many composition variants under this name", name)
}

// compositionMatches compares a stored template against a resolved
// (size → quantity) map, ignoring row order.
func compositionMatches(t *model.GradeTemplate, want map[uuid.UUID]int) bool {
	if len(t.Items) != len(want) {
		return false
	}
	for _, it := range t.Items {
		if want[it.SizeID] != it.Quantity {
			return false
		}
	}
	return true
}

func (s *gradeService) GetTemplate(ctx context.Context, id uuid.UUID) (*dto.TemplateResponse, error) {
	t, err := s.repo.FindTemplateByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("grade template not found")
		}
		return nil, err
	}
	resp := templateToResponse(t)
	return &resp, nil
}

func (s *gradeService) ListTemplates(ctx context.Context) ([]dto.TemplateResponse, error) {
	list, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TemplateResponse, 0, len(list))
	for i := range list {
		out = append(out, templateToResponse(&list[i]))
	}
	return out, nil
}

func templateToResponse(t *model.GradeTemplate) dto.TemplateResponse {
	items := make([]dto.TemplateItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		sizeName := ""
		if it.Size != nil {
			sizeName = it.Size.Name
		}
		items = append(items, dto.TemplateItemResponse{Size: sizeName, Quantity: it.Quantity})
	}
	return dto.TemplateResponse{
		ID:            t.ID.String(),
		Name:          t.Name,
		TotalQuantity: t.TotalQuantity(),
		Items:         items,
	}
}
