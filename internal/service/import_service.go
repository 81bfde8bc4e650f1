package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tropicalstore/internal/apperr"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/repository"
	"tropicalstore/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const importProgressPrefix = "import:progress:"

// ImportService is the bulk reconciler: it takes pre-parsed rows, runs each
// one through the same upsert path the catalog API uses, and produces a
// structured report. One bad row never aborts the batch.
type ImportService interface {
	Enqueue(ctx context.Context, rows []dto.ImportRow) (*dto.ImportStatus, error)
	Status(ctx context.Context, jobID uuid.UUID) (*dto.ImportStatus, error)

	// Reconcile runs the batch. Called by the import worker; exported so a
	// synchronous caller (tests, CLI seeding) can drive it directly.
	Reconcile(ctx context.Context, jobID uuid.UUID, rows []dto.ImportRow) error
}

type importService struct {
	jobs         repository.ImportJobRepository
	refs         repository.ReferenceRepository
	products     repository.ProductRepository
	catalog      CatalogService
	availability AvailabilityService
	dispatcher   *worker.Dispatcher
	rdb          *redis.Client
	rowTimeout   time.Duration
}

func NewImportService(
	jobs repository.ImportJobRepository,
	refs repository.ReferenceRepository,
	products repository.ProductRepository,
	catalog CatalogService,
	availability AvailabilityService,
	dispatcher *worker.Dispatcher,
	rdb *redis.Client,
	rowTimeout time.Duration,
) ImportService {
	if rowTimeout <= 0 {
		rowTimeout = 10 * time.Second
	}
	return &importService{
		jobs:         jobs,
		refs:         refs,
		products:     products,
		catalog:      catalog,
		availability: availability,
		dispatcher:   dispatcher,
		rdb:          rdb,
		rowTimeout:   rowTimeout,
	}
}

// ── Enqueue / Status ─────────────────────────────────────────────────────────

func (s *importService) Enqueue(ctx context.Context, rows []dto.ImportRow) (*dto.ImportStatus, error) {
	if len(rows) == 0 {
		return nil, apperr.Validation("import requires at least one row")
	}

	job := &model.ImportJob{Status: model.ImportQueued, Total: len(rows)}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	payload := worker.ImportJobPayload{JobID: job.ID.String(), Rows: rows}
	if err := s.dispatcher.EnqueueImport(ctx, payload); err != nil {
		job.Status = model.ImportFailed
		_ = s.jobs.Update(ctx, job)
		return nil, err
	}

	return &dto.ImportStatus{
		JobID:     job.ID.String(),
		Status:    job.Status,
		Total:     job.Total,
		IsRunning: false,
	}, nil
}

func (s *importService) Status(ctx context.Context, jobID uuid.UUID) (*dto.ImportStatus, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("import job not found")
		}
		return nil, err
	}

	status := &dto.ImportStatus{
		JobID:     job.ID.String(),
		Status:    job.Status,
		Total:     job.Total,
		Processed: job.Processed,
		Success:   job.Success,
		Errors:    job.Errors,
		IsRunning: job.Status == model.ImportRunning,
	}

	// Live progress for a running batch is mirrored in Redis so polls stay
	// off the hot Postgres row.
	if status.IsRunning && s.rdb != nil {
		if vals, rerr := s.rdb.HGetAll(ctx, importProgressPrefix+job.ID.String()).Result(); rerr == nil && len(vals) > 0 {
			fmt.Sscanf(vals["processed"], "%d", &status.Processed)
			fmt.Sscanf(vals["success"], "%d", &status.Success)
			fmt.Sscanf(vals["errors"], "%d", &status.Errors)
		}
	}

	if job.Status == model.ImportDone && len(job.Report) > 0 {
		var report dto.ImportReport
		if jerr := json.Unmarshal(job.Report, &report); jerr == nil {
			status.Report = &report
		}
	}
	return status, nil
}

// ── Reconcile ────────────────────────────────────────────────────────────────

func (s *importService) Reconcile(ctx context.Context, jobID uuid.UUID, rows []dto.ImportRow) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = model.ImportRunning
	job.Total = len(rows)
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}

	report := dto.ImportReport{Total: len(rows)}
	touched := map[string]bool{}

	for i, row := range rows {
		outcome := s.reconcileRow(ctx, row, &report)
		report.Rows = append(report.Rows, dto.RowOutcome{
			Row:     i,
			Outcome: outcome.Outcome,
			Error:   outcome.Error,
		})
		if outcome.Error == "" {
			report.Success++
			touched[row.ProductCode] = true
		} else {
			report.Errors++
		}
		s.publishProgress(ctx, jobID, i+1, report.Success, report.Errors)
	}

	for code := range touched {
		s.availability.Invalidate(ctx, code)
	}

	job.Status = model.ImportDone
	job.Processed = len(rows)
	job.Success = report.Success
	job.Errors = report.Errors
	if data, merr := json.Marshal(report); merr == nil {
		job.Report = data
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, importProgressPrefix+jobID.String()).Err()
	}

	log.Info().
		Str("job_id", jobID.String()).
		Int("total", report.Total).
		Int("success", report.Success).
		Int("errors", report.Errors).
		Msg("import: batch reconciled")
	return nil
}

// reconcileRow processes one row under its own deadline. Every failure is
// row-scoped: the returned outcome carries the error kind and the batch
// moves on.
func (s *importService) reconcileRow(ctx context.Context, row dto.ImportRow, report *dto.ImportReport) dto.RowOutcome {
	rowCtx, cancel := context.WithTimeout(ctx, s.rowTimeout)
	defer cancel()

	outcome, err := s.applyRow(rowCtx, row, report)
	if err != nil {
		kind := apperr.KindOf(err)
		return dto.RowOutcome{Outcome: "error:" + kind.String(), Error: err.Error()}
	}
	return dto.RowOutcome{Outcome: outcome}
}

func (s *importService) applyRow(ctx context.Context, row dto.ImportRow, report *dto.ImportReport) (string, error) {
	hasSize := row.Size != nil && *row.Size != ""
	hasGrade := row.Grade != nil && *row.Grade != ""
	if hasSize == hasGrade {
		return "", apperr.Validation("row must carry exactly one of size or grade")
	}
	if row.Quantity < 0 {
		return "", apperr.Validation("quantity must not be negative, got %d", row.Quantity)
	}
	if row.ProductCode == "" || row.ProductName == "" {
		return "", apperr.Validation("product_code and product_name are required")
	}
	if row.Category == "" || row.Type == "" || row.Gender == "" || row.Color == "" {
		return "", apperr.Validation("category, type, gender and color are required")
	}

	// Reference entities are ensured here first so the report can tell
	// created from reused. The catalog upserts re-ensure them internally,
	// which is a no-op by then.
	if _, created, err := s.refs.EnsureCategory(ctx, row.Category); err != nil {
		return "", err
	} else {
		tally(&report.Categories, created)
	}
	if _, created, err := s.refs.EnsureType(ctx, row.Type); err != nil {
		return "", err
	} else {
		tally(&report.Types, created)
	}
	if _, created, err := s.refs.EnsureGender(ctx, row.Gender); err != nil {
		return "", err
	} else {
		tally(&report.Genders, created)
	}
	if _, created, err := s.refs.EnsureColor(ctx, row.Color, row.ColorHex); err != nil {
		return "", err
	} else {
		tally(&report.Colors, created)
	}
	if hasSize {
		if _, created, err := s.refs.EnsureSize(ctx, *row.Size); err != nil {
			return "", err
		} else {
			tally(&report.Sizes, created)
		}
	}
	for _, entry := range row.Composition {
		if _, created, err := s.refs.EnsureSize(ctx, entry.Size); err != nil {
			return "", err
		} else {
			tally(&report.Sizes, created)
		}
	}

	mode := model.StockModeUnit
	if hasGrade {
		mode = model.StockModeGrade
	}

	productReq := dto.UpsertProductRequest{
		Code:             row.ProductCode,
		Name:             row.ProductName,
		Description:      row.Description,
		Category:         row.Category,
		Type:             row.Type,
		Gender:           row.Gender,
		SuggestedPrice:   row.SuggestedPrice,
		StockMode:        mode,
		SellWithoutStock: row.SellWithoutStock,
	}
	if row.BasePrice != nil {
		productReq.BasePrice = *row.BasePrice
	} else {
		// Re-imports may omit the price; new products may not.
		existing, err := s.products.FindByCode(ctx, row.ProductCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperr.Validation("base_price is required for new product %s", row.ProductCode)
			}
			return "", err
		}
		productReq.BasePrice = existing.BasePrice
	}

	productRes, err := s.catalog.UpsertProduct(ctx, productReq)
	if err != nil {
		return "", err
	}
	tally(&report.Products, productRes.Created)

	colorRes, err := s.catalog.UpsertColorVariant(ctx, row.ProductCode, dto.UpsertColorVariantRequest{
		Color:    row.Color,
		ColorHex: row.ColorHex,
	})
	if err != nil {
		return "", err
	}
	tally(&report.Variants, colorRes.Created)

	if hasSize {
		_, err = s.catalog.UpsertSizeVariant(ctx, row.ProductCode, dto.UpsertSizeVariantRequest{
			Color: row.Color,
			Size:  *row.Size,
			Stock: row.Quantity,
			SKU:   row.SKU,
		})
		if err != nil {
			return "", err
		}
	} else {
		kitStock := row.Quantity
		gradeRes, gerr := s.catalog.UpsertGradeAssociation(ctx, row.ProductCode, dto.UpsertGradeAssociationRequest{
			Color:       row.Color,
			Template:    *row.Grade,
			Composition: row.Composition,
			KitStock:    &kitStock,
			SKU:         row.SKU,
		})
		if gerr != nil {
			return "", gerr
		}
		tally(&report.Grades, gradeRes.Created)
	}

	if productRes.Created {
		return dto.RowCreated, nil
	}
	return dto.RowUpdated, nil
}

func (s *importService) publishProgress(ctx context.Context, jobID uuid.UUID, processed, success, errCount int) {
	if s.rdb == nil {
		return
	}
	key := importProgressPrefix + jobID.String()
	_ = s.rdb.HSet(ctx, key,
		"processed", processed,
		"success", success,
		"errors", errCount,
	).Err()
	_ = s.rdb.Expire(ctx, key, time.Hour).Err()
}

func tally(c *dto.EntityCounter, created bool) {
	if created {
		c.Created++
	} else {
		c.Reused++
	}
}
