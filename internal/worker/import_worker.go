package worker

// import_worker.go
// Processes bulk-reconciliation jobs from QueueImport. The heavy lifting
// lives in the import service; the worker is the queue-facing shim.

import (
	"context"
	"encoding/json"

	"tropicalstore/internal/dto"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ImportJobPayload is the job envelope sent to QueueImport. Rows travel
// inside the payload so the worker needs no second storage round-trip.
type ImportJobPayload struct {
	JobID string          `json:"job_id"`
	Rows  []dto.ImportRow `json:"rows"`
}

// Reconciler runs a parsed import batch against the catalog. Implemented
// by the import service; declared here so the worker package never
// imports the service package.
type Reconciler interface {
	Reconcile(ctx context.Context, jobID uuid.UUID, rows []dto.ImportRow) error
}

type ImportWorker struct {
	reconciler Reconciler
}

func NewImportWorker(reconciler Reconciler) *ImportWorker {
	return &ImportWorker{reconciler: reconciler}
}

// Process handles one import job. A returned error means the batch could
// not run at all (bad payload errors are swallowed — retrying cannot fix
// them); row-level failures are recorded in the job report instead.
func (w *ImportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ImportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("import_worker: invalid payload")
		return nil
	}
	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		log.Error().Str("job_id", payload.JobID).Msg("import_worker: invalid job_id")
		return nil
	}

	log.Info().Str("job_id", payload.JobID).Int("rows", len(payload.Rows)).Msg("import_worker: batch started")
	if err := w.reconciler.Reconcile(ctx, jobID, payload.Rows); err != nil {
		log.Error().Err(err).Str("job_id", payload.JobID).Msg("import_worker: batch failed")
		return err
	}
	log.Info().Str("job_id", payload.JobID).Msg("import_worker: batch finished")
	return nil
}
