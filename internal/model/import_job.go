package model

import (
	"time"

	"github.com/google/uuid"
)

// Import job states.
const (
	ImportQueued  = "queued"
	ImportRunning = "running"
	ImportDone    = "done"
	ImportFailed  = "failed"
)

// ImportJob tracks one bulk reconciliation batch. Live progress is mirrored
// in Redis while the job runs (pollable without hitting Postgres per poll);
// the final counters and the full report land here when it finishes.
type ImportJob struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status    string    `gorm:"not null;default:'queued'"`
	Total     int       `gorm:"not null;default:0"`
	Processed int       `gorm:"not null;default:0"`
	Success   int       `gorm:"not null;default:0"`
	Errors    int       `gorm:"not null;default:0"`
	// Report is the full structured reconciliation report (JSON): entity
	// created/reused counters plus per-row outcomes.
	Report    []byte `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ImportJob) TableName() string { return "import_jobs" }
