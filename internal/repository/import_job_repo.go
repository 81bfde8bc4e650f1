package repository

import (
	"context"

	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImportJobRepository interface {
	Create(ctx context.Context, j *model.ImportJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ImportJob, error)
	Update(ctx context.Context, j *model.ImportJob) error
}

type importJobRepo struct{ db *gorm.DB }

func NewImportJobRepository(db *gorm.DB) ImportJobRepository { return &importJobRepo{db: db} }

func (r *importJobRepo) Create(ctx context.Context, j *model.ImportJob) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *importJobRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ImportJob, error) {
	var j model.ImportJob
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	return &j, err
}

func (r *importJobRepo) Update(ctx context.Context, j *model.ImportJob) error {
	return r.db.WithContext(ctx).Save(j).Error
}
