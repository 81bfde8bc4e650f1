package infra

import (
	"fmt"

	"tropicalstore/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches
// that GORM cannot express (sequences, partial indexes).
//
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey — the insert-or-reread upsert primitives in the
// repositories depend on it.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the full schema. Also used by integration tests
// against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Category{},
		&model.ProductType{},
		&model.Gender{},
		&model.Color{},
		&model.Size{},
		&model.Product{},
		&model.ColorVariant{},
		&model.SizeVariant{},
		&model.GradeTemplate{},
		&model.GradeTemplateItem{},
		&model.ProductColorGrade{},
		&model.StockMovement{},
		&model.Order{},
		&model.OrderItem{},
		&model.ImportJob{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Order numbers come from a dedicated sequence so they stay
		// monotonic across concurrent commits.
		{"order number sequence",
			`CREATE SEQUENCE IF NOT EXISTS order_number_seq START 1000`},

		// Ledger reads are always per target, newest first. No CHECK
		// constraint on stock: sell_without_stock products legitimately go
		// below zero, so non-negativity is enforced by the conditional
		// UPDATEs alone.
		{"movement ledger lookup index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_movements_target') THEN
    CREATE INDEX idx_stock_movements_target
        ON stock_movements (target_kind, target_id, created_at DESC);
  END IF;
END $$`},

		{"committed order lookup index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_order_items_product_kind') THEN
    CREATE INDEX idx_order_items_product_kind
        ON order_items (product_id, kind);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
