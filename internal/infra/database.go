package infra

import (
	"fmt"

	"amexing/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes over current client prices, jsonb GIN index).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	if err := db.AutoMigrate(
		&model.POI{},
		&model.Rate{},
		&model.VehicleType{},
		&model.Service{},
		&model.Tour{},
		&model.Experience{},
		&model.RatePrice{},
		&model.TourPrice{},
		&model.ClientPrice{},
		&model.Quote{},
		&model.QuoteRevision{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// At most one current (valid_until IS NULL) override per pricing key.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'client_prices')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_client_prices_current') THEN
		    CREATE UNIQUE INDEX idx_client_prices_current
		        ON client_prices (client_ref, item_type, item_id, rate_id, vehicle_type_id)
		        WHERE valid_until IS NULL AND exists = true;
		  END IF;
		END $$`,
		// History lookups walk the full version chain per key, newest first.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'client_prices')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_client_prices_history') THEN
		    CREATE INDEX idx_client_prices_history
		        ON client_prices (client_ref, item_type, item_id, created_at DESC);
		  END IF;
		END $$`,
		// Revisions are read per quote, newest first.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'quote_revisions')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_quote_revisions_quote') THEN
		    CREATE INDEX idx_quote_revisions_quote
		        ON quote_revisions (quote_id, created_at DESC);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// RunMigrations applies the full schema for integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.POI{},
		&model.Rate{},
		&model.VehicleType{},
		&model.Service{},
		&model.Tour{},
		&model.Experience{},
		&model.RatePrice{},
		&model.TourPrice{},
		&model.ClientPrice{},
		&model.Quote{},
		&model.QuoteRevision{},
	); err != nil {
		return err
	}
	return applySchemaPatches(db)
}
