package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet-analytics/internal/config"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS report_snapshots (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		group_id TEXT NOT NULL,
		group_name TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		range_start TIMESTAMPTZ NOT NULL,
		range_end TIMESTAMPTZ NOT NULL,
		total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		active_units INTEGER NOT NULL DEFAULT 0,
		day_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_report_snapshots_username ON report_snapshots (username);`,
	`CREATE INDEX IF NOT EXISTS idx_report_snapshots_created_at ON report_snapshots (created_at);`,
}

func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, err
	}

	log.Info().Msg("database ready")
	return database, nil
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
