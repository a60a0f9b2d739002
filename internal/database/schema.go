package database

import (
	"context"
	"fmt"
	"log/slog"

	"scrolla/internal/config"
	"scrolla/internal/middleware"
)

// SchemaStatus summarises what ApplySchema would do.
type SchemaStatus struct {
	Driver             string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPolicy: SQLite is always auto-migrated; PostgreSQL runs the SQL
// migrations, followed by AutoMigrate outside production.
func schemaPolicy(store *Store, cfg *config.Config) (runSQL, runAuto bool) {
	if store.Driver() == "sqlite" {
		return false, true
	}
	return true, !cfg.IsProduction()
}

// AutoMigrate creates or updates every table in PersistentModels.
func AutoMigrate(ctx context.Context, store *Store) error {
	return store.DB().WithContext(ctx).AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database schema up to date.
func ApplySchema(ctx context.Context, store *Store, cfg *config.Config) error {
	runSQL, runAuto := schemaPolicy(store, cfg)

	if runSQL {
		if err := RunMigrations(ctx, store.DB()); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if runAuto {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("driver", store.Driver()), slog.String("env", cfg.Env))
		if err := AutoMigrate(ctx, store); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports applied and pending migrations without changing anything.
func GetSchemaStatus(ctx context.Context, store *Store, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto := schemaPolicy(store, cfg)
	status := &SchemaStatus{
		Driver:             store.Driver(),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}
	if !runSQL {
		return status, nil
	}

	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	if err := store.DB().WithContext(ctx).Exec(ensureMigrationLogTableSQL).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure migration logs table: %w", err)
	}
	applied, err := NewMigrationStore(store.DB()).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range all {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
