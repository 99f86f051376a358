package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"tripsocial/internal/observability"
)

// SchemaStatus reports what ApplySchema will do for an environment.
type SchemaStatus struct {
	Environment        string
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs the embedded SQL migrations and, outside production-like
// environments, GORM AutoMigrate on top.
func ApplySchema(ctx context.Context, db *gorm.DB, env string) error {
	if err := RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run sql migrations: %w", err)
	}

	if isProdLikeEnv(env) {
		return nil
	}
	observability.GlobalLogger.Debug("Running GORM AutoMigrate", slog.String("env", env))
	if err := runAutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus lists applied and pending migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, env string) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Environment:        env,
		WillRunAutoMigrate: !isProdLikeEnv(env),
	}

	applied, err := NewVersionStore(db).AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
