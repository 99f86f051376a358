package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"tripsocial/internal/observability"
)

// VersionStore records which preference schema versions the database file holds.
type VersionStore interface {
	AppliedVersions(ctx context.Context) ([]int, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

// SchemaVersion is one row of the version ledger.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the ledger table name.
func (SchemaVersion) TableName() string {
	return "pref_schema_versions"
}

const ensureVersionTableSQL = `
CREATE TABLE IF NOT EXISTS pref_schema_versions (
	version INTEGER PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type versionStore struct {
	db *gorm.DB
}

// NewVersionStore returns a VersionStore backed by db.
func NewVersionStore(db *gorm.DB) VersionStore {
	return &versionStore{db: db}
}

// AppliedVersions lists recorded versions in ascending order. A file that never saw a
// migration has none.
func (s *versionStore) AppliedVersions(ctx context.Context) ([]int, error) {
	var versions []int
	err := s.db.WithContext(ctx).Model(&SchemaVersion{}).Order("version ASC").Pluck("version", &versions).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || strings.Contains(err.Error(), "no such table") {
			return []int{}, nil
		}
		return nil, fmt.Errorf("read preference schema versions: %w", err)
	}
	return versions, nil
}

// Apply runs the up script and records the version in one transaction.
func (s *versionStore) Apply(ctx context.Context, m Migration) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply preference schema %s: %w", m.String(), err)
		}
		if err := tx.Create(&SchemaVersion{Version: m.Version, Name: m.Name}).Error; err != nil {
			return fmt.Errorf("record preference schema %s: %w", m.String(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	observability.GlobalLogger.InfoContext(ctx, "preference schema applied", slog.String("migration", m.String()))
	return nil
}

// Revert runs the down script and forgets the version in one transaction.
func (s *versionStore) Revert(ctx context.Context, m Migration) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("revert preference schema %s: %w", m.String(), err)
		}
		if err := tx.Where(&SchemaVersion{Version: m.Version}).Delete(&SchemaVersion{}).Error; err != nil {
			return fmt.Errorf("forget preference schema %s: %w", m.String(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	observability.GlobalLogger.InfoContext(ctx, "preference schema reverted", slog.String("migration", m.String()))
	return nil
}

// RunMigrations brings the preference database up to the newest embedded version.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(ensureVersionTableSQL).Error; err != nil {
		return fmt.Errorf("create preference schema ledger: %w", err)
	}

	store := NewVersionStore(db)
	applied, err := store.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, migrations); err != nil {
		return err
	}

	for _, m := range migrations {
		if slices.Contains(applied, m.Version) {
			observability.GlobalLogger.DebugContext(ctx, "preference schema up to date", slog.String("migration", m.String()))
			continue
		}
		if err := store.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// validateAppliedVersions rejects a file written by a newer build, whose versions this
// build does not know how to read.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, version := range applied {
		if !slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == version }) {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("preference database has schema versions this build does not know: %s (delete the file to start over)",
		strings.Join(unknown, ", "))
}

// RollbackMigration reverts one applied version of the preference schema.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("preference schema version %d does not exist", version)
	}

	store := NewVersionStore(db)
	applied, err := store.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("preference schema %s is not applied", m.String())
	}
	return store.Revert(ctx, *m)
}
