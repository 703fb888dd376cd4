package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// currentSchemaVersion is the latest store schema version this code supports.
const currentSchemaVersion = 1

// InitSchema creates all store tables if they do not already exist and
// stamps the schema version.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.DDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if n == 0 {
		if _, err := db.ExecContext(ctx, d.bind("INSERT INTO schema_version (version) VALUES (?)"), currentSchemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}
	return nil
}

// MigrateSchema checks the current schema version and applies incremental
// migrations. Returns an error if the store version is newer than supported.
func MigrateSchema(ctx context.Context, db *sql.DB) error {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if !version.Valid {
		return errors.New("store has no schema version")
	}
	if version.Int64 > currentSchemaVersion {
		return fmt.Errorf("store version %d is newer than supported version %d; please update dashstudio", version.Int64, currentSchemaVersion)
	}
	// Future migrations go here, e.g.:
	// if version < 2 { applyMigrationV2(ctx, db) }
	return nil
}
