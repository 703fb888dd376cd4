package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteConnector implements Connector for a local SQLite file.
type SQLiteConnector struct{}

func (SQLiteConnector) DriverName() string { return "sqlite" }

func (SQLiteConnector) DSN(cfg ConnectionConfig) (string, error) {
	if cfg.Path == "" {
		return "", errors.New("sqlite: path is required")
	}
	if inMemory(cfg.Path) {
		return cfg.Path, nil
	}
	// Ensure the parent directory exists.
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	return cfg.Path, nil
}

// MaxOpenConns pins in-memory databases to one connection: every new
// connection would otherwise open its own empty database.
func (SQLiteConnector) MaxOpenConns(cfg ConnectionConfig) int {
	if inMemory(cfg.Path) {
		return 1
	}
	return 0
}

func inMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Init enables foreign keys, WAL journaling and a busy timeout so concurrent
// writers from other processes wait instead of failing.
func (SQLiteConnector) Init(ctx context.Context, db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}
