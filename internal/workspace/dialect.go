package workspace

import (
	"fmt"
	"sort"
	"strings"

	"dashstudio/internal/dbconn"
)

// Dialect captures the SQL differences between store backends.
type Dialect struct {
	Name string
	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// DDL holds the statements that create the store tables; each must be
	// safe to re-run.
	DDL []string
	// Limit renders a row-limit clause placed after ORDER BY.
	Limit func(placeholder string) string
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func atP(n int) string { return fmt.Sprintf("@p%d", n) }

func limitClause(ph string) string { return "LIMIT " + ph }

var registry = map[string]Dialect{
	dbconn.DriverSQLite: {
		Name:        dbconn.DriverSQLite,
		Placeholder: questionMark,
		Limit:       limitClause,
		DDL: []string{
			`CREATE TABLE IF NOT EXISTS design_schemas (
    user_id    TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    revision   INTEGER NOT NULL,
    updated_at TEXT NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS design_schema_versions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    revision   INTEGER NOT NULL,
    body       TEXT NOT NULL,
    note       TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_design_schema_versions_user ON design_schema_versions(user_id, revision)`,
			`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`,
		},
	},
	dbconn.DriverPostgres: {
		Name:        dbconn.DriverPostgres,
		Placeholder: dollar,
		Limit:       limitClause,
		DDL: []string{
			`CREATE TABLE IF NOT EXISTS design_schemas (
    user_id    TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    revision   BIGINT NOT NULL,
    updated_at TEXT NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS design_schema_versions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    revision   BIGINT NOT NULL,
    body       TEXT NOT NULL,
    note       TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_design_schema_versions_user ON design_schema_versions(user_id, revision)`,
			`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`,
		},
	},
	dbconn.DriverMySQL: {
		Name:        dbconn.DriverMySQL,
		Placeholder: questionMark,
		Limit:       limitClause,
		DDL: []string{
			`CREATE TABLE IF NOT EXISTS design_schemas (
    user_id    VARCHAR(255) PRIMARY KEY,
    body       LONGTEXT NOT NULL,
    revision   BIGINT NOT NULL,
    updated_at VARCHAR(40) NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS design_schema_versions (
    id         VARCHAR(36) PRIMARY KEY,
    user_id    VARCHAR(255) NOT NULL,
    revision   BIGINT NOT NULL,
    body       LONGTEXT NOT NULL,
    note       VARCHAR(1024) NOT NULL DEFAULT '',
    created_at VARCHAR(40) NOT NULL,
    INDEX idx_design_schema_versions_user (user_id, revision)
)`,
			`CREATE TABLE IF NOT EXISTS schema_version (version INT PRIMARY KEY)`,
		},
	},
	dbconn.DriverMSSQL: {
		Name:        dbconn.DriverMSSQL,
		Placeholder: atP,
		Limit: func(ph string) string {
			return "OFFSET 0 ROWS FETCH NEXT " + ph + " ROWS ONLY"
		},
		DDL: []string{
			`IF OBJECT_ID('design_schemas', 'U') IS NULL CREATE TABLE design_schemas (
    user_id    NVARCHAR(255) PRIMARY KEY,
    body       NVARCHAR(MAX) NOT NULL,
    revision   BIGINT NOT NULL,
    updated_at NVARCHAR(40) NOT NULL
)`,
			`IF OBJECT_ID('design_schema_versions', 'U') IS NULL CREATE TABLE design_schema_versions (
    id         NVARCHAR(36) PRIMARY KEY,
    user_id    NVARCHAR(255) NOT NULL,
    revision   BIGINT NOT NULL,
    body       NVARCHAR(MAX) NOT NULL,
    note       NVARCHAR(1024) NOT NULL DEFAULT '',
    created_at NVARCHAR(40) NOT NULL,
    INDEX idx_design_schema_versions_user (user_id, revision)
)`,
			`IF OBJECT_ID('schema_version', 'U') IS NULL CREATE TABLE schema_version (version INT PRIMARY KEY)`,
		},
	},
}

// Register adds or replaces a dialect.
func Register(d Dialect) {
	registry[strings.ToLower(d.Name)] = d
}

// Lookup returns the dialect for a driver name, or an error if unknown.
func Lookup(name string) (Dialect, error) {
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown dialect: %s", name)
	}
	return d, nil
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// bind rewrites a query written with ? placeholders into the dialect's style.
func (d Dialect) bind(query string) string {
	if d.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
