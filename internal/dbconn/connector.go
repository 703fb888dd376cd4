// Package dbconn opens the database that backs the per-user design schema
// store. Each supported backend registers a Connector that knows its
// database/sql driver name, how to build a DSN and any per-connection setup.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMSSQL    = "mssql"
)

// ConnectionConfig holds the parameters needed to connect to a store backend.
type ConnectionConfig struct {
	Driver   string `json:"driver" mapstructure:"driver"` // sqlite, postgres, mysql, mssql
	Host     string `json:"host,omitempty" mapstructure:"host"`
	Port     int    `json:"port,omitempty" mapstructure:"port"`
	Database string `json:"database,omitempty" mapstructure:"database"`
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	SSLMode  string `json:"sslMode,omitempty" mapstructure:"sslmode"`

	// SQLite only: database file path.
	Path string `json:"path,omitempty" mapstructure:"path"`
	// When Password is empty the password is read from the OS keyring
	// under this profile name.
	KeyringProfile string `json:"keyringProfile,omitempty" mapstructure:"keyring_profile"`
}

// Connector knows how to reach one kind of backend.
type Connector interface {
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN builds the data source name from cfg.
	DSN(cfg ConnectionConfig) (string, error)
	// Init runs once on a freshly opened, reachable database.
	Init(ctx context.Context, db *sql.DB) error
}

// poolSizer is implemented by connectors whose backend cannot be shared
// across an unbounded connection pool.
type poolSizer interface {
	MaxOpenConns(cfg ConnectionConfig) int
}

var connectors = map[string]Connector{
	DriverSQLite:   &SQLiteConnector{},
	DriverPostgres: &PostgresConnector{},
	DriverMySQL:    &MySQLConnector{},
	DriverMSSQL:    &MSSQLConnector{},
}

// NewConnector returns the Connector for the given driver name.
func NewConnector(driver string) (Connector, error) {
	c, ok := connectors[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return c, nil
}

// Drivers returns the supported driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(connectors))
	for k := range connectors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Open resolves the password, opens the database, pings it within
// queryTimeout and runs the connector's setup.
func Open(ctx context.Context, cfg ConnectionConfig) (*sql.DB, error) {
	c, err := NewConnector(cfg.Driver)
	if err != nil {
		return nil, err
	}
	cfg, err = Passwords.fill(cfg)
	if err != nil {
		return nil, err
	}
	dsn, err := c.DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(c.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", cfg.Driver, err)
	}
	if ps, ok := c.(poolSizer); ok {
		if n := ps.MaxOpenConns(cfg); n > 0 {
			db.SetMaxOpenConns(n)
		}
	}
	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Driver, err)
	}
	if err := c.Init(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s init: %w", cfg.Driver, err)
	}
	return db, nil
}
