package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConnector implements Connector for PostgreSQL.
type PostgresConnector struct{}

func (PostgresConnector) DriverName() string { return "pgx" }

func (PostgresConnector) DSN(cfg ConnectionConfig) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", errors.New("postgres: host and database are required")
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, portOr(cfg.Port, 5432)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String(), nil
}

func (PostgresConnector) Init(context.Context, *sql.DB) error { return nil }
