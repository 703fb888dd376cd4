package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"
)

// MSSQLConnector implements Connector for SQL Server.
type MSSQLConnector struct{}

func (MSSQLConnector) DriverName() string { return "sqlserver" }

func (MSSQLConnector) DSN(cfg ConnectionConfig) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", errors.New("mssql: host and database are required")
	}
	encrypt := "true"
	if cfg.SSLMode == "disable" || cfg.SSLMode == "none" {
		encrypt = "disable"
	}
	q := url.Values{}
	q.Set("database", cfg.Database)
	q.Set("encrypt", encrypt)
	q.Set("TrustServerCertificate", "true")
	u := url.URL{
		Scheme:   "sqlserver",
		User:     userInfo(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, portOr(cfg.Port, 1433)),
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func (MSSQLConnector) Init(context.Context, *sql.DB) error { return nil }
