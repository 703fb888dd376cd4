package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLConnector implements Connector for MySQL / MariaDB.
type MySQLConnector struct{}

func (MySQLConnector) DriverName() string { return "mysql" }

func (MySQLConnector) DSN(cfg ConnectionConfig) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", errors.New("mysql: host and database are required")
	}
	tls := "preferred"
	if cfg.SSLMode == "disable" || cfg.SSLMode == "none" {
		tls = "false"
	} else if cfg.SSLMode == "require" {
		tls = "true"
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, portOr(cfg.Port, 3306))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.TLSConfig = tls
	return mc.FormatDSN(), nil
}

func (MySQLConnector) Init(context.Context, *sql.DB) error { return nil }
