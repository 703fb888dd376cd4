package dbconn

import (
	"context"
	"database/sql"
	"net/url"
	"time"
)

const queryTimeout = 30 * time.Second

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

// portOr returns port, or def when port is unset.
func portOr(port, def int) int {
	if port == 0 {
		return def
	}
	return port
}

// userInfo escapes credentials for URL-style DSNs.
func userInfo(user, password string) *url.Userinfo {
	if password == "" {
		return url.User(user)
	}
	return url.UserPassword(user, password)
}

// Redacted returns a copy of cfg safe to log.
func Redacted(cfg ConnectionConfig) ConnectionConfig {
	if cfg.Password != "" {
		cfg.Password = "****"
	}
	return cfg
}
