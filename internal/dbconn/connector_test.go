package dbconn

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestNewConnector_ValidDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql", "mssql", "Postgres"} {
		c, err := NewConnector(driver)
		if err != nil {
			t.Errorf("NewConnector(%q) returned error: %v", driver, err)
		}
		if c == nil {
			t.Errorf("NewConnector(%q) returned nil", driver)
		}
	}
}

func TestNewConnector_InvalidDriver(t *testing.T) {
	if _, err := NewConnector("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := Open(context.Background(), ConnectionConfig{Driver: "oracle"}); err == nil {
		t.Error("expected Open to reject unsupported driver")
	}
}

func TestDrivers(t *testing.T) {
	got := strings.Join(Drivers(), ",")
	if got != "mssql,mysql,postgres,sqlite" {
		t.Errorf("Drivers() = %s", got)
	}
}

func TestConnectionConfig_JSONOmitsPassword(t *testing.T) {
	cfg := ConnectionConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		Database: "testdb",
		Username: "user",
		Password: "secret",
		SSLMode:  "require",
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password leaked into JSON: %s", data)
	}

	var decoded ConnectionConfig
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Host != "localhost" || decoded.Port != 5432 || decoded.Database != "testdb" {
		t.Errorf("unexpected round trip: %+v", decoded)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ConnectionConfig
		want []string
	}{
		{
			name: "postgres default port and sslmode",
			cfg:  ConnectionConfig{Driver: "postgres", Host: "db", Database: "dash", Username: "u", Password: "p@ss"},
			want: []string{"postgres://u:p%40ss@db:5432/dash", "sslmode=prefer"},
		},
		{
			name: "mysql tls disabled",
			cfg:  ConnectionConfig{Driver: "mysql", Host: "db", Port: 3307, Database: "dash", Username: "u", Password: "p", SSLMode: "disable"},
			want: []string{"u:p@tcp(db:3307)/dash", "parseTime=true", "tls=false"},
		},
		{
			name: "mssql encrypt disabled",
			cfg:  ConnectionConfig{Driver: "mssql", Host: "db", Database: "dash", Username: "sa", SSLMode: "none"},
			want: []string{"sqlserver://sa@db:1433", "database=dash", "encrypt=disable"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConnector(tt.cfg.Driver)
			if err != nil {
				t.Fatal(err)
			}
			dsn, err := c.DSN(tt.cfg)
			if err != nil {
				t.Fatalf("DSN: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(dsn, w) {
					t.Errorf("DSN %q missing %q", dsn, w)
				}
			}
		})
	}
}

func TestDSN_RequiredFields(t *testing.T) {
	for _, driver := range Drivers() {
		c, _ := NewConnector(driver)
		if _, err := c.DSN(ConnectionConfig{Driver: driver}); err == nil {
			t.Errorf("%s: expected error for empty config", driver)
		}
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	db, err := Open(context.Background(), ConnectionConfig{Driver: DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected WAL journal mode, got %q", mode)
	}
}

func TestKeyring_Fill(t *testing.T) {
	keyring.MockInit()
	k := Keyring{Service: "dashstudio-test"}

	cfg := ConnectionConfig{Driver: "postgres", KeyringProfile: "prod"}
	got, err := k.fill(cfg)
	if err != nil {
		t.Fatalf("missing entry should not fail: %v", err)
	}
	if got.Password != "" {
		t.Errorf("expected empty password, got %q", got.Password)
	}

	if err := k.Save("prod", "hunter2"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = k.fill(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Password != "hunter2" {
		t.Errorf("expected keyring password, got %q", got.Password)
	}

	cfg.Password = "explicit"
	got, _ = k.fill(cfg)
	if got.Password != "explicit" {
		t.Errorf("explicit password should win, got %q", got.Password)
	}

	if err := k.Delete("prod"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := k.Load("prod"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("expected ErrNoPassword after delete, got %v", err)
	}
	if err := k.Delete("prod"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("expected ErrNoPassword deleting twice, got %v", err)
	}
}

func TestKeyring_ServicesAreSeparate(t *testing.T) {
	keyring.MockInit()
	a, b := Keyring{Service: "a"}, Keyring{Service: "b"}
	if err := a.Save("prod", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load("prod"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("profile leaked across services: %v", err)
	}
}

func TestKeyring_RejectsBadInput(t *testing.T) {
	keyring.MockInit()
	k := Keyring{Service: "dashstudio-test"}
	for _, profile := range []string{"", "  ", " prod"} {
		if err := k.Save(profile, "pw"); err == nil {
			t.Errorf("Save(%q): expected error", profile)
		}
		if _, err := k.Load(profile); err == nil {
			t.Errorf("Load(%q): expected error", profile)
		}
	}
	if err := k.Save("prod", ""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestRedacted(t *testing.T) {
	cfg := Redacted(ConnectionConfig{Driver: "mysql", Password: "x"})
	if cfg.Password != "****" {
		t.Errorf("expected redacted password, got %q", cfg.Password)
	}
	if Redacted(ConnectionConfig{}).Password != "" {
		t.Error("empty password should stay empty")
	}
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	db, err := Open(context.Background(), ConnectionConfig{Driver: DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
	if _, err := db.Exec("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := db.Exec("INSERT INTO t (v) VALUES (?)", i); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("table lost between connections: %v", err)
	}
	if n != 5 {
		t.Errorf("count = %d, want 5", n)
	}
}
