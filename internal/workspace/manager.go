package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dashstudio/internal/dbconn"
	"dashstudio/internal/schema"
)

// ErrNoChange may be returned by an UpdateFunc to skip the save; Update then
// returns the current record and a nil error.
var ErrNoChange = errors.New("no change")

// UpdateFunc computes a user's next schema from the current record. The
// returned note is stored with the history version. Returning an error
// aborts the update without saving.
type UpdateFunc func(current Record) (next schema.DesignSchema, note string, err error)

// Manager serializes read-modify-write cycles per user on top of a Repo.
// Different users never block each other.
type Manager struct {
	repo *Repo

	mu    sync.Mutex
	locks map[string]*sync.Mutex // keyed by user ID
}

// NewManager creates a Manager over an existing repo.
func NewManager(repo *Repo) *Manager {
	return &Manager{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

// Open connects to the configured store, creates or migrates its tables and
// returns a Manager for it.
func Open(ctx context.Context, cfg dbconn.ConnectionConfig) (*Manager, error) {
	d, err := Lookup(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := dbconn.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := InitSchema(ctx, db, d); err != nil {
		db.Close()
		return nil, err
	}
	if err := MigrateSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return NewManager(NewRepo(db, d)), nil
}

// Repo returns the underlying repo.
func (m *Manager) Repo() *Repo { return m.repo }

// Close closes the store connection.
func (m *Manager) Close() error { return m.repo.Close() }

func (m *Manager) lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func checkUser(userID string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	return nil
}

// Load returns the user's stored schema, or the default schema at revision
// 0 when nothing is stored yet.
func (m *Manager) Load(ctx context.Context, userID string) (Record, error) {
	if err := checkUser(userID); err != nil {
		return Record{}, err
	}
	rec, err := m.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Record{UserID: userID, Schema: schema.Default()}, nil
	}
	return rec, err
}

// Update runs fn against the user's current record while holding the
// user's lock and saves the result.
func (m *Manager) Update(ctx context.Context, userID string, fn UpdateFunc) (Record, error) {
	if err := checkUser(userID); err != nil {
		return Record{}, err
	}
	unlock := m.lock(userID)
	defer unlock()

	current, err := m.Load(ctx, userID)
	if err != nil {
		return Record{}, err
	}
	next, note, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return current, nil
	}
	if err != nil {
		return Record{}, err
	}
	return m.repo.Save(ctx, userID, next, current.Revision, note)
}

// Revert makes a history version the user's current schema. The revert is
// itself recorded as a new version.
func (m *Manager) Revert(ctx context.Context, userID, versionID string) (Record, error) {
	v, err := m.repo.Version(ctx, userID, versionID)
	if err != nil {
		return Record{}, err
	}
	return m.Update(ctx, userID, func(Record) (schema.DesignSchema, string, error) {
		return v.Schema, fmt.Sprintf("revert to revision %d", v.Revision), nil
	})
}
