package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dashstudio/internal/schema"
)

var (
	// ErrNotFound is returned when a user has no stored schema or a version
	// id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by Save when the stored revision moved past
	// the one the caller read.
	ErrConflict = errors.New("revision conflict")
)

// Repo provides keyed reads and optimistic writes of per-user design
// schemas. All queries are written with ? placeholders and rebound for the
// dialect.
type Repo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewRepo wraps an open database connection.
func NewRepo(db *sql.DB, d Dialect) *Repo {
	return &Repo{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
}

// Dialect returns the dialect the repo queries with.
func (r *Repo) Dialect() Dialect { return r.dialect }

// Close closes the underlying database connection.
func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) q(query string) string { return r.dialect.bind(query) }

// ---------------------------------------------------------------------------
// Current schema
// ---------------------------------------------------------------------------

// Get returns the stored schema for userID, or ErrNotFound.
func (r *Repo) Get(ctx context.Context, userID string) (Record, error) {
	var (
		body    string
		updated string
		rec     = Record{UserID: userID}
	)
	err := r.db.QueryRowContext(ctx,
		r.q("SELECT body, revision, updated_at FROM design_schemas WHERE user_id = ?"), userID).
		Scan(&body, &rec.Revision, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("schema for %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Record{}, err
	}
	if rec.Schema, err = schema.Decode([]byte(body)); err != nil {
		return Record{}, fmt.Errorf("stored schema for %q: %w", userID, err)
	}
	rec.UpdatedAt = parseTime(updated)
	return rec, nil
}

// Save writes s as the user's current schema if the stored revision still
// equals expectedRevision (0 meaning "nothing stored yet"), bumps the
// revision and appends a history version carrying note.
func (r *Repo) Save(ctx context.Context, userID string, s schema.DesignSchema, expectedRevision int64, note string) (Record, error) {
	body, err := s.MarshalJSONString()
	if err != nil {
		return Record{}, fmt.Errorf("encode schema: %w", err)
	}
	now := r.now()
	stamp := now.Format(time.RFC3339Nano)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, r.q("SELECT revision FROM design_schemas WHERE user_id = ?"), userID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return Record{}, err
	}
	if current != expectedRevision {
		return Record{}, fmt.Errorf("schema for %q at revision %d, expected %d: %w", userID, current, expectedRevision, ErrConflict)
	}

	next := current + 1
	if current == 0 {
		_, err = tx.ExecContext(ctx,
			r.q("INSERT INTO design_schemas (user_id, body, revision, updated_at) VALUES (?, ?, ?, ?)"),
			userID, body, next, stamp)
		if err != nil {
			return Record{}, fmt.Errorf("insert schema: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			r.q("UPDATE design_schemas SET body = ?, revision = ?, updated_at = ? WHERE user_id = ? AND revision = ?"),
			body, next, stamp, userID, current)
		if err != nil {
			return Record{}, fmt.Errorf("update schema: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return Record{}, fmt.Errorf("schema for %q changed concurrently: %w", userID, ErrConflict)
		}
	}

	_, err = tx.ExecContext(ctx,
		r.q("INSERT INTO design_schema_versions (id, user_id, revision, body, note, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		uuid.New().String(), userID, next, body, note, stamp)
	if err != nil {
		return Record{}, fmt.Errorf("insert version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return Record{UserID: userID, Schema: s.Clone(), Revision: next, UpdatedAt: now}, nil
}

// Delete removes the user's current schema and history.
func (r *Repo) Delete(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q("DELETE FROM design_schema_versions WHERE user_id = ?"), userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.q("DELETE FROM design_schemas WHERE user_id = ?"), userID); err != nil {
		return err
	}
	return tx.Commit()
}

// Users returns every user id with a stored schema.
func (r *Repo) Users(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id FROM design_schemas ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// History returns up to limit versions for userID, newest first. A limit of
// zero or less returns every version.
func (r *Repo) History(ctx context.Context, userID string, limit int) ([]Version, error) {
	query := "SELECT id, revision, body, note, created_at FROM design_schema_versions WHERE user_id = ? ORDER BY revision DESC"
	args := []any{userID}
	if limit > 0 {
		query += " " + r.dialect.Limit("?")
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows, userID)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Version returns one history entry of userID, or ErrNotFound.
func (r *Repo) Version(ctx context.Context, userID, versionID string) (Version, error) {
	row := r.db.QueryRowContext(ctx,
		r.q("SELECT id, revision, body, note, created_at FROM design_schema_versions WHERE user_id = ? AND id = ?"),
		userID, versionID)
	v, err := scanVersion(row, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("version %q for %q: %w", versionID, userID, ErrNotFound)
	}
	return v, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(s scanner, userID string) (Version, error) {
	var (
		v       = Version{UserID: userID}
		body    string
		created string
	)
	if err := s.Scan(&v.ID, &v.Revision, &body, &v.Note, &created); err != nil {
		return Version{}, err
	}
	var err error
	if v.Schema, err = schema.Decode([]byte(body)); err != nil {
		return Version{}, fmt.Errorf("version %s: %w", v.ID, err)
	}
	v.CreatedAt = parseTime(created)
	return v, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
