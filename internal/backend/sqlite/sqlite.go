// Package sqlite implements the adapter contract on an embedded SQLite
// database. It is the default driver for the local and document areas.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/model"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode for read-heavy workloads.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type store struct {
	db    *sql.DB
	table string
}

// New returns an adapter persisting into the named table, creating the table
// if needed. Each storage area gets its own table in a shared database.
func New(db *sql.DB, table string) (backend.Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite adapter: %w: nil db", model.ErrBackendUnavailable)
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("sqlite adapter: invalid table name %q", table)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        key   TEXT PRIMARY KEY,
        value BLOB NOT NULL
    )`, table)
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("sqlite adapter: ensure table %s: %w", table, err)
	}
	return &store{db: db, table: table}, nil
}

func (s *store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var v []byte
	q := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, s.table)
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, translate(err)
	}
	return v, nil
}

func (s *store) GetMany(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		v, err := s.Get(ctx, k)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (s *store) Set(ctx context.Context, key string, value json.RawMessage) error {
	q := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`, s.table)
	_, err := s.db.ExecContext(ctx, q, key, []byte(value))
	return translate(err)
}

func (s *store) Remove(ctx context.Context, key string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table)
	_, err := s.db.ExecContext(ctx, q, key)
	return translate(err)
}

func (s *store) Clear(ctx context.Context) error {
	q := fmt.Sprintf(`DELETE FROM %s`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return translate(err)
}

func (s *store) Keys(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`SELECT key FROM %s ORDER BY key`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *store) BytesInUse(ctx context.Context) (int64, error) {
	q := fmt.Sprintf(`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0) FROM %s`, s.table)
	var n int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// HealthPing satisfies the health checker's pinger interface with a real
// connection round trip instead of a table scan.
func (s *store) HealthPing(ctx context.Context) error {
	return translate(s.db.PingContext(ctx))
}

// translate maps closed-connection errors onto the adapter taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return err
}
