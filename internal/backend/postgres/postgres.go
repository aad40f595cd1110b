// Package postgres implements the adapter contract on PostgreSQL via the pgx
// stdlib driver. It is the alternate driver for the document area when the
// service runs against a shared database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/model"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return db, nil
}

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type store struct {
	db    *sql.DB
	table string
}

// New returns an adapter persisting into the named table, creating it if
// needed.
func New(db *sql.DB, table string) (backend.Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres adapter: %w: nil db", model.ErrBackendUnavailable)
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("postgres adapter: invalid table name %q", table)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        key   TEXT PRIMARY KEY,
        value BYTEA NOT NULL
    )`, table)
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("postgres adapter: ensure table %s: %w", table, err)
	}
	return &store{db: db, table: table}, nil
}

func (s *store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var v []byte
	q := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table)
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
	q := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, s.table)
	_, err := s.db.ExecContext(ctx, q, key, []byte(value))
	return translate(err)
}

func (s *store) Remove(ctx context.Context, key string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table)
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
	q := fmt.Sprintf(`SELECT COALESCE(SUM(octet_length(key) + octet_length(value)), 0) FROM %s`, s.table)
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

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return err
}
