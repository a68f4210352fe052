package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// SQLite is a durable single-node backend.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

const createCacheTable = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key TEXT PRIMARY KEY,
		cache_value BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
`

func NewSQLite(ctx context.Context, cfg SQLiteConfig, now func() time.Time) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if now == nil {
		now = time.Now
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite cache at %q: %w", cfg.Path, err)
	}
	// A single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open SQLite cache at %q: %w", cfg.Path, err)
	}
	if _, err := db.ExecContext(ctx, createCacheTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	s := &SQLite{db: db, now: now}
	if _, err := s.PurgeExpired(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT cache_value FROM cache_entries WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expires := int64(1<<63 - 1)
	if ttl > 0 {
		expires = s.now().Add(ttl).UnixNano()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, cache_value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET cache_value = excluded.cache_value, expires_at = excluded.expires_at`,
		key, value, expires,
	)
	return err
}

func (s *SQLite) Delete(ctx context.Context, pattern string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key GLOB ?`, pattern)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLite) Keys(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cache_key FROM cache_entries WHERE cache_key GLOB ? AND expires_at > ? ORDER BY cache_key`,
		pattern, s.now().UnixNano(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

// PurgeExpired deletes entries past their TTL and returns how many were removed.
func (s *SQLite) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
