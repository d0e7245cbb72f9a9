package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SQLiteStore persists entries in the cache_entries table. It is the
// durable backend used for history and, by default, for the profile cache.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

func NewSQLiteStore(db *sql.DB, logger zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger, now: time.Now}
}

func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if expiresAt.Valid && !s.now().Before(time.Unix(0, expiresAt.Int64)) {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, expiresAt.Int64,
		); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to evict expired cache entry")
		}
		return nil, ErrMiss
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, value, expiresAt, now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TTLMissing, nil
	}
	if err != nil {
		return TTLMissing, fmt.Errorf("failed to get cache ttl: %w", err)
	}
	if !expiresAt.Valid {
		return TTLNoExpiry, nil
	}
	remaining := time.Unix(0, expiresAt.Int64).Sub(s.now())
	if remaining <= 0 {
		return TTLMissing, nil
	}
	return remaining, nil
}

// Purge removes every expired entry and returns how many were dropped.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.Debug().Int64("purged", n).Msg("expired cache entries purged")
	return n, nil
}
