package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PutCache stores v as the latest response for kind+key.
func (s Store) PutCache(ctx context.Context, kind, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()
	return s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO resource_cache(kind, query_key, json, fetched_at_unixms) VALUES(?, ?, ?, ?)`,
			kind, key, string(raw), nowMs)
		return err
	})
}

// GetCache decodes the cached response for kind+key into out. ok is false when
// nothing is cached.
func (s Store) GetCache(ctx context.Context, kind, key string, out any) (fetchedAt time.Time, ok bool, err error) {
	var raw string
	var ms int64
	err = s.withDB(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT json, fetched_at_unixms FROM resource_cache WHERE kind = ? AND query_key = ?`,
			kind, key).Scan(&raw, &ms)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func (s Store) ClearCache(ctx context.Context) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `DELETE FROM resource_cache`)
		return err
	})
}
