package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "client.sqlite"

// Store is the client's on-disk state: credentials, login lockout, cached list
// responses and TUI state. Dir is normally the config dir.
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o700)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// The CLI and a running TUI may share the file; WAL plus busy_timeout keeps
	// them from tripping over "database is locked".
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS resource_cache (
			kind TEXT NOT NULL,
			query_key TEXT NOT NULL,
			json TEXT NOT NULL,
			fetched_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (kind, query_key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s Store) withDB(ctx context.Context, fn func(*sql.DB) error) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func (s Store) getKV(ctx context.Context, k string) (string, error) {
	var v string
	err := s.withDB(ctx, func(db *sql.DB) error {
		err := db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, k).Scan(&v)
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	})
	return v, err
}

func (s Store) setKV(ctx context.Context, k, v string) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v) VALUES(?, ?)`, k, v)
		return err
	})
}

func (s Store) deleteKV(ctx context.Context, keys ...string) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		for _, k := range keys {
			if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, k); err != nil {
				return err
			}
		}
		return nil
	})
}
