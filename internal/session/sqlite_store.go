package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS session_value
(
    profile_id TEXT    NOT NULL,
    key        TEXT    NOT NULL,
    value      TEXT    NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (profile_id, key)
);
CREATE INDEX IF NOT EXISTS ix_session_value_updated_at ON session_value (updated_at);
`

// SQLiteStore is the single-node variant of PostgresStore, backed by a
// local database file. Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLiteStore(ctx context.Context, path string, now func() time.Time) (*SQLiteStore, error) {
	if now == nil {
		now = time.Now
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: now,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, profileID string, key Key) (string, bool, error) {
	if profileID == "" {
		return "", false, ErrEmptyProfileID
	}

	var value string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM session_value WHERE profile_id = ? AND key = ?;`,
		profileID, string(key),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	if err := s.touch(ctx, profileID, &key); err != nil {
		return "", false, err
	}
	return value, true, nil
}

// touch moves updated_at forward so reads count as activity for SweepIdle.
// A nil key touches every row of the profile.
func (s *SQLiteStore) touch(ctx context.Context, profileID string, key *Key) error {
	var err error
	if key != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE session_value SET updated_at = ? WHERE profile_id = ? AND key = ?;`,
			s.now().UnixMilli(), profileID, string(*key),
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE session_value SET updated_at = ? WHERE profile_id = ?;`,
			s.now().UnixMilli(), profileID,
		)
	}
	if err != nil {
		return fmt.Errorf("touch profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Set(ctx context.Context, profileID string, key Key, value string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO session_value (profile_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (profile_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		profileID, string(key), value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, profileID string, key Key) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM session_value WHERE profile_id = ? AND key = ?;`,
		profileID, string(key),
	); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, profileID string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_value WHERE profile_id = ?;`, profileID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context, profileID string) (map[Key]string, error) {
	if profileID == "" {
		return nil, ErrEmptyProfileID
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key, value FROM session_value WHERE profile_id = ?;`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	defer rows.Close()

	res := make(map[Key]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		res[Key(k)] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// single connection: release it before the touch
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if len(res) > 0 {
		if err := s.touch(ctx, profileID, nil); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *SQLiteStore) SweepIdle(ctx context.Context, idleFor time.Duration) (_ int, err error) {
	cutoff := s.now().Add(-idleFor).UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var idle int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT count(*) FROM (
			SELECT profile_id FROM session_value GROUP BY profile_id HAVING max(updated_at) < ?
		);`,
		cutoff,
	).Scan(&idle); err != nil {
		return 0, fmt.Errorf("count idle profiles: %w", err)
	}
	if idle == 0 {
		return 0, tx.Commit()
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM session_value WHERE profile_id IN (
			SELECT profile_id FROM session_value GROUP BY profile_id HAVING max(updated_at) < ?
		);`,
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("delete idle profiles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return idle, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
