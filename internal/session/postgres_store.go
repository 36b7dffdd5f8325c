package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS session_value
(
    profile_id VARCHAR     NOT NULL,
    key        VARCHAR     NOT NULL,
    value      TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (profile_id, key)
);
CREATE INDEX IF NOT EXISTS ix_session_value_updated_at ON session_value (updated_at);
`

// PostgresStore keeps one row per (profile, key).
type PostgresStore struct {
	db  pgxPool
	now func() time.Time
}

func NewPostgresStore(db pgxPool, now func() time.Time) *PostgresStore {
	if now == nil {
		now = time.Now
	}
	return &PostgresStore{
		db:  db,
		now: now,
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, postgresSchemaSQL)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, profileID string, key Key) (string, bool, error) {
	if profileID == "" {
		return "", false, ErrEmptyProfileID
	}

	var value string
	err := s.db.QueryRow(
		ctx,
		`SELECT value FROM session_value WHERE profile_id = $1 AND key = $2;`,
		profileID, string(key),
	).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
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
func (s *PostgresStore) touch(ctx context.Context, profileID string, key *Key) error {
	var err error
	if key != nil {
		_, err = s.db.Exec(ctx,
			`UPDATE session_value SET updated_at = $1 WHERE profile_id = $2 AND key = $3;`,
			s.now(), profileID, string(*key),
		)
	} else {
		_, err = s.db.Exec(ctx,
			`UPDATE session_value SET updated_at = $1 WHERE profile_id = $2;`,
			s.now(), profileID,
		)
	}
	if err != nil {
		return fmt.Errorf("touch profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Set(ctx context.Context, profileID string, key Key, value string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	_, err := s.db.Exec(
		ctx,
		`INSERT INTO session_value (profile_id, key, value, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;`,
		profileID, string(key), value, s.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, profileID string, key Key) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	if _, err := s.db.Exec(
		ctx,
		`DELETE FROM session_value WHERE profile_id = $1 AND key = $2;`,
		profileID, string(key),
	); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, profileID string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM session_value WHERE profile_id = $1;`, profileID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) All(ctx context.Context, profileID string) (map[Key]string, error) {
	if profileID == "" {
		return nil, ErrEmptyProfileID
	}

	rows, err := s.db.Query(
		ctx,
		`SELECT key, value FROM session_value WHERE profile_id = $1;`,
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
	rows.Close()

	if len(res) > 0 {
		if err := s.touch(ctx, profileID, nil); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *PostgresStore) SweepIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	cutoff := s.now().Add(-idleFor)

	rows, err := s.db.Query(
		ctx,
		`SELECT profile_id FROM session_value GROUP BY profile_id HAVING max(updated_at) < $1;`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("select idle profiles: %w", err)
	}
	var idle []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("rows scan: %w", err)
		}
		idle = append(idle, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range idle {
		// skip profiles touched since the select
		tag, err := s.db.Exec(
			ctx,
			`DELETE FROM session_value WHERE profile_id = $1
			AND NOT EXISTS (SELECT 1 FROM session_value WHERE profile_id = $1 AND updated_at >= $2);`,
			id, cutoff,
		)
		if err != nil {
			return removed, fmt.Errorf("delete idle profile: %w", err)
		}
		if tag.RowsAffected() > 0 {
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}
