package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps encoder states in a single table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// state table when missing.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, now: time.Now}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS encoder_states (
	group_name TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	fitted_at TEXT NOT NULL
);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, states map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO encoder_states (group_name, state, fitted_at) VALUES (?, ?, ?)
ON CONFLICT(group_name) DO UPDATE SET state = excluded.state, fitted_at = excluded.fitted_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	fittedAt := s.now().UTC().Format(time.RFC3339)
	for group, blob := range states {
		if _, err := stmt.ExecContext(ctx, group, string(blob), fittedAt); err != nil {
			return fmt.Errorf("save state of %s: %w", group, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Load(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_name, state FROM encoder_states`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(map[string][]byte)
	for rows.Next() {
		var group, state string
		if err := rows.Scan(&group, &state); err != nil {
			return nil, err
		}
		states[group] = []byte(state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(states) == 0 {
		return nil, ErrNotFound
	}
	return states, nil
}

// FittedAt returns when the state of group was last saved.
func (s *SQLite) FittedAt(ctx context.Context, group string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT fitted_at FROM encoder_states WHERE group_name = ?`, group).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
