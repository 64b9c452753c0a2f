package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite stores prompts in a single SQLite database. It is safe for
// concurrent use; writes are serialized by the database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary initializes) a SQLite-backed store
// at the given DSN. Use ":memory:" for an ephemeral database.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prompts (
		id         TEXT PRIMARY KEY,
		blocks     TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create prompts table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save stores blocks under id, replacing any previous value.
func (s *SQLite) Save(ctx context.Context, id string, blocks []Block) error {
	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("encode prompt %q: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO prompts (id, blocks, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET blocks = excluded.blocks, updated_at = excluded.updated_at`,
		id, string(data))
	return err
}

// Load returns the blocks saved under id, or ErrNotFound.
func (s *SQLite) Load(ctx context.Context, id string) ([]Block, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT blocks FROM prompts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var blocks []Block
	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		return nil, fmt.Errorf("decode prompt %q: %w", id, err)
	}
	return blocks, nil
}

// List returns all saved ids in lexical order.
func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM prompts ORDER BY id`)
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

// Delete removes the prompt saved under id, or returns ErrNotFound.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
