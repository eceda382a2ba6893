// Package sqlite implements a table backend over a local SQLite database. Rows are stored as JSON
// encoded cell arrays keyed by table key (store.Key) and position.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_tables (
  name    TEXT PRIMARY KEY,
  created TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS store_rows (
  tbl      TEXT    NOT NULL REFERENCES store_tables(name),
  position INTEGER NOT NULL,
  cells    TEXT    NOT NULL,
  PRIMARY KEY (tbl, position)
);
`

type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database file and applies the schema.
func Open(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initialising database (%w)", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Lookup(ctx context.Context, name string) (bool, error) {
	var N int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM store_tables WHERE name = ?`, store.Key(name)).Scan(&N); err != nil {
		return false, err
	}

	return N > 0, nil
}

func (s *SQLite) Create(ctx context.Context, name string, header []string) error {
	cells, err := json.Marshal(header)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO store_tables (name) VALUES (?)`, store.Key(name)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO store_rows (tbl, position, cells) VALUES (?, 0, ?)`, store.Key(name), string(cells)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) ClearRows(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM store_rows WHERE tbl = ? AND position > 0`, store.Key(name))

	return err
}

func (s *SQLite) WriteRows(ctx context.Context, name string, start int, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := write(ctx, tx, store.Key(name), start, rows); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceRows deletes the rows after the header and inserts the replacement rows in the same
// transaction.
func (s *SQLite) ReplaceRows(ctx context.Context, name string, rows [][]any) error {
	key := store.Key(name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM store_rows WHERE tbl = ? AND position > 0`, key); err != nil {
		return err
	}

	if err := write(ctx, tx, key, 1, rows); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) ReadAll(ctx context.Context, name string) ([][]any, error) {
	records, err := s.db.QueryContext(ctx, `SELECT position, cells FROM store_rows WHERE tbl = ? ORDER BY position`, store.Key(name))
	if err != nil {
		return nil, err
	}

	defer records.Close()

	rows := [][]any{}
	for records.Next() {
		var position int
		var cells string

		if err := records.Scan(&position, &cells); err != nil {
			return nil, err
		}

		row := []any{}
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("invalid row %v in '%s' (%w)", position, name, err)
		}

		for len(rows) < position {
			rows = append(rows, []any{})
		}

		rows = append(rows, row)
	}

	return rows, records.Err()
}

func write(ctx context.Context, tx *sql.Tx, key string, start int, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO store_rows (tbl, position, cells) VALUES (?, ?, ?)
	                                     ON CONFLICT (tbl, position) DO UPDATE SET cells = excluded.cells`)
	if err != nil {
		return err
	}

	defer stmt.Close()

	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, key, start+i, string(cells)); err != nil {
			return err
		}
	}

	return nil
}
