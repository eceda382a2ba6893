// Package postgres implements a table backend over a PostgreSQL database, using the same layout as
// the sqlite backend with the cells held as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_tables (
  name    TEXT PRIMARY KEY,
  created TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS store_rows (
  tbl      TEXT    NOT NULL REFERENCES store_tables(name),
  position INTEGER NOT NULL,
  cells    JSONB   NOT NULL,
  PRIMARY KEY (tbl, position)
);
`

type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%w)", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database (%w)", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error initialising database (%w)", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()

	return nil
}

func (p *Postgres) Lookup(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM store_tables WHERE name = $1)`, store.Key(name)).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (p *Postgres) Create(ctx context.Context, name string, header []string) error {
	cells, err := json.Marshal(header)
	if err != nil {
		return err
	}

	key := store.Key(name)

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO store_tables (name) VALUES ($1)`, key); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `INSERT INTO store_rows (tbl, position, cells) VALUES ($1, 0, $2)`, key, cells); err != nil {
			return err
		}

		return nil
	})
}

func (p *Postgres) ClearRows(ctx context.Context, name string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM store_rows WHERE tbl = $1 AND position > 0`, store.Key(name))

	return err
}

func (p *Postgres) WriteRows(ctx context.Context, name string, start int, rows [][]any) error {
	batch, err := upsert(store.Key(name), start, rows)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

// ReplaceRows deletes the rows after the header and inserts the replacement rows in the same
// transaction.
func (p *Postgres) ReplaceRows(ctx context.Context, name string, rows [][]any) error {
	key := store.Key(name)

	batch, err := upsert(key, 1, rows)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM store_rows WHERE tbl = $1 AND position > 0`, key); err != nil {
			return err
		}

		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *Postgres) ReadAll(ctx context.Context, name string) ([][]any, error) {
	records, err := p.pool.Query(ctx, `SELECT position, cells FROM store_rows WHERE tbl = $1 ORDER BY position`, store.Key(name))
	if err != nil {
		return nil, err
	}

	defer records.Close()

	rows := [][]any{}
	for records.Next() {
		var position int
		var cells []byte

		if err := records.Scan(&position, &cells); err != nil {
			return nil, err
		}

		row := []any{}
		if err := json.Unmarshal(cells, &row); err != nil {
			return nil, fmt.Errorf("invalid row %v in '%s' (%w)", position, name, err)
		}

		for len(rows) < position {
			rows = append(rows, []any{})
		}

		rows = append(rows, row)
	}

	return rows, records.Err()
}

func upsert(key string, start int, rows [][]any) (*pgx.Batch, error) {
	batch := pgx.Batch{}
	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}

		batch.Queue(`INSERT INTO store_rows (tbl, position, cells) VALUES ($1, $2, $3)
		             ON CONFLICT (tbl, position) DO UPDATE SET cells = EXCLUDED.cells`, key, start+i, cells)
	}

	return &batch, nil
}
